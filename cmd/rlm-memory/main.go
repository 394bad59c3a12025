package main

import (
	"os"

	"github.com/rlm-memory/rlm-memory/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
