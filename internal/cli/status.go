package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show a snapshot of chunk/insight counts and embedding provider health",
		Run:   runStatus,
	}

	RootCmd.AddCommand(cmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	e := openEngine()
	status, err := e.Status()
	if err != nil {
		exitErr("status", err)
	}

	b, _ := json.MarshalIndent(status, "", "  ")
	fmt.Println(string(b))
}
