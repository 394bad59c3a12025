// Package cli implements the rlm-memory CLI commands: a thin cobra
// wrapper over the engine package's fourteen RPC operations.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rlm-memory/rlm-memory/internal/engine"
)

var (
	storageDir string
	formatFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "rlm-memory",
	Short: "Local persistent memory for an interactive coding assistant",
	Long:  "A storage-root-backed memory engine: chunks, insights, sessions, search, and retention. Text in, text out.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&storageDir, "root", "r", "", "Storage root (default: $RLM_STORAGE_ROOT or ~/.rlm-memory)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format (accepted but not read: commands print JSON, peek prints raw text)")
}

func getStorageDir() string {
	if storageDir != "" {
		return storageDir
	}
	if env := os.Getenv("RLM_STORAGE_ROOT"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rlm-memory")
}

func openEngine() *engine.Engine {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}).With().Timestamp().Logger()
	e, err := engine.New(getStorageDir(), logger)
	if err != nil {
		exitErr("open storage root", err)
	}
	return e
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
