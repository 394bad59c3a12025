package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "forget [id]",
		Short: "Remove an insight",
		Args:  cobra.ExactArgs(1),
		Run:   runForget,
	}

	RootCmd.AddCommand(cmd)
}

func runForget(cmd *cobra.Command, args []string) {
	e := openEngine()
	if err := e.Forget(args[0]); err != nil {
		exitErr("forget", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q}`+"\n", args[0])
}
