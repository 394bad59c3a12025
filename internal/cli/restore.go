package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "restore [id]",
		Short: "Decompress an archived chunk back into the active zone",
		Args:  cobra.ExactArgs(1),
		Run:   runRestore,
	}

	RootCmd.AddCommand(cmd)
}

func runRestore(cmd *cobra.Command, args []string) {
	e := openEngine()
	if err := e.Restore(args[0]); err != nil {
		exitErr("restore", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"id":%q}`+"\n", args[0])
}
