package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "peek [id]",
		Short: "Read a chunk's content, auto-restoring from archive if needed",
		Args:  cobra.ExactArgs(1),
		Run:   runPeek,
	}

	cmd.Flags().Int("start", 0, "Start line (1-based, inclusive)")
	cmd.Flags().Int("end", 0, "End line (1-based, inclusive)")

	RootCmd.AddCommand(cmd)
}

func runPeek(cmd *cobra.Command, args []string) {
	start, _ := cmd.Flags().GetInt("start")
	end, _ := cmd.Flags().GetInt("end")

	e := openEngine()
	body, accessCount, err := e.Peek(args[0], start, end)
	if err != nil {
		exitErr("peek", err)
	}

	fmt.Println(body)
	fmt.Fprintf(cmd.ErrOrStderr(), "access_count: %d\n", accessCount)
}
