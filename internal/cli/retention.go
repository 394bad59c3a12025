package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	previewCmd := &cobra.Command{
		Use:   "retention-preview",
		Short: "Enumerate archive/purge candidates with no side effects",
		Run:   runRetentionPreview,
	}
	RootCmd.AddCommand(previewCmd)

	runCmd := &cobra.Command{
		Use:   "retention-run",
		Short: "Archive (and optionally purge) candidates per the three-zone lifecycle",
		Run:   runRetentionRun,
	}
	runCmd.Flags().Bool("archive", true, "Archive eligible chunks")
	runCmd.Flags().Bool("purge", false, "Purge eligible archived chunks")
	RootCmd.AddCommand(runCmd)
}

func runRetentionPreview(cmd *cobra.Command, args []string) {
	e := openEngine()
	preview, err := e.RetentionPreview()
	if err != nil {
		exitErr("retention-preview", err)
	}

	b, _ := json.MarshalIndent(preview, "", "  ")
	fmt.Println(string(b))
}

func runRetentionRun(cmd *cobra.Command, args []string) {
	archive, _ := cmd.Flags().GetBool("archive")
	purge, _ := cmd.Flags().GetBool("purge")

	e := openEngine()
	result, err := e.RetentionRun(archive, purge)
	if err != nil {
		exitErr("retention-run", err)
	}

	b, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(b))
}
