package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rlm-memory/rlm-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "list-chunks",
		Short: "List chunk metadata ordered by created_at desc",
		Run:   runListChunks,
	}

	cmd.Flags().String("project", "", "Filter by project")
	cmd.Flags().String("domain", "", "Filter by domain")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runListChunks(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	domain, _ := cmd.Flags().GetString("domain")
	limit, _ := cmd.Flags().GetInt("limit")

	e := openEngine()
	chunks, err := e.ListChunks(store.ListParams{Project: project, Domain: domain, Limit: limit})
	if err != nil {
		exitErr("list-chunks", err)
	}

	b, _ := json.MarshalIndent(chunks, "", "  ")
	fmt.Println(string(b))
}
