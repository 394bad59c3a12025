package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rlm-memory/rlm-memory/internal/insight"
)

func init() {
	cmd := &cobra.Command{
		Use:   "recall [query]",
		Short: "Recall insights, optionally ranked by tokenized query overlap",
		Run:   runRecall,
	}

	cmd.Flags().String("category", "", "Filter by category")
	cmd.Flags().String("importance", "", "Filter by importance")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runRecall(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetString("importance")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	e := openEngine()
	insights, err := e.Recall(insight.RecallParams{
		Query:      query,
		Category:   category,
		Importance: importance,
		Limit:      limit,
	})
	if err != nil {
		exitErr("recall", err)
	}

	b, _ := json.MarshalIndent(insights, "", "  ")
	fmt.Println(string(b))
}
