package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rlm-memory/rlm-memory/internal/search"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Hybrid BM25 + cosine search over chunks and insights",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("project", "", "Filter by project")
	cmd.Flags().String("domain", "", "Filter by domain")
	cmd.Flags().String("date-from", "", "Filter: created_at >= YYYY-MM-DD")
	cmd.Flags().String("date-to", "", "Filter: created_at <= YYYY-MM-DD")
	cmd.Flags().String("entity", "", "Filter: substring match across entity categories")
	cmd.Flags().IntP("limit", "l", 10, "Max results")
	cmd.Flags().Bool("no-insights", false, "Exclude insights from the corpus")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	domain, _ := cmd.Flags().GetString("domain")
	dateFrom, _ := cmd.Flags().GetString("date-from")
	dateTo, _ := cmd.Flags().GetString("date-to")
	entity, _ := cmd.Flags().GetString("entity")
	limit, _ := cmd.Flags().GetInt("limit")
	noInsights, _ := cmd.Flags().GetBool("no-insights")
	query := strings.Join(args, " ")

	e := openEngine()
	results, err := e.Search(cmd.Context(), query, limit, search.Filters{
		Project:  project,
		Domain:   domain,
		DateFrom: dateFrom,
		DateTo:   dateTo,
		Entity:   entity,
	}, !noInsights)
	if err != nil {
		exitErr("search", err)
	}

	if len(results) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(b))
}
