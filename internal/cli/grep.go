package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rlm-memory/rlm-memory/internal/navigation"
)

func init() {
	cmd := &cobra.Command{
		Use:   "grep [pattern]",
		Short: "Regex or fuzzy search across active chunk content",
		Args:  cobra.ExactArgs(1),
		Run:   runGrep,
	}

	cmd.Flags().String("project", "", "Filter by project")
	cmd.Flags().String("domain", "", "Filter by domain")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("fuzzy", false, "Use fuzzy partial-ratio matching instead of regex")
	cmd.Flags().Float64("fuzzy-threshold", 80, "Fuzzy match threshold, 0-100")

	RootCmd.AddCommand(cmd)
}

func runGrep(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	domain, _ := cmd.Flags().GetString("domain")
	limit, _ := cmd.Flags().GetInt("limit")
	fuzzy, _ := cmd.Flags().GetBool("fuzzy")
	threshold, _ := cmd.Flags().GetFloat64("fuzzy-threshold")

	e := openEngine()
	filters := navigation.Filters{Project: project, Domain: domain}

	var matches []navigation.Match
	var err error
	if fuzzy {
		matches, err = e.GrepFuzzy(args[0], threshold, filters, limit)
	} else {
		matches, err = e.Grep(args[0], filters, limit)
	}
	if err != nil {
		exitErr("grep", err)
	}

	b, _ := json.MarshalIndent(matches, "", "  ")
	fmt.Println(string(b))
}
