package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "remember [content]",
		Short: "Record a small structured insight",
		Args:  cobra.MinimumNArgs(1),
		Run:   runRemember,
	}

	cmd.Flags().String("category", "general", "Category: decision, fact, preference, finding, todo, general")
	cmd.Flags().String("importance", "medium", "Importance: low, medium, high, critical")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")

	RootCmd.AddCommand(cmd)
}

func runRemember(cmd *cobra.Command, args []string) {
	category, _ := cmd.Flags().GetString("category")
	importance, _ := cmd.Flags().GetString("importance")
	tagsStr, _ := cmd.Flags().GetString("tags")
	content := strings.Join(args, " ")

	var tags []string
	if tagsStr != "" {
		for _, t := range strings.Split(tagsStr, ",") {
			t = strings.TrimSpace(t)
			if t != "" {
				tags = append(tags, t)
			}
		}
	}

	e := openEngine()
	ins, err := e.Remember(content, category, importance, tags)
	if err != nil {
		exitErr("remember", err)
	}

	b, _ := json.MarshalIndent(ins, "", "  ")
	fmt.Println(string(b))
}
