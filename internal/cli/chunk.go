package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rlm-memory/rlm-memory/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chunk [content]",
		Short: "Externalize conversation content into a chunk",
		Long:  "Store a chunk. Content can be a positional arg or piped via stdin.",
		Run:   runChunk,
	}

	cmd.Flags().String("summary", "", "Summary (auto-generated from content if omitted)")
	cmd.Flags().StringP("tags", "t", "", "Comma-separated tags")
	cmd.Flags().String("project", "", "Project (auto-detected if omitted)")
	cmd.Flags().String("ticket", "", "Ticket reference")
	cmd.Flags().String("domain", "", "Domain")

	RootCmd.AddCommand(cmd)
}

func runChunk(cmd *cobra.Command, args []string) {
	summary, _ := cmd.Flags().GetString("summary")
	tagsStr, _ := cmd.Flags().GetString("tags")
	project, _ := cmd.Flags().GetString("project")
	ticket, _ := cmd.Flags().GetString("ticket")
	domain, _ := cmd.Flags().GetString("domain")

	var content string
	if len(args) > 0 {
		content = strings.Join(args, " ")
	} else {
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) == 0 {
			b, err := io.ReadAll(os.Stdin)
			if err != nil {
				exitErr("read stdin", err)
			}
			content = string(b)
		}
	}
	if strings.TrimSpace(content) == "" {
		exitErr("chunk", fmt.Errorf("content is required (positional arg or stdin)"))
	}

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
	res, err := e.CreateChunk(cmd.Context(), store.CreateParams{
		Content: strings.TrimSpace(content),
		Summary: summary,
		Tags:    tags,
		Project: project,
		Ticket:  ticket,
		Domain:  domain,
	})
	if err != nil {
		exitErr("chunk", err)
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
