package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions, optionally filtered by project/domain",
		Run:   runSessions,
	}

	cmd.Flags().String("project", "", "Filter by project")
	cmd.Flags().String("domain", "", "Filter by domain")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSessions(cmd *cobra.Command, args []string) {
	project, _ := cmd.Flags().GetString("project")
	domain, _ := cmd.Flags().GetString("domain")
	limit, _ := cmd.Flags().GetInt("limit")

	e := openEngine()
	sessions, err := e.Sessions(project, domain, limit)
	if err != nil {
		exitErr("sessions", err)
	}

	b, _ := json.MarshalIndent(sessions, "", "  ")
	fmt.Println(string(b))
}
