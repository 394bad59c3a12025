package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "domains",
		Short: "List seeded and observed domain suggestions",
		Run:   runDomains,
	}

	RootCmd.AddCommand(cmd)
}

func runDomains(cmd *cobra.Command, args []string) {
	e := openEngine()
	domains, err := e.Domains()
	if err != nil {
		exitErr("domains", err)
	}

	b, _ := json.MarshalIndent(domains, "", "  ")
	fmt.Println(string(b))
}
