package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/telex-integrations/agentrelay/internal/registry"
)

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsListCmd, agentsCardCmd)
}

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "Inspect hosted agents",
}

var agentsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hosted agents and their capabilities",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tPUSH\tSTREAMING")
		for _, a := range registry.All() {
			fmt.Fprintf(w, "%s\t%s\t%t\t%t\n",
				a.ID,
				a.Name,
				a.Capabilities.PushNotifications,
				a.Capabilities.Streaming,
			)
		}
		return w.Flush()
	},
}

var agentsCardCmd = &cobra.Command{
	Use:   "card <agent-id>",
	Short: "Print an agent's capability card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()
		a, ok := registry.Get(args[0])
		if !ok {
			return fmt.Errorf("unknown agent %q", args[0])
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(a.Card(cfg.BaseURL, cfg.AppEnv))
	},
}
