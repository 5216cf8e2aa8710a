package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/agents"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
	"github.com/mediaiq/miq/internal/providers"
)

func agentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "List registered agents and their readiness",
		Run: func(cmd *cobra.Command, args []string) {
			runAgents()
		},
	}
}

func runAgents() {
	settings, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	registry := agent.NewRegistry()
	agents.RegisterAll(registry, settings, providers.New(settings), connectors.NewRegistry())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tMODE\tDESCRIPTION")
	for _, key := range registry.Keys() {
		a := registry.Get(key)
		mode := "demo"
		if settings.ProductionMode && len(settings.MissingIntegrations(a.RequiredIntegrations())) == 0 {
			mode = "production"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", key, mode, a.Description())
	}
	w.Flush()
}
