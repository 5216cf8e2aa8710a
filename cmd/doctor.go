package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/mediaiq/miq/internal/config"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check environment and integration readiness",
		Run: func(cmd *cobra.Command, args []string) {
			runDoctor()
		},
	}
}

func runDoctor() {
	fmt.Println("miq doctor")
	fmt.Printf("  Version:  %s\n", Version)
	fmt.Printf("  OS:       %s/%s\n", runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  Go:       %s\n", runtime.Version())
	fmt.Println()

	cfgPath := resolveConfigPath()
	if cfgPath == "" {
		fmt.Println("  Config:   (defaults + env only)")
	} else if _, err := os.Stat(cfgPath); err != nil {
		fmt.Printf("  Config:   %s — NOT FOUND\n", cfgPath)
	} else {
		fmt.Printf("  Config:   %s\n", cfgPath)
	}

	settings, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  Load:     FAILED: %v\n", err)
		os.Exit(1)
	}

	mode := "demo"
	if settings.ProductionMode {
		mode = "production"
	}
	fmt.Printf("  Mode:     %s\n", mode)
	fmt.Printf("  Memory:   %s (max %d entries/agent, trim to %d)\n",
		settings.MemoryDir, settings.MemoryMaxEntriesPerAgent, settings.MemoryTrimTo)
	fmt.Printf("  Listen:   %s:%d\n", settings.Host, settings.Port)
	fmt.Println()

	check := func(name string, ok bool) {
		status := "not configured (demo)"
		if ok {
			status = "configured"
		}
		fmt.Printf("  %-8s  %s\n", name, status)
	}
	check("OpenAI", settings.OpenAIConfigured())
	check("Slack", settings.SlackConfigured())
	check("Teams", settings.TeamsConfigured())

	if settings.ProductionMode && !settings.OpenAIConfigured() {
		fmt.Println("\n  Warning: production mode is on but OpenAI is not configured;")
		fmt.Println("  LLM-backed agents will fall back to demo output.")
	}
}
