package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mediaiq/miq/internal/agent"
	"github.com/mediaiq/miq/internal/agents"
	"github.com/mediaiq/miq/internal/bus"
	"github.com/mediaiq/miq/internal/config"
	"github.com/mediaiq/miq/internal/connectors"
	"github.com/mediaiq/miq/internal/gateway"
	"github.com/mediaiq/miq/internal/memory"
	"github.com/mediaiq/miq/internal/orchestrator"
	"github.com/mediaiq/miq/internal/providers"
	"github.com/mediaiq/miq/internal/telemetry"
)

const healthCheckInterval = 5 * time.Minute

func gatewayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gateway",
		Short: "Run the orchestrator and the Slack/Teams gateway",
		Run: func(cmd *cobra.Command, args []string) {
			runGateway()
		},
	}
}

func runGateway() {
	settings, err := config.Load(resolveConfigPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	setupLogging(settings)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTraces, err := telemetry.Init(ctx, settings)
	if err != nil {
		slog.Error("telemetry init failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		shutdownTraces(flushCtx)
	}()

	journal, err := memory.NewJournal(settings.MemoryDir,
		settings.MemoryMaxEntriesPerAgent, settings.MemoryTrimTo)
	if err != nil {
		slog.Error("journal init failed", "dir", settings.MemoryDir, "error", err)
		os.Exit(1)
	}
	go func() {
		if werr := journal.WatchUserPrefs(ctx); werr != nil {
			slog.Warn("user prefs watcher stopped", "error", werr)
		}
	}()

	llm := providers.New(settings)
	if llm == nil {
		slog.Info("openai not configured, LLM routing and production branches disabled")
	}

	conns := connectors.NewRegistry()
	archive := connectors.NewArchive(filepath.Join(settings.MemoryDir, "archive.db"))
	conns.Register(connectors.NewSlack(settings))
	conns.Register(connectors.NewTeams(settings))
	conns.Register(connectors.NewMAM())
	conns.Register(connectors.NewCDN())
	conns.Register(connectors.NewNewsroom())
	conns.Register(archive)
	defer archive.Close()

	registry := agent.NewRegistry()
	agents.RegisterAll(registry, settings, llm, conns)

	b := bus.New(bus.DefaultSubscriptions())
	orch := orchestrator.New(settings, registry, agent.NewRuntime(settings), journal, b)
	registerDefaultSchedules(orch.Scheduler())

	conns.ConnectAll(ctx)
	go healthLoop(ctx, conns)

	orch.Start(ctx)

	router := gateway.NewRouter(registry, llm)
	srv := gateway.NewServer(settings, orch, registry, router, conns)
	if err := srv.Start(ctx); err != nil {
		slog.Error("gateway server failed", "error", err)
	}

	orch.Wait()
	slog.Info("shutdown complete")
}

func setupLogging(settings *config.Settings) {
	level := slog.LevelInfo
	if verbose || settings.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// registerDefaultSchedules installs the standing watch jobs.
func registerDefaultSchedules(sched *orchestrator.Scheduler) {
	sched.Add(&orchestrator.ScheduledJob{
		ID: "trending-scan", AgentKey: "trending", Enabled: true,
		Interval: 5 * time.Minute,
	})
	sched.Add(&orchestrator.ScheduledJob{
		ID: "rights-audit", AgentKey: "rights", Enabled: true,
		CronExpr: "0 6 * * *",
	})
	sched.Add(&orchestrator.ScheduledJob{
		ID: "carbon-report", AgentKey: "carbon", Enabled: true,
		Interval: time.Hour,
	})
	sched.Add(&orchestrator.ScheduledJob{
		ID: "signal-watch", AgentKey: "signal", Enabled: true,
		Interval: time.Minute,
	})
}

func healthLoop(ctx context.Context, conns *connectors.Registry) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for id, h := range conns.HealthCheckAll(ctx) {
				if h.Status != connectors.StatusConnected {
					slog.Warn("connector unhealthy", "connector", id, "status", h.Status, "message", h.Message)
				}
			}
		}
	}
}
