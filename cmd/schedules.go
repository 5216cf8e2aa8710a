package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mediaiq/miq/internal/orchestrator"
)

func schedulesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedules",
		Short: "List the default scheduled jobs",
		Run: func(cmd *cobra.Command, args []string) {
			runSchedules()
		},
	}
}

func runSchedules() {
	sched := orchestrator.NewScheduler(func(string, any, string) {})
	registerDefaultSchedules(sched)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAGENT\tWHEN\tENABLED")
	for _, job := range sched.List() {
		when := job.CronExpr
		if when == "" {
			when = "every " + job.Interval.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", job.ID, job.AgentKey, when, job.Enabled)
	}
	w.Flush()
}
