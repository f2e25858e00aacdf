package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/UniQw/mailq"
	"github.com/UniQw/mailq/job"
	"github.com/spf13/cobra"
)

func scheduleCmd(a *app) *cobra.Command {
	var (
		cleanupSpec string
		maxAge      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Enqueue recurring cleanup jobs until stopped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cleanupSpec == "" {
				return fmt.Errorf("nothing to schedule: --cleanup is empty")
			}
			s, err := mailq.NewScheduler(a.client, mailq.Recurring{
				Spec:    cleanupSpec,
				Type:    job.TypeCleanup,
				Payload: job.CleanupPayload{Task: "queue", OlderThan: maxAge},
				Opts:    []mailq.Option{mailq.WithPriority(job.PriorityLow)},
			})
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()
			return s.Run(ctx)
		},
	}

	f := cmd.Flags()
	f.StringVar(&cleanupSpec, "cleanup", "@hourly", "cron schedule for queue cleanup jobs")
	f.DurationVar(&maxAge, "max-age", 0, "age passed to each cleanup job (default: MAILQ_COMPLETED_TTL)")
	return cmd
}
