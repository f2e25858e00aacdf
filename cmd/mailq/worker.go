package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/UniQw/mailq"
	"github.com/spf13/cobra"
)

func workerCmd(a *app) *cobra.Command {
	var (
		maxJobs        int
		timeoutSec     float64
		sleepSec       float64
		cleanupEvery   int
		handlerTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "worker [queue]",
		Short: "Process jobs from one queue or from all queues",
		Long: "Process jobs until stopped by a signal or a bound. With no queue argument " +
			"every email queue is polled in order: processing, sending, attachments, notifications, cleanup.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			queue := mailq.AllQueues
			if len(args) == 1 {
				queue = args[0]
			}

			// The loop sees the signal at the top of its next iteration.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
			defer stop()

			sleep := seconds(sleepSec)
			if sleep <= 0 {
				sleep = -1
			}
			w := mailq.NewWorker(a.client, newMux(a.log, a.client, handlerTimeout), mailq.WorkerConfig{
				Queue:        queue,
				MaxJobs:      maxJobs,
				Timeout:      seconds(timeoutSec),
				Sleep:        sleep,
				CleanupEvery: cleanupInterval(cleanupEvery),
				Logger:       a.log,
			})
			_, err := w.Run(ctx)
			return err
		},
	}

	f := cmd.Flags()
	f.IntVar(&maxJobs, "max-jobs", 0, "stop after this many jobs (0 = unbounded)")
	f.Float64Var(&timeoutSec, "timeout", 0, "stop after this many seconds (0 = unbounded)")
	f.Float64Var(&sleepSec, "sleep", 1, "seconds to sleep after an empty poll")
	f.IntVar(&cleanupEvery, "cleanup-every", mailq.DefaultCleanupEvery, "run cleanup every N jobs (0 or negative disables)")
	f.DurationVar(&handlerTimeout, "handler-timeout", 0, "deadline for each handler (0 = none)")
	return cmd
}

// cleanupInterval maps the flag onto WorkerConfig, where 0 means the default.
func cleanupInterval(n int) int {
	if n <= 0 {
		return -1
	}
	return n
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
