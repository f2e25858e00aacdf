package main

import (
	"encoding/json"
	"fmt"

	"github.com/UniQw/mailq"
	"github.com/UniQw/mailq/job"
	"github.com/spf13/cobra"
)

func enqueueCmd(a *app) *cobra.Command {
	var (
		queue       string
		priority    string
		maxAttempts int
		id          string
	)

	cmd := &cobra.Command{
		Use:   "enqueue <type> <payload-json>",
		Short: "Add a job to its queue",
		Example: `  mailq enqueue email_sending '{"message_id":"m1","to":["a@example.com"]}' --priority high
  mailq enqueue cleanup '{"task":"queue"}' --priority low`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := job.ParseType(args[0])
			if err != nil {
				return err
			}
			p, err := job.ParsePriority(priority)
			if err != nil {
				return err
			}
			payload := []byte(args[1])
			if !json.Valid(payload) {
				return fmt.Errorf("payload is not valid JSON")
			}

			opts := []mailq.Option{mailq.WithPriority(p)}
			if queue != "" {
				opts = append(opts, mailq.Queue(queue))
			}
			if maxAttempts > 0 {
				opts = append(opts, mailq.MaxAttempts(maxAttempts))
			}
			if id != "" {
				opts = append(opts, mailq.JobID(id))
			}

			j, err := a.client.EnqueueJob(cmd.Context(), t, json.RawMessage(payload), opts...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", j.ID, j.Queue, j.Priority)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&queue, "queue", "", "queue name (default: the type's queue)")
	f.StringVar(&priority, "priority", string(job.PriorityNormal), "high, normal or low")
	f.IntVar(&maxAttempts, "max-attempts", 0, "attempt budget (default: per type)")
	f.StringVar(&id, "id", "", "job id (default: random UUID)")
	return cmd
}
