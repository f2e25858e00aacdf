package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func failedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "failed",
		Short: "Inspect and requeue dead-lettered jobs",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list",
		Short: "List failed jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := a.client.ListFailed(cmd.Context(), limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tQUEUE\tATTEMPTS\tFAILED_AT\tERROR")
			for _, j := range jobs {
				at := ""
				if j.FailedAt != nil {
					at = j.FailedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\t%s\n", j.ID, j.Type, j.Queue, j.Attempts, j.MaxAttempts, at, j.LastError)
			}
			return tw.Flush()
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum jobs to show (0 = all)")

	retry := &cobra.Command{
		Use:   "retry <id>",
		Short: "Move a failed job back to its queue with a fresh attempt budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.client.RetryFailed(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "requeued %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(list, retry)
	return cmd
}
