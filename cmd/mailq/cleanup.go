package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func cleanupCmd(a *app) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete stale completed records and trim the failed list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.client.Cleanup(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "age after which completed records are deleted (default: MAILQ_COMPLETED_TTL)")
	return cmd
}
