package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func statsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue lengths, retry set size and failed list size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := a.client.Stats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "QUEUE\tHIGH\tNORMAL\tLOW\tTOTAL")
			for _, q := range st.Queues {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", q.Queue, q.High, q.Normal, q.Low, q.Total())
			}
			fmt.Fprintf(tw, "retry\t\t\t\t%d\n", st.Retry)
			fmt.Fprintf(tw, "failed\t\t\t\t%d\n", st.Failed)
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
