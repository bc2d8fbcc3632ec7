package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the post marker, the gate decision for now and the ledger size",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setupConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			d, err := buildDeps(ctx, cfg, false)
			if err != nil {
				return err
			}
			defer d.Close()

			st, err := d.bot.Status(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			marker := st.Marker
			if marker == "" {
				marker = "(none)"
			}
			fmt.Fprintf(out, "Backend:      %s\n", cfg.StateBackend)
			fmt.Fprintf(out, "Now:          %s\n", st.Now.Format("2006-01-02 15:04 MST"))
			fmt.Fprintf(out, "Active hours: %02d:00-%02d:59 %s\n", st.ActiveHours[0], st.ActiveHours[1], st.Location)
			fmt.Fprintf(out, "Last post:    %s\n", marker)
			fmt.Fprintf(out, "Post now:     %s\n", describeDecision(st.Decision))
			fmt.Fprintf(out, "Replied to:   %d mention(s)\n", st.LedgerSize)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print status as JSON")
	return cmd
}
