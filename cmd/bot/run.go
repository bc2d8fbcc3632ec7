package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run one bot cycle and exit",
		Long:  "Run one bot cycle: post a farm update if the hourly window allows it, then reply to new mentions. Exits non-zero when the cycle fails.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := setupConfig()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			d, err := buildDeps(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer d.Close()

			report, err := d.bot.RunCycle(ctx)
			if err != nil {
				return fmt.Errorf("cycle %s failed: %w", report.CycleID, err)
			}
			return nil
		},
	}
}
