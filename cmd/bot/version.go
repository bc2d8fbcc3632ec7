package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gbdavies1992-hash/gomining-bot/internal/platform/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return err
		},
	}
}
