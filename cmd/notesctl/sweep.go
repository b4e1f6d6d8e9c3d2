package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"notes-backend/internal/retention"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete audio older than the retention window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		runner := &retention.Runner{Sweeper: app.NotesService}
		n, err := runner.RunOnce(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared audio from %d notes\n", n)
		return nil
	},
}

var purgeCmd = &cobra.Command{
	Use:   "purge-summarized",
	Short: "Delete audio from every note that already has a summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := loadApp()
		if err != nil {
			return err
		}
		n, err := app.NotesService.PurgeSummarized(cmd.Context())
		if err != nil {
			return fmt.Errorf("purge: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "cleared audio from %d notes\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd, purgeCmd)
}
