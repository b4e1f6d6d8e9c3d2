package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notes-backend/internal/bootstrap"
	"notes-backend/internal/shared/config"
)

// loadApp builds the dependencies a command runs against.
var loadApp = func() (*bootstrap.App, error) {
	return bootstrap.Build(config.Load())
}

var rootCmd = &cobra.Command{
	Use:           "notesctl",
	Short:         "Maintenance commands for the notes backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
