package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

var rootFlags struct {
	verbose  bool
	logLevel string
	timeout  time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "cuadractl",
	Short: "Command line access to the cuadra reports",
	Long: `cuadractl runs the cuadra reports against the configured Odoo server
without the web portal.

The connection is read from the same environment as the server:
  ODOO_URL, ODOO_DB, ODOO_USERNAME, ODOO_PASSWORD`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&rootFlags.verbose, "verbose", "v", false, "Log progress to stderr")
	rootCmd.PersistentFlags().StringVar(&rootFlags.logLevel, "log-level", "info", "Log level when --verbose is set")
	rootCmd.PersistentFlags().DurationVar(&rootFlags.timeout, "timeout", 5*time.Minute, "Abort the command after this long")
}
