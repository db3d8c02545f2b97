package main

import (
	"context"
	"fmt"
	"os"

	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check the ERP connection and print its capabilities",
	Long: `probe reads the server version, authenticates with the configured user
and reports which optional reconciliation models the server exposes.`,
	Example: `  cuadractl probe
  cuadractl probe -v --log-level debug`,
	RunE: runProbe,
}

func init() {
	rootCmd.AddCommand(probeCmd)
}

type probeResult struct {
	Version      erp.VersionInfo  `json:"version"`
	Capabilities erp.Capabilities `json:"capabilities"`
	CanReconcile bool             `json:"can_reconcile"`
	CanFallback  bool             `json:"can_fallback"`
}

func runProbe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rootFlags.timeout)
	defer cancel()

	var (
		client *erp.Client
		log    *zap.Logger
	)
	stop, err := startApp(ctx, &client, &log)
	if err != nil {
		return err
	}
	defer stop()

	info, err := client.Version(ctx)
	if err != nil {
		return fmt.Errorf("read server version: %w", err)
	}
	if err := client.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	caps, err := erp.Negotiate(ctx, client, log)
	if err != nil {
		return fmt.Errorf("negotiate capabilities: %w", err)
	}

	return writeJSON(os.Stdout, probeResult{
		Version:      info,
		Capabilities: caps,
		CanReconcile: caps.CanReconcile(),
		CanFallback:  caps.CanFallback(),
	})
}
