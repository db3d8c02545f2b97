package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/smallbiznis/cuadra/internal/export"
	occupancydomain "github.com/smallbiznis/cuadra/internal/occupancy/domain"
	"github.com/spf13/cobra"
)

var occupancyFlags struct {
	filter filterFlags
	format string
	out    string
}

var occupancyCmd = &cobra.Command{
	Use:   "occupancy",
	Short: "Print seat occupancy per destination and package",
	Example: `  cuadractl occupancy --status Confirmado
  cuadractl occupancy --departure-month 2026-03 --format csv --out ocupacion.csv`,
	RunE: runOccupancy,
}

func init() {
	rootCmd.AddCommand(occupancyCmd)

	occupancyFlags.filter.register(occupancyCmd)
	occupancyCmd.Flags().StringVar(&occupancyFlags.format, "format", formatJSON, "Output format: json or csv")
	occupancyCmd.Flags().StringVarP(&occupancyFlags.out, "out", "o", "", "Output file (default stdout)")
}

func runOccupancy(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(strings.TrimSpace(occupancyFlags.format))
	if format != formatJSON && format != formatCSV {
		return fmt.Errorf("unknown format %q", occupancyFlags.format)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootFlags.timeout)
	defer cancel()

	var svc occupancydomain.Service
	stop, err := startApp(ctx, &svc)
	if err != nil {
		return err
	}
	defer stop()

	report, err := svc.Report(ctx, occupancyFlags.filter.filter())
	if err != nil {
		return err
	}
	if format == formatCSV {
		return writeTable(occupancyFlags.out, export.OccupancyTable(report))
	}
	return writeOutput(occupancyFlags.out, func(w io.Writer) error {
		return writeJSON(w, report)
	})
}
