package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	cuadraturadomain "github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	"github.com/smallbiznis/cuadra/internal/export"
	"github.com/spf13/cobra"
)

var reconcileFlags struct {
	filter filterFlags
	format string
	table  string
	out    string
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the payment reconciliation for a package selection",
	Long: `reconcile selects packages by the given filters, joins their orders with
invoices and payments, and prints the result.

Formats:
  json  the full report
  csv   one table, chosen with --table (products, orders, payments, allocations)
  pdf   the summary document`,
	Example: `  # Full report for one destination
  cuadractl reconcile --destination "Pucón"

  # Orders of March departures as CSV
  cuadractl reconcile --departure-month 2026-03 --format csv --table orders --out orders.csv

  # Summary PDF
  cuadractl reconcile --lot L12 --format pdf --out cuadratura.pdf`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileFlags.filter.register(reconcileCmd)
	reconcileCmd.Flags().StringVar(&reconcileFlags.format, "format", formatJSON, "Output format: json, csv or pdf")
	reconcileCmd.Flags().StringVar(&reconcileFlags.table, "table", export.TableProducts, "Table written by --format csv")
	reconcileCmd.Flags().StringVarP(&reconcileFlags.out, "out", "o", "", "Output file (default stdout)")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(strings.TrimSpace(reconcileFlags.format))
	switch format {
	case formatJSON, formatCSV, formatPDF:
	default:
		return fmt.Errorf("unknown format %q", reconcileFlags.format)
	}
	filter := reconcileFlags.filter.filter()
	if err := filter.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), rootFlags.timeout)
	defer cancel()

	var svc cuadraturadomain.Service
	stop, err := startApp(ctx, &svc)
	if err != nil {
		return err
	}
	defer stop()

	report, err := svc.Run(ctx, filter)
	if err != nil {
		return err
	}
	if report.Empty {
		fmt.Fprintf(cmd.ErrOrStderr(), "no packages match the selection (%s)\n", report.EmptyReason)
	}
	for _, warning := range report.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}

	switch format {
	case formatCSV:
		t, err := export.CuadraturaTable(report, strings.ToLower(strings.TrimSpace(reconcileFlags.table)))
		if err != nil {
			return fmt.Errorf("table %q: %w", reconcileFlags.table, err)
		}
		return writeTable(reconcileFlags.out, t)
	case formatPDF:
		body, err := export.SummaryPDF(report)
		if err != nil {
			return err
		}
		return writeOutput(reconcileFlags.out, func(w io.Writer) error {
			_, err := w.Write(body)
			return err
		})
	default:
		return writeOutput(reconcileFlags.out, func(w io.Writer) error {
			return writeJSON(w, report)
		})
	}
}
