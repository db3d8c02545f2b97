package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/export"
	"github.com/spf13/cobra"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatPDF  = "pdf"
)

type filterFlags struct {
	statuses        []string
	quotaTypes      []string
	lot             string
	destinations    []string
	departureMonths []string
	productCode     string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "Package status label, repeatable")
	cmd.Flags().StringSliceVar(&f.quotaTypes, "quota-type", nil, "Quota type, repeatable")
	cmd.Flags().StringVar(&f.lot, "lot", "", "Lot name (empty or \"todos\" for all)")
	cmd.Flags().StringSliceVar(&f.destinations, "destination", nil, "Destination, repeatable")
	cmd.Flags().StringSliceVar(&f.departureMonths, "departure-month", nil, "Departure month as YYYY-MM, repeatable")
	cmd.Flags().StringVar(&f.productCode, "product-code", "", "Restrict products to this code")
}

func (f *filterFlags) filter() catalogdomain.Filter {
	return catalogdomain.Filter{
		Statuses:        f.statuses,
		QuotaTypes:      f.quotaTypes,
		Lot:             f.lot,
		Destinations:    f.destinations,
		DepartureMonths: f.departureMonths,
		ProductCode:     f.productCode,
	}.Normalize()
}

// openOutput returns stdout when path is empty or "-".
func openOutput(path string) (io.Writer, func() error, error) {
	path = strings.TrimSpace(path)
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, f.Close, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeOutput(path string, fn func(io.Writer) error) error {
	w, closeFn, err := openOutput(path)
	if err != nil {
		return err
	}
	if err := fn(w); err != nil {
		_ = closeFn()
		return err
	}
	return closeFn()
}

func writeTable(path string, t export.Table) error {
	return writeOutput(path, func(w io.Writer) error {
		return export.CSV(w, t)
	})
}
