// Package allocation distributes invoiced amounts over product codes and
// rolls the reconciliation tables up into headline totals.
package allocation

import (
	"slices"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
)

// Allocation is the invoiced amount attributed to one product code.
type Allocation struct {
	Code     string          `json:"code"`
	Invoiced decimal.Decimal `json:"invoiced"`
}

// Allocate splits each order's invoiced total over its coded lines in
// proportion to line subtotals and sums the shares per code. An order whose
// coded subtotal is zero or negative allocates nothing.
func Allocate(lines []reconciledomain.CodeLine, invoicedByOrder map[int64]decimal.Decimal) []Allocation {
	denom := make(map[int64]decimal.Decimal)
	for _, l := range lines {
		denom[l.OrderID] = denom[l.OrderID].Add(l.Subtotal)
	}

	byCode := make(map[string]decimal.Decimal)
	var codes []string
	for _, l := range lines {
		if _, ok := byCode[l.Code]; !ok {
			byCode[l.Code] = decimal.Zero
			codes = append(codes, l.Code)
		}
		d := denom[l.OrderID]
		if !d.IsPositive() {
			continue
		}
		share := invoicedByOrder[l.OrderID].Mul(l.Subtotal).Div(d)
		byCode[l.Code] = byCode[l.Code].Add(share)
	}

	slices.Sort(codes)
	out := make([]Allocation, 0, len(codes))
	for _, code := range codes {
		out = append(out, Allocation{Code: code, Invoiced: byCode[code]})
	}
	return out
}

// InvoicedByOrder indexes the posted invoiced amount of each order row.
func InvoicedByOrder(orders []reconciledomain.OrderRow) map[int64]decimal.Decimal {
	out := make(map[int64]decimal.Decimal, len(orders))
	for _, o := range orders {
		out[o.OrderID] = o.Invoiced
	}
	return out
}

// ProductRow compares the nominal value sold for a product against the
// invoiced amount allocated to its code.
type ProductRow struct {
	catalogdomain.Product
	NominalPaid  decimal.Decimal `json:"nominal_paid"`
	Invoiced     decimal.Decimal `json:"invoiced"`
	Difference   decimal.Decimal `json:"difference"`
	OutOfBalance bool            `json:"out_of_balance"`
}

// ProductRows builds one row per product. Products sharing a code each get the
// code's full allocation, matching how the ERP reports them.
func ProductRows(products []catalogdomain.Product, allocations []Allocation, tolerance decimal.Decimal) []ProductRow {
	byCode := make(map[string]decimal.Decimal, len(allocations))
	for _, a := range allocations {
		byCode[a.Code] = a.Invoiced
	}

	rows := make([]ProductRow, 0, len(products))
	for _, p := range products {
		nominal := p.ListPrice.Mul(decimal.NewFromFloat(p.PaidSeats))
		invoiced, ok := byCode[p.Code]
		if !ok {
			invoiced = decimal.Zero
		}
		diff := nominal.Sub(invoiced)
		rows = append(rows, ProductRow{
			Product:      p,
			NominalPaid:  nominal,
			Invoiced:     invoiced,
			Difference:   diff,
			OutOfBalance: diff.Abs().GreaterThan(tolerance),
		})
	}
	return rows
}
