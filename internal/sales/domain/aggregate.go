package domain

import (
	"cmp"
	"slices"
)

type accumulator struct {
	totals Totals
	orders map[int64]struct{}
}

func (a *accumulator) add(l Line) {
	if a.orders == nil {
		a.orders = make(map[int64]struct{})
	}
	a.totals.Sales = a.totals.Sales.Add(l.Subtotal)
	a.totals.Commission = a.totals.Commission.Add(l.Commission)
	a.totals.Passengers += l.Passengers
	a.orders[l.OrderID] = struct{}{}
	a.totals.Orders = len(a.orders)
}

// Total sums lines. Sales is the sum of line subtotals so an order with
// several packages is counted once per package, never once per line total.
func Total(lines []Line) Totals {
	var acc accumulator
	for _, l := range lines {
		acc.add(l)
	}
	return acc.totals
}

func Summarize(lines []Line) Summary {
	var all, invoiced, toInvoice accumulator
	for _, l := range lines {
		all.add(l)
		switch l.InvoiceStatus {
		case InvoiceStatusInvoiced:
			invoiced.add(l)
		case InvoiceStatusToInvoice:
			toInvoice.add(l)
		}
	}
	return Summary{All: all.totals, Invoiced: invoiced.totals, ToInvoice: toInvoice.totals}
}

// ByDestination sorts by sales, highest first.
func ByDestination(lines []Line) []DestinationSummary {
	keys, groups := group(lines, func(l Line) string { return l.Destination })
	out := make([]DestinationSummary, 0, len(keys))
	for _, k := range keys {
		out = append(out, DestinationSummary{Destination: k, Totals: groups[k].totals})
	}
	slices.SortStableFunc(out, func(a, b DestinationSummary) int {
		if c := b.Sales.Cmp(a.Sales); c != 0 {
			return c
		}
		return cmp.Compare(a.Destination, b.Destination)
	})
	return out
}

// ByPackage groups by product code. Seat counts come from the first line
// of each package.
func ByPackage(lines []Line) []PackageSummary {
	first := make(map[string]Line)
	keys, groups := group(lines, func(l Line) string {
		if _, ok := first[l.ProductCode]; !ok {
			first[l.ProductCode] = l
		}
		return l.ProductCode
	})
	out := make([]PackageSummary, 0, len(keys))
	for _, k := range keys {
		l := first[k]
		out = append(out, PackageSummary{
			ProductCode:    k,
			ProductName:    l.ProductName,
			Destination:    l.Destination,
			Lot:            l.Lot,
			Departure:      l.Departure,
			Status:         l.Status,
			TotalSeats:     l.TotalSeats,
			ReservedSeats:  l.ReservedSeats,
			PaidSeats:      l.PaidSeats,
			AvailableSeats: l.AvailableSeats,
			Totals:         groups[k].totals,
		})
	}
	slices.SortStableFunc(out, func(a, b PackageSummary) int {
		if c := b.Sales.Cmp(a.Sales); c != 0 {
			return c
		}
		return cmp.Compare(a.ProductCode, b.ProductCode)
	})
	return out
}

// ByAgency sorts by commission, highest first.
func ByAgency(lines []Line) []AgencySummary {
	names := make(map[int64]string)
	_, groups := group(lines, func(l Line) int64 {
		if _, ok := names[l.TeamID]; !ok {
			names[l.TeamID] = l.Team
		}
		return l.TeamID
	})
	out := make([]AgencySummary, 0, len(groups))
	for id, acc := range groups {
		out = append(out, AgencySummary{TeamID: id, Team: names[id], Totals: acc.totals})
	}
	slices.SortFunc(out, func(a, b AgencySummary) int {
		if c := b.Commission.Cmp(a.Commission); c != 0 {
			return c
		}
		return cmp.Compare(a.Team, b.Team)
	})
	return out
}

func group[K comparable](lines []Line, key func(Line) K) ([]K, map[K]*accumulator) {
	var keys []K
	groups := make(map[K]*accumulator)
	for _, l := range lines {
		k := key(l)
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
			keys = append(keys, k)
		}
		acc.add(l)
	}
	return keys, groups
}
