package domain

import (
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// MonthLayout is the departure month format used by filters.
const MonthLayout = "2006-01"

// Filter selects templates. Dimensions are ANDed; values within a
// multi-select dimension are ORed. Empty dimensions match everything.
type Filter struct {
	Statuses        []string `json:"statuses" form:"status"`
	QuotaTypes      []string `json:"quota_types" form:"quota_type"`
	Lot             string   `json:"lot" form:"lot"`
	Destinations    []string `json:"destinations" form:"destination"`
	DepartureMonths []string `json:"departure_months" form:"departure_month"`
	ProductCode     string   `json:"product_code" form:"product_code"`
}

// Normalize trims, deduplicates and sorts every dimension.
func (f Filter) Normalize() Filter {
	return Filter{
		Statuses:        normalizeSet(f.Statuses),
		QuotaTypes:      normalizeSet(f.QuotaTypes),
		Lot:             normalizeLot(f.Lot),
		Destinations:    normalizeSet(f.Destinations),
		DepartureMonths: normalizeSet(f.DepartureMonths),
		ProductCode:     strings.TrimSpace(f.ProductCode),
	}
}

// Validate checks value formats.
func (f Filter) Validate() error {
	for _, m := range f.DepartureMonths {
		if _, err := time.Parse(MonthLayout, strings.TrimSpace(m)); err != nil {
			return ErrInvalidDepartureMonth
		}
	}
	return nil
}

// Signature is a canonical key for the filter: two filters selecting the
// same values produce the same signature regardless of order or spacing.
func (f Filter) Signature() string {
	raw, _ := json.Marshal(f.Normalize())
	return string(raw)
}

// Matches reports whether t passes every dimension. Template.Status must
// already hold the resolved label.
func (f Filter) Matches(t Template) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if len(f.QuotaTypes) > 0 && !slices.Contains(f.QuotaTypes, t.QuotaType) {
		return false
	}
	if f.Lot != "" && t.Lot != f.Lot {
		return false
	}
	if len(f.Destinations) > 0 && !slices.Contains(f.Destinations, t.Destination) {
		return false
	}
	if len(f.DepartureMonths) > 0 {
		month := t.DepartureMonth()
		if month == "" || !slices.Contains(f.DepartureMonths, month) {
			return false
		}
	}
	return true
}

// Apply returns the matching templates in input order.
func (f Filter) Apply(templates []Template) []Template {
	nf := f.Normalize()
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if nf.Matches(t) {
			out = append(out, t)
		}
	}
	return out
}

// Select returns the sorted, distinct ids of the matching templates.
func Select(templates []Template, f Filter) []int64 {
	matched := f.Apply(templates)
	ids := make([]int64, 0, len(matched))
	for _, t := range matched {
		ids = append(ids, t.ID)
	}
	slices.Sort(ids)
	return slices.Compact(ids)
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// normalizeLot maps the "all lots" sentinels to empty.
func normalizeLot(lot string) string {
	lot = strings.TrimSpace(lot)
	switch strings.ToLower(lot) {
	case "todos", "all", "*":
		return ""
	}
	return lot
}
