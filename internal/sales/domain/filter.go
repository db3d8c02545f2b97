package domain

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"
)

// DateLayout is the calendar date format of the range bounds.
const DateLayout = "2006-01-02"

var (
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrInvalidDate      = errors.New("invalid_date")
)

// Filter selects sales lines. From and To bound date_order inclusively.
// InvoiceStatuses and TeamID are applied by the ERP; the rest in memory.
type Filter struct {
	From            string   `json:"from" form:"from"`
	To              string   `json:"to" form:"to"`
	InvoiceStatuses []string `json:"invoice_statuses" form:"invoice_status"`
	TeamID          int64    `json:"team_id" form:"team_id"`
	QuotaTypes      []string `json:"quota_types" form:"quota_type"`
	Destinations    []string `json:"destinations" form:"destination"`
	Lot             string   `json:"lot" form:"lot"`
	StatusCodes     []int    `json:"status_codes" form:"status_code"`
}

func (f Filter) Normalize() Filter {
	codes := slices.Clone(f.StatusCodes)
	slices.Sort(codes)
	codes = slices.Compact(codes)
	if codes == nil {
		codes = []int{}
	}
	lot := strings.TrimSpace(f.Lot)
	if strings.EqualFold(lot, "todos") || lot == "*" {
		lot = ""
	}
	team := f.TeamID
	if team < 0 {
		team = 0
	}
	return Filter{
		From:            strings.TrimSpace(f.From),
		To:              strings.TrimSpace(f.To),
		InvoiceStatuses: normalizeSet(f.InvoiceStatuses),
		TeamID:          team,
		QuotaTypes:      normalizeSet(f.QuotaTypes),
		Destinations:    normalizeSet(f.Destinations),
		Lot:             lot,
		StatusCodes:     codes,
	}
}

// Range parses the bounds. An empty From defaults to the first day of the
// month of now; an empty To defaults to now.
func (f Filter) Range(now time.Time) (time.Time, time.Time, error) {
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var err error
	if f.From != "" {
		if from, err = time.Parse(DateLayout, f.From); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
	}
	if f.To != "" {
		if to, err = time.Parse(DateLayout, f.To); err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidDateRange
	}
	return from, to, nil
}

func (f Filter) Signature() string {
	raw, _ := json.Marshal(f.Normalize())
	return string(raw)
}

// Matches applies the in-memory dimensions.
func (f Filter) Matches(l Line) bool {
	if len(f.QuotaTypes) > 0 && !slices.Contains(f.QuotaTypes, l.QuotaType) {
		return false
	}
	if len(f.Destinations) > 0 && !slices.Contains(f.Destinations, l.Destination) {
		return false
	}
	if f.Lot != "" && l.Lot != f.Lot {
		return false
	}
	if len(f.StatusCodes) > 0 && (l.StatusCode == nil || !slices.Contains(f.StatusCodes, *l.StatusCode)) {
		return false
	}
	return true
}

func (f Filter) Apply(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if f.Matches(l) {
			out = append(out, l)
		}
	}
	return out
}

func normalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
