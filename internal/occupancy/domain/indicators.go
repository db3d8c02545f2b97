package domain

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
)

// Percent is paid / total x 100, or 0 when total is not positive.
func Percent(paid, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return paid * 100 / total
}

// BandFor places pct in the configured bands. The high band starts strictly
// above HighAbove; the low band ends strictly below LowBelow.
func BandFor(pct float64, bands config.OccupancyBands) Band {
	switch {
	case pct > bands.HighAbove:
		return BandHigh
	case pct < bands.LowBelow:
		return BandLow
	default:
		return BandMedium
	}
}

// DaysUntil counts calendar days from today to departure. Both are compared
// as dates in the location of today.
func DaysUntil(departure, today time.Time) int {
	loc := today.Location()
	d := time.Date(departure.Year(), departure.Month(), departure.Day(), 0, 0, 0, 0, loc)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc)
	return int(math.Round(d.Sub(t).Hours() / 24))
}

func UrgencyFor(departure, today time.Time, bands config.DepartureBands) (*int, Urgency) {
	if departure.IsZero() {
		return nil, UrgencyUnknown
	}
	days := DaysUntil(departure, today)
	switch {
	case days < 0:
		return &days, UrgencyDeparted
	case days == 0:
		return &days, UrgencyToday
	case days <= bands.UrgentDays:
		return &days, UrgencyUrgent
	case days <= bands.SoonDays:
		return &days, UrgencySoon
	default:
		return &days, UrgencyLater
	}
}

func Summarize(templates []catalogdomain.Template) Indicators {
	var ind Indicators
	for _, t := range templates {
		ind.Packages++
		ind.TotalSeats += t.TotalSeats
		ind.PaidSeats += t.PaidSeats
		ind.ReservedSeats += t.ReservedSeats
		ind.AvailableSeats += t.AvailableSeats
	}
	ind.Occupancy = Percent(ind.PaidSeats, ind.TotalSeats)
	return ind
}

// ByDestination groups templates per destination, least occupied first.
func ByDestination(templates []catalogdomain.Template, bands config.OccupancyBands) []DestinationSummary {
	index := make(map[string]int)
	var out []DestinationSummary
	priceSums := make(map[string]decimal.Decimal)
	for _, t := range templates {
		i, ok := index[t.Destination]
		if !ok {
			i = len(out)
			index[t.Destination] = i
			out = append(out, DestinationSummary{Destination: t.Destination})
		}
		s := &out[i]
		s.Packages++
		s.TotalSeats += t.TotalSeats
		s.PaidSeats += t.PaidSeats
		s.ReservedSeats += t.ReservedSeats
		s.AvailableSeats += t.AvailableSeats
		priceSums[t.Destination] = priceSums[t.Destination].Add(t.ListPrice)
	}
	for i := range out {
		s := &out[i]
		s.AveragePrice = priceSums[s.Destination].Div(decimal.NewFromInt(int64(s.Packages)))
		s.Occupancy = Percent(s.PaidSeats, s.TotalSeats)
		s.Band = BandFor(s.Occupancy, bands)
	}
	slices.SortStableFunc(out, func(a, b DestinationSummary) int {
		if c := cmp.Compare(a.Occupancy, b.Occupancy); c != 0 {
			return c
		}
		return cmp.Compare(a.Destination, b.Destination)
	})
	return out
}

func Packages(templates []catalogdomain.Template, cfg config.DashboardConfig, today time.Time) []Package {
	out := make([]Package, 0, len(templates))
	for _, t := range templates {
		pct := Percent(t.PaidSeats, t.TotalSeats)
		days, urgency := UrgencyFor(t.Departure, today, cfg.Departure)
		out = append(out, Package{
			Template:        t,
			Occupancy:       pct,
			Band:            BandFor(pct, cfg.Occupancy),
			DaysToDeparture: days,
			Urgency:         urgency,
		})
	}
	slices.SortStableFunc(out, func(a, b Package) int {
		return cmp.Compare(a.Code, b.Code)
	})
	return out
}
