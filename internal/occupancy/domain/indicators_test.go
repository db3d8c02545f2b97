package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 50.0, Percent(20, 40))
}

func TestBandFor(t *testing.T) {
	bands := config.OccupancyBands{LowBelow: 50, HighAbove: 80}
	tests := []struct {
		pct  float64
		want Band
	}{
		{pct: 0, want: BandLow},
		{pct: 49.9, want: BandLow},
		{pct: 50, want: BandMedium},
		{pct: 80, want: BandMedium},
		{pct: 80.1, want: BandHigh},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BandFor(tt.pct, bands), "pct %v", tt.pct)
	}
}

func TestUrgencyFor(t *testing.T) {
	bands := config.DepartureBands{UrgentDays: 7, SoonDays: 30}
	today := time.Date(2026, 3, 1, 18, 30, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	tests := []struct {
		name      string
		departure time.Time
		wantDays  int
		want      Urgency
	}{
		{name: "departed", departure: day(2026, 2, 27), wantDays: -2, want: UrgencyDeparted},
		{name: "today", departure: day(2026, 3, 1), wantDays: 0, want: UrgencyToday},
		{name: "urgent", departure: day(2026, 3, 8), wantDays: 7, want: UrgencyUrgent},
		{name: "soon", departure: day(2026, 3, 31), wantDays: 30, want: UrgencySoon},
		{name: "later", departure: day(2026, 4, 1), wantDays: 31, want: UrgencyLater},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, urgency := UrgencyFor(tt.departure, today, bands)
			require.NotNil(t, days)
			assert.Equal(t, tt.wantDays, *days)
			assert.Equal(t, tt.want, urgency)
		})
	}

	days, urgency := UrgencyFor(time.Time{}, today, bands)
	assert.Nil(t, days)
	assert.Equal(t, UrgencyUnknown, urgency)
}

func TestSummarizeAndByDestination(t *testing.T) {
	templates := []catalogdomain.Template{
		{ID: 1, Code: "A1", Destination: "Pucón", TotalSeats: 40, PaidSeats: 36, ReservedSeats: 2, AvailableSeats: 2, ListPrice: decimal.NewFromInt(300000)},
		{ID: 2, Code: "A2", Destination: "Pucón", TotalSeats: 40, PaidSeats: 30, ReservedSeats: 5, AvailableSeats: 5, ListPrice: decimal.NewFromInt(500000)},
		{ID: 3, Code: "B1", Destination: "Arica", TotalSeats: 20, PaidSeats: 5, AvailableSeats: 15, ListPrice: decimal.NewFromInt(200000)},
		{ID: 4, Code: "C1", Destination: "Chiloé"},
	}

	ind := Summarize(templates)
	assert.Equal(t, 4, ind.Packages)
	assert.Equal(t, 100.0, ind.TotalSeats)
	assert.Equal(t, 71.0, ind.PaidSeats)
	assert.Equal(t, 71.0, ind.Occupancy)

	dest := ByDestination(templates, config.OccupancyBands{LowBelow: 50, HighAbove: 80})
	require.Len(t, dest, 3)
	assert.Equal(t, "Chiloé", dest[0].Destination)
	assert.Equal(t, 0.0, dest[0].Occupancy)
	assert.Equal(t, "Arica", dest[1].Destination)
	assert.Equal(t, BandLow, dest[1].Band)
	assert.Equal(t, "Pucón", dest[2].Destination)
	assert.Equal(t, 2, dest[2].Packages)
	assert.Equal(t, 82.5, dest[2].Occupancy)
	assert.Equal(t, BandHigh, dest[2].Band)
	assert.True(t, decimal.NewFromInt(400000).Equal(dest[2].AveragePrice))
}

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, Indicators{}, Summarize(nil))
	assert.Empty(t, ByDestination(nil, config.OccupancyBands{}))
	assert.Empty(t, Packages(nil, config.DefaultDashboardConfig(), time.Now()))
}
