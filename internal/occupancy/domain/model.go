package domain

import (
	"time"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
)

const Page = "occupancy"

// Band classifies an occupancy percentage.
type Band string

const (
	BandLow    Band = "low"
	BandMedium Band = "medium"
	BandHigh   Band = "high"
)

// Urgency classifies the time left before departure.
type Urgency string

const (
	UrgencyDeparted Urgency = "departed"
	UrgencyToday    Urgency = "today"
	UrgencyUrgent   Urgency = "urgent"
	UrgencySoon     Urgency = "soon"
	UrgencyLater    Urgency = "later"
	UrgencyUnknown  Urgency = "unknown"
)

// Indicators are the headline seat counts of the selection.
type Indicators struct {
	Packages       int     `json:"packages"`
	TotalSeats     float64 `json:"total_seats"`
	PaidSeats      float64 `json:"paid_seats"`
	ReservedSeats  float64 `json:"reserved_seats"`
	AvailableSeats float64 `json:"available_seats"`
	Occupancy      float64 `json:"occupancy"`
}

type DestinationSummary struct {
	Destination    string          `json:"destination"`
	Packages       int             `json:"packages"`
	TotalSeats     float64         `json:"total_seats"`
	PaidSeats      float64         `json:"paid_seats"`
	ReservedSeats  float64         `json:"reserved_seats"`
	AvailableSeats float64         `json:"available_seats"`
	AveragePrice   decimal.Decimal `json:"average_price"`
	Occupancy      float64         `json:"occupancy"`
	Band           Band            `json:"band"`
}

// Package is one template with its derived occupancy and departure urgency.
type Package struct {
	catalogdomain.Template
	Occupancy       float64 `json:"occupancy"`
	Band            Band    `json:"band"`
	DaysToDeparture *int    `json:"days_to_departure,omitempty"`
	Urgency         Urgency `json:"urgency"`
}

type Report struct {
	Filter       catalogdomain.Filter `json:"filter"`
	Signature    string               `json:"signature"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Empty        bool                 `json:"empty"`
	Indicators   Indicators           `json:"indicators"`
	Destinations []DestinationSummary `json:"destinations"`
	Packages     []Package            `json:"packages"`
}
