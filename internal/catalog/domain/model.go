package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Template is a travel package definition.
type Template struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Code             string          `json:"code"`
	Lot              string          `json:"lot"`
	Destination      string          `json:"destination"`
	Transport        string          `json:"transport"`
	Departure        time.Time       `json:"departure,omitzero"`
	DepartureRaw     string          `json:"-"`
	QuotaType        string          `json:"quota_type"`
	StatusCode       *int            `json:"status_code,omitempty"`
	StatusRaw        string          `json:"-"`
	Status           string          `json:"status"`
	TotalSeats       float64         `json:"total_seats"`
	ReservedSeats    float64         `json:"reserved_seats"`
	PaidSeats        float64         `json:"paid_seats"`
	AvailableSeats   float64         `json:"available_seats"`
	ListPrice        decimal.Decimal `json:"list_price"`
	AgencyCommission decimal.Decimal `json:"agency_commission"`
}

// DepartureMonth is the YYYY-MM of the departure date, or "" when unknown.
func (t Template) DepartureMonth() string {
	if t.Departure.IsZero() {
		return ""
	}
	return t.Departure.Format(MonthLayout)
}

// Product is a sellable variant of a template.
type Product struct {
	ID               int64           `json:"id"`
	TemplateID       int64           `json:"template_id"`
	Code             string          `json:"code"`
	Name             string          `json:"name"`
	Lot              string          `json:"lot"`
	Destination      string          `json:"destination"`
	Transport        string          `json:"transport"`
	Departure        time.Time       `json:"departure,omitzero"`
	DepartureRaw     string          `json:"-"`
	StatusCode       *int            `json:"status_code,omitempty"`
	StatusRaw        string          `json:"-"`
	Status           string          `json:"status"`
	QuotaType        string          `json:"quota_type"`
	TotalSeats       float64         `json:"total_seats"`
	ReservedSeats    float64         `json:"reserved_seats"`
	PaidSeats        float64         `json:"paid_seats"`
	AvailableSeats   float64         `json:"available_seats"`
	ListPrice        decimal.Decimal `json:"list_price"`
	AgencyCommission decimal.Decimal `json:"agency_commission"`
}

// Options is the filter vocabulary offered to clients.
type Options struct {
	Statuses        []string `json:"statuses"`
	DefaultStatuses []string `json:"default_statuses"`
	QuotaTypes      []string `json:"quota_types"`
	Lots            []string `json:"lots"`
	Destinations    []string `json:"destinations"`
	DepartureMonths []string `json:"departure_months"`
}
