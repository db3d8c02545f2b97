package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	PageDestinations = "sales_destinations"
	PageAgencies     = "sales_agencies"
)

// Invoice statuses of sale.order that split the headline totals.
const (
	InvoiceStatusInvoiced  = "invoiced"
	InvoiceStatusToInvoice = "to invoice"
)

// NoTeam labels orders without a sales team.
const NoTeam = "Sin Agencia"

type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Line is one sold package line with its order and product attributes.
type Line struct {
	OrderID            int64           `json:"order_id"`
	Order              string          `json:"order"`
	Customer           string          `json:"customer"`
	Date               time.Time       `json:"date"`
	InvoiceStatus      string          `json:"invoice_status"`
	InvoiceStatusLabel string          `json:"invoice_status_label"`
	OrderTotal         decimal.Decimal `json:"order_total"`
	Salesperson        string          `json:"salesperson"`
	TeamID             int64           `json:"team_id"`
	Team               string          `json:"team"`
	ProductID          int64           `json:"product_id"`
	ProductCode        string          `json:"product_code"`
	ProductName        string          `json:"product_name"`
	Lot                string          `json:"lot"`
	Destination        string          `json:"destination"`
	Transport          string          `json:"transport"`
	Departure          time.Time       `json:"departure,omitzero"`
	QuotaType          string          `json:"quota_type"`
	StatusCode         *int            `json:"status_code,omitempty"`
	StatusRaw          string          `json:"-"`
	Status             string          `json:"status"`
	TotalSeats         float64         `json:"total_seats"`
	ReservedSeats      float64         `json:"reserved_seats"`
	PaidSeats          float64         `json:"paid_seats"`
	AvailableSeats     float64         `json:"available_seats"`
	Passengers         float64         `json:"passengers"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	UnitCommission     decimal.Decimal `json:"unit_commission"`
	Commission         decimal.Decimal `json:"commission"`
}

// Totals aggregates lines. Orders counts distinct orders.
type Totals struct {
	Sales      decimal.Decimal `json:"sales"`
	Commission decimal.Decimal `json:"commission"`
	Passengers float64         `json:"passengers"`
	Orders     int             `json:"orders"`
}

// Summary splits the headline totals by invoice status.
type Summary struct {
	All       Totals `json:"all"`
	Invoiced  Totals `json:"invoiced"`
	ToInvoice Totals `json:"to_invoice"`
}

type DestinationSummary struct {
	Destination string `json:"destination"`
	Totals
}

type PackageSummary struct {
	ProductCode    string    `json:"product_code"`
	ProductName    string    `json:"product_name"`
	Destination    string    `json:"destination"`
	Lot            string    `json:"lot"`
	Departure      time.Time `json:"departure,omitzero"`
	Status         string    `json:"status"`
	TotalSeats     float64   `json:"total_seats"`
	ReservedSeats  float64   `json:"reserved_seats"`
	PaidSeats      float64   `json:"paid_seats"`
	AvailableSeats float64   `json:"available_seats"`
	Totals
}

type AgencySummary struct {
	TeamID int64  `json:"team_id"`
	Team   string `json:"team"`
	Totals
}

type DestinationReport struct {
	Filter       Filter               `json:"filter"`
	Signature    string               `json:"signature"`
	GeneratedAt  time.Time            `json:"generated_at"`
	Empty        bool                 `json:"empty"`
	Summary      Summary              `json:"summary"`
	Destinations []DestinationSummary `json:"destinations"`
	Packages     []PackageSummary     `json:"packages"`
	Lines        []Line               `json:"lines"`
}

type AgencyReport struct {
	Filter      Filter          `json:"filter"`
	Signature   string          `json:"signature"`
	GeneratedAt time.Time       `json:"generated_at"`
	Empty       bool            `json:"empty"`
	Totals      Totals          `json:"totals"`
	Agencies    []AgencySummary `json:"agencies"`
	Lines       []Line          `json:"lines"`
}
