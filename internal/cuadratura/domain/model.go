package domain

import (
	"time"

	"github.com/smallbiznis/cuadra/internal/allocation"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
)

// Page names the report in caches, run history and metrics.
const Page = "cuadratura"

// Empty-result reasons.
const (
	EmptyNoTemplates = "no_templates"
	EmptyNoProducts  = "no_products"
)

// Report is the payment reconciliation of one filter selection.
type Report struct {
	Filter      catalogdomain.Filter `json:"filter"`
	Signature   string               `json:"signature"`
	GeneratedAt time.Time            `json:"generated_at"`

	Empty       bool   `json:"empty"`
	EmptyReason string `json:"empty_reason,omitempty"`

	Source         reconciledomain.Source     `json:"source"`
	FallbackReason string                     `json:"fallback_reason,omitempty"`
	Batches        reconciledomain.BatchStats `json:"batches"`
	Warnings       []string                   `json:"warnings,omitempty"`

	Products    []allocation.ProductRow      `json:"products"`
	Orders      []reconciledomain.OrderRow   `json:"orders"`
	Payments    []reconciledomain.PaymentRow `json:"payments"`
	Allocations []allocation.Allocation      `json:"allocations"`
	Totals      allocation.Totals            `json:"totals"`
}
