package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderStateCancel    = "cancel"
	MoveStatePosted     = "posted"
	PaymentStatePaid    = "paid"
	PaymentStatePartial = "partial"
)

// CustomerMoveTypes are the invoice move types that carry customer debt.
var CustomerMoveTypes = []string{"out_invoice", "out_refund", "out_receipt"}

type OrderLine struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Name      string
	Quantity  float64
	Subtotal  decimal.Decimal
}

type Order struct {
	ID            int64
	Name          string
	State         string
	Customer      string
	Salesperson   string
	Team          string
	DateOrder     time.Time
	AmountTotal   decimal.Decimal
	InvoiceStatus string
	InvoiceIDs    []int64
}

type Invoice struct {
	ID           int64
	Name         string
	MoveType     string
	Customer     string
	Origin       string
	Date         time.Time
	State        string
	PaymentState string
	Total        decimal.Decimal
	Residual     decimal.Decimal
	TotalSigned  decimal.Decimal
	Currency     string
}

// Owed is the residual, never negative.
func (i Invoice) Owed() decimal.Decimal {
	if i.Residual.IsNegative() {
		return decimal.Zero
	}
	return i.Residual
}

// Paid is the total minus what is still owed.
func (i Invoice) Paid() decimal.Decimal {
	return i.Total.Sub(i.Owed())
}

// MoveLine is a ledger line and the move that owns it.
type MoveLine struct {
	ID     int64
	MoveID int64
}

// Partial is one partial reconciliation between a debit and a credit line.
type Partial struct {
	ID           int64
	DebitLineID  int64
	CreditLineID int64
	Amount       decimal.Decimal
	Date         time.Time
}

type Payment struct {
	ID                   int64
	Name                 string
	Date                 time.Time
	Amount               decimal.Decimal
	PaymentType          string
	Customer             string
	Journal              string
	Reference            string
	MoveID               int64
	State                string
	ReconciledInvoiceIDs []int64
}

// OrderRow aggregates one sale order over its qualifying lines and posted
// invoices.
type OrderRow struct {
	OrderID           int64           `json:"order_id"`
	Order             string          `json:"order"`
	State             string          `json:"state"`
	Customer          string          `json:"customer"`
	DateOrder         time.Time       `json:"date_order,omitzero"`
	Agency            string          `json:"agency"`
	Salesperson       string          `json:"salesperson"`
	InvoiceStatus     string          `json:"invoice_status"`
	InvoiceStatusCode string          `json:"invoice_status_code"`
	Codes             []string        `json:"codes"`
	Products          []string        `json:"products"`
	Quantity          int64           `json:"quantity"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	InvoiceIDs        []int64         `json:"invoice_ids"`
	Invoiced          decimal.Decimal `json:"invoiced"`
	Paid              decimal.Decimal `json:"paid"`
	Owed              decimal.Decimal `json:"owed"`
	PaymentStates     []string        `json:"payment_states"`
}

func (o OrderRow) Cancelled() bool { return o.State == OrderStateCancel }

// CodeLine is one qualifying order line carrying a product code.
type CodeLine struct {
	OrderID  int64           `json:"order_id"`
	Order    string          `json:"order"`
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// PaymentRow is one payment application to one invoice. Payment fields are
// empty when enrichment found no payment record for the move.
type PaymentRow struct {
	InvoiceID           int64           `json:"invoice_id"`
	Invoice             string          `json:"invoice"`
	InvoiceOrigin       string          `json:"invoice_origin"`
	InvoicePaymentState string          `json:"invoice_payment_state"`
	PaymentMoveID       int64           `json:"payment_move_id,omitempty"`
	ReconciledAt        time.Time       `json:"reconciled_at,omitzero"`
	Applied             decimal.Decimal `json:"applied"`
	Customer            string          `json:"customer"`
	PaymentID           int64           `json:"payment_id,omitempty"`
	Payment             string          `json:"payment"`
	PaymentDate         time.Time       `json:"payment_date,omitzero"`
	PaymentAmount       decimal.Decimal `json:"payment_amount"`
	Journal             string          `json:"journal"`
	Reference           string          `json:"reference"`
	Codes               []string        `json:"codes,omitempty"`
}

// Source tells which path produced the payment applications.
type Source string

const (
	SourceReconcile Source = "reconcile"
	SourceFallback  Source = "fallback"
	SourceNone      Source = "none"
)

// BatchStats counts the partial-reconciliation batches sent and failed.
type BatchStats struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

type Applications struct {
	Rows             []PaymentRow
	AppliedByInvoice map[int64]decimal.Decimal
	Source           Source
	FallbackReason   string
	Batches          BatchStats
	Warnings         []string
}

type JoinResult struct {
	Orders    []OrderRow
	CodeLines []CodeLine
	Invoices  []Invoice
	Applications
}
