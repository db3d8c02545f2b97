package allocation

import (
	"strings"

	"github.com/shopspring/decimal"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
)

// Totals are the headline figures of a reconciliation report.
type Totals struct {
	Products        int     `json:"products"`
	PaidSeats       float64 `json:"paid_seats"`
	OrderSeats      int64   `json:"order_seats"`
	Orders          int     `json:"orders"`
	PaidOrders      int     `json:"paid_orders"`
	PartialOrders   int     `json:"partial_orders"`
	ToInvoiceOrders int     `json:"to_invoice_orders"`
	ToPayOrders     int     `json:"to_pay_orders"`
	CancelledOrders int     `json:"cancelled_orders"`

	NominalPaid       decimal.Decimal `json:"nominal_paid"`
	Invoiced          decimal.Decimal `json:"invoiced"`
	NominalDifference decimal.Decimal `json:"nominal_difference"`
	Paid              decimal.Decimal `json:"paid"`
	Owed              decimal.Decimal `json:"owed"`

	AppliedPaid    decimal.Decimal `json:"applied_paid"`
	AppliedPartial decimal.Decimal `json:"applied_partial"`
	Applied        decimal.Decimal `json:"applied"`
	PaymentsDetail decimal.Decimal `json:"payments_detail"`
	UniquePayments decimal.Decimal `json:"unique_payments"`
	AppliedGap     decimal.Decimal `json:"applied_gap"`

	OutOfBalanceProducts int `json:"out_of_balance_products"`
}

// Summarize rolls up products, orders and payment applications. Money sums
// cover every order; cancelled orders are excluded only from the order
// counts. Paid, partial and to-invoice split orders by invoicing state.
// To-pay counts every order with an outstanding balance, whatever its
// invoicing state.
func Summarize(products []ProductRow, orders []reconciledomain.OrderRow, payments []reconciledomain.PaymentRow) Totals {
	t := Totals{
		NominalPaid:    decimal.Zero,
		Invoiced:       decimal.Zero,
		Paid:           decimal.Zero,
		Owed:           decimal.Zero,
		AppliedPaid:    decimal.Zero,
		AppliedPartial: decimal.Zero,
		Applied:        decimal.Zero,
		PaymentsDetail: decimal.Zero,
		UniquePayments: decimal.Zero,
	}

	t.Products = len(products)
	for _, p := range products {
		t.PaidSeats += p.PaidSeats
		t.NominalPaid = t.NominalPaid.Add(p.NominalPaid)
		if p.OutOfBalance {
			t.OutOfBalanceProducts++
		}
	}

	t.Orders = len(orders)
	for _, o := range orders {
		t.Invoiced = t.Invoiced.Add(o.Invoiced)
		t.Paid = t.Paid.Add(o.Paid)
		t.Owed = t.Owed.Add(o.Owed)
		t.OrderSeats += o.Quantity

		if o.Cancelled() {
			t.CancelledOrders++
			continue
		}
		if o.Owed.IsPositive() {
			t.ToPayOrders++
		}
		switch {
		case !o.Invoiced.IsPositive():
			t.ToInvoiceOrders++
		case o.Owed.IsPositive():
			t.PartialOrders++
		default:
			t.PaidOrders++
		}
	}
	t.NominalDifference = t.NominalPaid.Sub(t.Invoiced)

	seen := make(map[int64]struct{})
	for _, p := range payments {
		t.Applied = t.Applied.Add(p.Applied)
		t.PaymentsDetail = t.PaymentsDetail.Add(p.PaymentAmount)
		switch strings.ToLower(p.InvoicePaymentState) {
		case reconciledomain.PaymentStatePaid:
			t.AppliedPaid = t.AppliedPaid.Add(p.Applied)
		case reconciledomain.PaymentStatePartial:
			t.AppliedPartial = t.AppliedPartial.Add(p.Applied)
		}
		if p.PaymentID == 0 {
			continue
		}
		if _, ok := seen[p.PaymentID]; ok {
			continue
		}
		seen[p.PaymentID] = struct{}{}
		t.UniquePayments = t.UniquePayments.Add(p.PaymentAmount)
	}
	t.AppliedGap = t.Applied.Sub(t.Paid)
	return t
}
