package domain

import (
	"context"

	"github.com/smallbiznis/cuadra/internal/erp"
)

// Repository reads the sales and accounting records joined by the service.
// Every method is a plain read; batching for partial failure tolerance is
// the caller's job.
type Repository interface {
	OrderLines(ctx context.Context, productIDs []int64) ([]OrderLine, error)
	Orders(ctx context.Context, caps erp.Capabilities, orderIDs []int64) ([]Order, error)
	// Invoices returns posted customer invoices among ids.
	Invoices(ctx context.Context, caps erp.Capabilities, ids []int64) ([]Invoice, error)
	// ReceivableLines returns the receivable/payable lines of the given moves.
	ReceivableLines(ctx context.Context, caps erp.Capabilities, moveIDs []int64) ([]MoveLine, error)
	// Partials runs one query for reconciliations touching any of lineIDs.
	Partials(ctx context.Context, caps erp.Capabilities, lineIDs []int64) ([]Partial, error)
	MoveLines(ctx context.Context, ids []int64) ([]MoveLine, error)
	PaymentsByMove(ctx context.Context, moveIDs []int64) ([]Payment, error)
	PaymentsByInvoice(ctx context.Context, invoiceIDs []int64) ([]Payment, error)
}
