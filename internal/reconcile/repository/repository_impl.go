package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/reconcile/domain"
)

type orderLineRecord struct {
	ID       int64        `json:"id"`
	Order    erp.Many2One `json:"order_id"`
	Product  erp.Many2One `json:"product_id"`
	Name     erp.Text     `json:"name"`
	Quantity erp.Float    `json:"product_uom_qty"`
	Subtotal erp.Amount   `json:"price_subtotal"`
}

type orderRecord struct {
	ID            int64        `json:"id"`
	Name          erp.Text     `json:"name"`
	State         erp.Text     `json:"state"`
	Partner       erp.Many2One `json:"partner_id"`
	User          erp.Many2One `json:"user_id"`
	Team          erp.Many2One `json:"team_id"`
	DateOrder     erp.Date     `json:"date_order"`
	AmountTotal   erp.Amount   `json:"amount_total"`
	InvoiceStatus erp.Text     `json:"invoice_status"`
	InvoiceIDs    erp.IDList   `json:"invoice_ids"`
}

type invoiceRecord struct {
	ID                 int64        `json:"id"`
	Name               erp.Text     `json:"name"`
	MoveType           erp.Text     `json:"move_type"`
	Partner            erp.Many2One `json:"partner_id"`
	Origin             erp.Text     `json:"invoice_origin"`
	Date               erp.Date     `json:"invoice_date"`
	State              erp.Text     `json:"state"`
	PaymentState       erp.Text     `json:"payment_state"`
	LegacyPaymentState erp.Text     `json:"invoice_payment_state"`
	Total              erp.Amount   `json:"amount_total"`
	Residual           erp.Amount   `json:"amount_residual"`
	TotalSigned        erp.Amount   `json:"amount_total_signed"`
	Currency           erp.Many2One `json:"currency_id"`
}

type moveLineRecord struct {
	ID   int64        `json:"id"`
	Move erp.Many2One `json:"move_id"`
}

type partialRecord struct {
	ID             int64        `json:"id"`
	Debit          erp.Many2One `json:"debit_move_id"`
	Credit         erp.Many2One `json:"credit_move_id"`
	Amount         erp.Amount   `json:"amount"`
	AmountCurrency erp.Amount   `json:"amount_currency"`
	MaxDate        erp.Date     `json:"max_date"`
	CreateDate     erp.Date     `json:"create_date"`
}

type paymentRecord struct {
	ID                   int64        `json:"id"`
	Name                 erp.Text     `json:"name"`
	Date                 erp.Date     `json:"date"`
	Amount               erp.Amount   `json:"amount"`
	PaymentType          erp.Text     `json:"payment_type"`
	Partner              erp.Many2One `json:"partner_id"`
	Journal              erp.Many2One `json:"journal_id"`
	Ref                  erp.Text     `json:"ref"`
	Move                 erp.Many2One `json:"move_id"`
	State                erp.Text     `json:"state"`
	ReconciledInvoiceIDs erp.IDList   `json:"reconciled_invoice_ids"`
}

var (
	orderLineFields = []string{"id", "order_id", "product_id", "product_uom_qty", "price_subtotal", "name"}
	orderFields     = []string{"id", "name", "partner_id", "date_order", "amount_total", "invoice_status", "user_id", "team_id", "state"}
	invoiceFields   = []string{"id", "name", "move_type", "partner_id", "invoice_origin", "invoice_date", "amount_total"}
	moveLineFields  = []string{"id", "move_id"}
	paymentFields   = []string{"id", "name", "date", "amount", "payment_type", "partner_id", "ref", "journal_id", "move_id", "state"}
)

type repo struct {
	reader erp.Reader
	cfg    *config.DashboardConfigHolder
}

func Provide(reader erp.Reader, cfg *config.DashboardConfigHolder) domain.Repository {
	return &repo{reader: reader, cfg: cfg}
}

func (r *repo) chunkSize() int { return r.cfg.Get().IDChunkSize }

func (r *repo) OrderLines(ctx context.Context, productIDs []int64) ([]domain.OrderLine, error) {
	records, err := erp.ReadIn[orderLineRecord](ctx, r.reader, erp.ModelSaleOrderLine, "product_id", productIDs, r.chunkSize(), nil, orderLineFields)
	if err != nil {
		return nil, err
	}
	out := make([]domain.OrderLine, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.OrderLine{
			ID:        rec.ID,
			OrderID:   rec.Order.ID,
			ProductID: rec.Product.ID,
			Name:      rec.Name.String(),
			Quantity:  float64(rec.Quantity),
			Subtotal:  rec.Subtotal.Decimal,
		})
	}
	return out, nil
}

func (r *repo) Orders(ctx context.Context, caps erp.Capabilities, orderIDs []int64) ([]domain.Order, error) {
	fields := orderFields
	if caps.OrderInvoiceIDs {
		fields = append(append([]string(nil), orderFields...), "invoice_ids")
	}
	records, err := erp.ReadIn[orderRecord](ctx, r.reader, erp.ModelSaleOrder, "id", orderIDs, r.chunkSize(), nil, fields)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Order{
			ID:            rec.ID,
			Name:          rec.Name.String(),
			State:         rec.State.String(),
			Customer:      rec.Partner.Name,
			Salesperson:   rec.User.Name,
			Team:          rec.Team.Name,
			DateOrder:     rec.DateOrder.Time,
			AmountTotal:   rec.AmountTotal.Decimal,
			InvoiceStatus: rec.InvoiceStatus.String(),
			InvoiceIDs:    rec.InvoiceIDs,
		})
	}
	return out, nil
}

func (r *repo) Invoices(ctx context.Context, caps erp.Capabilities, ids []int64) ([]domain.Invoice, error) {
	fields := append([]string(nil), invoiceFields...)
	extra := erp.Where(erp.In("move_type", domain.CustomerMoveTypes))
	if caps.MoveState {
		fields = append(fields, "state")
		extra = extra.And(erp.Eq("state", domain.MoveStatePosted))
	}
	if caps.MovePaymentState != "" {
		fields = append(fields, caps.MovePaymentState)
	}
	if caps.MoveResidual {
		fields = append(fields, "amount_residual")
	}
	if caps.MoveTotalSigned {
		fields = append(fields, "amount_total_signed")
	}
	if caps.MoveCurrency {
		fields = append(fields, "currency_id")
	}

	records, err := erp.ReadIn[invoiceRecord](ctx, r.reader, erp.ModelMove, "id", ids, r.chunkSize(), extra, fields)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Invoice, 0, len(records))
	for _, rec := range records {
		paymentState := rec.PaymentState
		if caps.MovePaymentState != "payment_state" {
			paymentState = rec.LegacyPaymentState
		}
		out = append(out, domain.Invoice{
			ID:           rec.ID,
			Name:         rec.Name.String(),
			MoveType:     rec.MoveType.String(),
			Customer:     rec.Partner.Name,
			Origin:       rec.Origin.String(),
			Date:         rec.Date.Time,
			State:        rec.State.String(),
			PaymentState: paymentState.String(),
			Total:        rec.Total.Decimal,
			Residual:     rec.Residual.Decimal,
			TotalSigned:  rec.TotalSigned.Decimal,
			Currency:     rec.Currency.Name,
		})
	}
	return out, nil
}

func (r *repo) ReceivableLines(ctx context.Context, caps erp.Capabilities, moveIDs []int64) ([]domain.MoveLine, error) {
	return r.moveLines(ctx, "move_id", moveIDs, caps.ReceivableDomain())
}

func (r *repo) MoveLines(ctx context.Context, ids []int64) ([]domain.MoveLine, error) {
	return r.moveLines(ctx, "id", ids, nil)
}

func (r *repo) moveLines(ctx context.Context, field string, ids []int64, extra erp.Domain) ([]domain.MoveLine, error) {
	records, err := erp.ReadIn[moveLineRecord](ctx, r.reader, erp.ModelMoveLine, field, ids, r.chunkSize(), extra, moveLineFields)
	if err != nil {
		return nil, err
	}
	out := make([]domain.MoveLine, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.MoveLine{ID: rec.ID, MoveID: rec.Move.ID})
	}
	return out, nil
}

func (r *repo) Partials(ctx context.Context, caps erp.Capabilities, lineIDs []int64) ([]domain.Partial, error) {
	fields := []string{"id", "debit_move_id", "credit_move_id"}
	if caps.PartialAmountField != "" {
		fields = append(fields, caps.PartialAmountField)
	}
	if caps.PartialDateField != "" {
		fields = append(fields, caps.PartialDateField)
	}

	var records []partialRecord
	filter := erp.Or(erp.In("debit_move_id", lineIDs), erp.In("credit_move_id", lineIDs))
	if err := r.reader.SearchRead(ctx, erp.ModelPartialReconcile, filter, fields, &records); err != nil {
		return nil, fmt.Errorf("read %s: %w", erp.ModelPartialReconcile, err)
	}

	out := make([]domain.Partial, 0, len(records))
	for _, rec := range records {
		amount := rec.Amount.Decimal
		if caps.PartialAmountField == "amount_currency" {
			amount = rec.AmountCurrency.Decimal
		}
		date := rec.MaxDate.Time
		if caps.PartialDateField == "create_date" {
			date = rec.CreateDate.Time
		}
		out = append(out, domain.Partial{
			ID:           rec.ID,
			DebitLineID:  rec.Debit.ID,
			CreditLineID: rec.Credit.ID,
			Amount:       orZero(amount),
			Date:         date,
		})
	}
	return out, nil
}

func (r *repo) PaymentsByMove(ctx context.Context, moveIDs []int64) ([]domain.Payment, error) {
	extra := erp.Where(erp.Eq("state", domain.MoveStatePosted))
	records, err := erp.ReadIn[paymentRecord](ctx, r.reader, erp.ModelPayment, "move_id", moveIDs, r.chunkSize(), extra, paymentFields)
	if err != nil {
		return nil, err
	}
	return toPayments(records), nil
}

func (r *repo) PaymentsByInvoice(ctx context.Context, invoiceIDs []int64) ([]domain.Payment, error) {
	extra := erp.Where(erp.Eq("state", domain.MoveStatePosted))
	fields := append(append([]string(nil), paymentFields...), "reconciled_invoice_ids")
	records, err := erp.ReadIn[paymentRecord](ctx, r.reader, erp.ModelPayment, "reconciled_invoice_ids", invoiceIDs, r.chunkSize(), extra, fields)
	if err != nil {
		return nil, err
	}
	// a payment linked to invoices in two chunks is returned twice
	seen := make(map[int64]struct{}, len(records))
	unique := records[:0]
	for _, rec := range records {
		if _, ok := seen[rec.ID]; ok {
			continue
		}
		seen[rec.ID] = struct{}{}
		unique = append(unique, rec)
	}
	return toPayments(unique), nil
}

func toPayments(records []paymentRecord) []domain.Payment {
	out := make([]domain.Payment, 0, len(records))
	for _, rec := range records {
		out = append(out, domain.Payment{
			ID:                   rec.ID,
			Name:                 rec.Name.String(),
			Date:                 rec.Date.Time,
			Amount:               orZero(rec.Amount.Decimal),
			PaymentType:          rec.PaymentType.String(),
			Customer:             rec.Partner.Name,
			Journal:              rec.Journal.Name,
			Reference:            rec.Ref.String(),
			MoveID:               rec.Move.ID,
			State:                rec.State.String(),
			ReconciledInvoiceIDs: rec.ReconciledInvoiceIDs,
		})
	}
	return out
}

// orZero normalizes the zero value of decimal.Decimal, which has a nil
// coefficient, so comparisons and JSON output are stable.
func orZero(d decimal.Decimal) decimal.Decimal {
	if d.IsZero() {
		return decimal.Zero
	}
	return d
}
