package erp

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Field describes one model field as reported by fields_get.
type Field struct {
	Type     string `json:"type"`
	String   string `json:"string"`
	Relation string `json:"relation,omitempty"`
}

// Fields maps field names to their metadata.
type Fields map[string]Field

func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// First returns the first candidate present, or "".
func (f Fields) First(candidates ...string) string {
	for _, name := range candidates {
		if f.Has(name) {
			return name
		}
	}
	return ""
}

// Account type field variants across ERP versions, newest first.
const (
	AccountTypeModern   = "account_type"
	AccountTypeInternal = "account_internal_type"
	AccountTypeLegacy   = "internal_type"
)

// Capabilities records which optional models and fields the connected ERP
// exposes. It is negotiated once per session and passed to the joiner.
type Capabilities struct {
	OrderInvoiceIDs bool `json:"order_invoice_ids"`

	MoveState         bool   `json:"move_state"`
	MovePaymentState  string `json:"move_payment_state,omitempty"`
	MoveResidual      bool   `json:"move_residual"`
	MoveTotalSigned   bool   `json:"move_total_signed"`
	MoveCurrency      bool   `json:"move_currency"`
	MoveLineTypeField string `json:"move_line_type_field,omitempty"`

	PartialReconcile      bool   `json:"partial_reconcile"`
	PartialAmountField    string `json:"partial_amount_field,omitempty"`
	PartialDateField      string `json:"partial_date_field,omitempty"`
	PaymentMoveID         bool   `json:"payment_move_id"`
	PaymentReconciledInvs bool   `json:"payment_reconciled_invoice_ids"`
	PaymentModel          bool   `json:"payment_model"`
}

// ReceivableDomain filters move lines to receivable/payable accounts using
// whichever type field the server has. It is empty when none exists.
func (c Capabilities) ReceivableDomain() Domain {
	switch c.MoveLineTypeField {
	case AccountTypeModern:
		return Where(In(AccountTypeModern, []string{"asset_receivable", "liability_payable"}))
	case AccountTypeInternal, AccountTypeLegacy:
		return Where(In(c.MoveLineTypeField, []string{"receivable", "payable"}))
	default:
		return Domain{}
	}
}

// CanReconcile reports whether the precise reconciliation path is usable.
func (c Capabilities) CanReconcile() bool {
	return c.PartialReconcile && c.PartialAmountField != ""
}

// CanFallback reports whether payments expose their reconciled invoices.
func (c Capabilities) CanFallback() bool {
	return c.PaymentModel && c.PaymentReconciledInvs
}

// Negotiate probes the ERP schema. sale.order and account.move are required;
// the reconciliation and payment models are optional and a failed probe
// marks them unavailable.
func Negotiate(ctx context.Context, r Reader, log *zap.Logger) (Capabilities, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("erp.capabilities")
	var caps Capabilities

	orderFields, err := r.FieldsGet(ctx, "sale.order")
	if err != nil {
		return Capabilities{}, fmt.Errorf("probe sale.order: %w", err)
	}
	caps.OrderInvoiceIDs = orderFields.Has("invoice_ids")

	moveFields, err := r.FieldsGet(ctx, "account.move")
	if err != nil {
		return Capabilities{}, fmt.Errorf("probe account.move: %w", err)
	}
	caps.MoveState = moveFields.Has("state")
	caps.MovePaymentState = moveFields.First("payment_state", "invoice_payment_state")
	caps.MoveResidual = moveFields.Has("amount_residual")
	caps.MoveTotalSigned = moveFields.Has("amount_total_signed")
	caps.MoveCurrency = moveFields.Has("currency_id")

	if lineFields, err := r.FieldsGet(ctx, "account.move.line"); err != nil {
		log.Warn("account.move.line probe failed", zap.Error(err))
	} else {
		caps.MoveLineTypeField = lineFields.First(AccountTypeModern, AccountTypeInternal, AccountTypeLegacy)
	}

	if partialFields, err := r.FieldsGet(ctx, "account.partial.reconcile"); err != nil {
		log.Warn("account.partial.reconcile unavailable", zap.Error(err))
	} else if len(partialFields) > 0 {
		caps.PartialReconcile = partialFields.Has("debit_move_id") && partialFields.Has("credit_move_id")
		caps.PartialAmountField = partialFields.First("amount", "amount_currency")
		caps.PartialDateField = partialFields.First("max_date", "create_date")
	}

	if paymentFields, err := r.FieldsGet(ctx, "account.payment"); err != nil {
		log.Warn("account.payment unavailable", zap.Error(err))
	} else if len(paymentFields) > 0 {
		caps.PaymentModel = true
		caps.PaymentMoveID = paymentFields.Has("move_id")
		caps.PaymentReconciledInvs = paymentFields.Has("reconciled_invoice_ids")
	}

	log.Info("erp capabilities negotiated",
		zap.Bool("partial_reconcile", caps.PartialReconcile),
		zap.String("move_line_type_field", caps.MoveLineTypeField),
		zap.String("payment_state_field", caps.MovePaymentState),
		zap.Bool("payment_reconciled_invoice_ids", caps.PaymentReconciledInvs),
	)
	return caps, nil
}

type capabilitiesKey struct{}

// ContextWithCapabilities attaches negotiated capabilities, usually the ones
// cached in the caller's session.
func ContextWithCapabilities(ctx context.Context, caps Capabilities) context.Context {
	return context.WithValue(ctx, capabilitiesKey{}, caps)
}

func CapabilitiesFromContext(ctx context.Context) (Capabilities, bool) {
	caps, ok := ctx.Value(capabilitiesKey{}).(Capabilities)
	return caps, ok
}

// ResolveCapabilities returns the capabilities carried by ctx, negotiating
// them when absent.
func ResolveCapabilities(ctx context.Context, r Reader, log *zap.Logger) (Capabilities, error) {
	if caps, ok := CapabilitiesFromContext(ctx); ok {
		return caps, nil
	}
	return Negotiate(ctx, r, log)
}
