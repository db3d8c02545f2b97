package service

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/erp/erptest"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/smallbiznis/cuadra/internal/reconcile/domain"
	"github.com/smallbiznis/cuadra/internal/reconcile/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var fullCaps = erp.Capabilities{
	OrderInvoiceIDs:       true,
	MoveState:             true,
	MovePaymentState:      "payment_state",
	MoveResidual:          true,
	MoveLineTypeField:     erp.AccountTypeModern,
	PartialReconcile:      true,
	PartialAmountField:    "amount",
	PartialDateField:      "max_date",
	PaymentModel:          true,
	PaymentMoveID:         true,
	PaymentReconciledInvs: true,
}

func newTestService(t *testing.T, repo domain.Repository, m *metrics.ERPMetrics) *Service {
	t.Helper()
	return New(Params{
		Log:     zaptest.NewLogger(t),
		Repo:    repo,
		Config:  config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig()),
		Metrics: m,
	}).(*Service)
}

func readerRepo(r erp.Reader) domain.Repository {
	return repository.Provide(r, config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig()))
}

func amount(v string) decimal.Decimal { return decimal.RequireFromString(v) }

// salesFixture holds one order with two coded lines (300 + 700) invoiced
// once for 1000 and settled by one bank payment.
func salesFixture() *erptest.Reader {
	return erptest.NewReader().
		Add(erp.ModelSaleOrderLine,
			erptest.Record{"id": 1, "order_id": []any{50, "S00050"}, "product_id": []any{100, "Pucón"}, "product_uom_qty": 1, "price_subtotal": 300},
			erptest.Record{"id": 2, "order_id": []any{50, "S00050"}, "product_id": []any{101, "Pucón single"}, "product_uom_qty": 2, "price_subtotal": 700},
		).
		Add(erp.ModelSaleOrder,
			erptest.Record{"id": 50, "name": "S00050", "state": "sale", "partner_id": []any{7, "Ana"}, "team_id": []any{3, "Agencia Sur"}, "invoice_status": "invoiced", "amount_total": 1000, "invoice_ids": []int64{900}},
		).
		Add(erp.ModelMove,
			erptest.Record{"id": 900, "name": "INV/2025/0001", "move_type": "out_invoice", "state": "posted", "payment_state": "paid", "invoice_origin": "S00050", "partner_id": []any{7, "Ana"}, "amount_total": 1000, "amount_residual": 0},
		).
		Add(erp.ModelMoveLine,
			erptest.Record{"id": 9001, "move_id": []any{900, "INV/2025/0001"}, "account_type": "asset_receivable"},
			erptest.Record{"id": 9002, "move_id": []any{900, "INV/2025/0001"}, "account_type": "income"},
			erptest.Record{"id": 7001, "move_id": []any{700, "PBNK1/2025/0001"}, "account_type": "asset_receivable"},
		).
		Add(erp.ModelPartialReconcile,
			erptest.Record{"id": 1, "debit_move_id": []any{9001, "INV/2025/0001"}, "credit_move_id": []any{7001, "PBNK1/2025/0001"}, "amount": 1000, "max_date": "2025-02-10"},
		).
		Add(erp.ModelPayment,
			erptest.Record{"id": 40, "name": "PBNK1/2025/0001", "date": "2025-02-10", "amount": 1000, "journal_id": []any{2, "Banco"}, "ref": "TRF-1", "move_id": []any{700, "PBNK1/2025/0001"}, "state": "posted", "partner_id": []any{7, "Ana"}, "reconciled_invoice_ids": []int64{900}},
		)
}

func fixtureProducts() []catalogdomain.Product {
	return []catalogdomain.Product{
		{ID: 100, Code: "CL100", Name: "Pucón"},
		{ID: 101, Code: "CL101", Name: "Pucón single"},
	}
}

func TestJoinFullyPaidOrder(t *testing.T) {
	svc := newTestService(t, readerRepo(salesFixture()), nil)

	res, err := svc.Join(context.Background(), fullCaps, fixtureProducts())
	require.NoError(t, err)

	require.Len(t, res.Orders, 1)
	order := res.Orders[0]
	assert.Equal(t, "S00050", order.Order)
	assert.Equal(t, "Agencia Sur", order.Agency)
	assert.Equal(t, "Totalmente facturado", order.InvoiceStatus)
	assert.Equal(t, []string{"CL100", "CL101"}, order.Codes)
	assert.Equal(t, int64(3), order.Quantity)
	assert.True(t, order.Subtotal.Equal(amount("1000")))
	assert.True(t, order.Invoiced.Equal(amount("1000")))
	assert.True(t, order.Paid.Equal(amount("1000")))
	assert.True(t, order.Owed.IsZero())
	assert.Equal(t, []string{"paid"}, order.PaymentStates)

	require.Len(t, res.CodeLines, 2)
	assert.True(t, res.CodeLines[0].Subtotal.Equal(amount("300")))

	assert.Equal(t, domain.SourceReconcile, res.Source)
	require.Len(t, res.Rows, 1)
	row := res.Rows[0]
	assert.Equal(t, int64(900), row.InvoiceID)
	assert.Equal(t, int64(700), row.PaymentMoveID)
	assert.True(t, row.Applied.Equal(amount("1000")))
	assert.Equal(t, "PBNK1/2025/0001", row.Payment)
	assert.Equal(t, "Banco", row.Journal)
	assert.Equal(t, "TRF-1", row.Reference)
	assert.True(t, res.AppliedByInvoice[900].Equal(amount("1000")))
}

func TestJoinPartiallyPaidInvoice(t *testing.T) {
	reader := erptest.NewReader().
		Add(erp.ModelSaleOrderLine,
			erptest.Record{"id": 1, "order_id": []any{51, "S00051"}, "product_id": []any{100, "Pucón"}, "product_uom_qty": 2, "price_subtotal": 500},
		).
		Add(erp.ModelSaleOrder,
			erptest.Record{"id": 51, "name": "S00051", "state": "sale", "invoice_status": "invoiced", "invoice_ids": []int64{901}},
		).
		Add(erp.ModelMove,
			erptest.Record{"id": 901, "name": "INV/2025/0002", "move_type": "out_invoice", "state": "posted", "payment_state": "partial", "amount_total": 500, "amount_residual": 200},
		).
		Add(erp.ModelMoveLine,
			erptest.Record{"id": 9011, "move_id": []any{901, "INV/2025/0002"}, "account_type": "asset_receivable"},
			erptest.Record{"id": 7011, "move_id": []any{701, "PBNK1/2025/0002"}, "account_type": "asset_receivable"},
		).
		Add(erp.ModelPartialReconcile,
			erptest.Record{"id": 5, "debit_move_id": []any{9011, ""}, "credit_move_id": []any{7011, ""}, "amount": 300},
		).
		Schema(erp.ModelPayment)

	caps := fullCaps
	caps.PaymentMoveID = false
	svc := newTestService(t, readerRepo(reader), nil)

	res, err := svc.Join(context.Background(), caps, fixtureProducts())
	require.NoError(t, err)

	require.Len(t, res.Orders, 1)
	assert.True(t, res.Orders[0].Paid.Equal(amount("300")))
	assert.True(t, res.Orders[0].Owed.Equal(amount("200")))

	require.Len(t, res.Rows, 1)
	assert.Equal(t, "partial", res.Rows[0].InvoicePaymentState)
	assert.True(t, res.Rows[0].Applied.Equal(amount("300")))
	assert.Empty(t, res.Rows[0].Payment)
}

func TestJoinKeepsCancelledOrdersAndSkipsDraftInvoices(t *testing.T) {
	reader := erptest.NewReader().
		Add(erp.ModelSaleOrderLine,
			erptest.Record{"id": 1, "order_id": []any{52, "S00052"}, "product_id": []any{100, "Pucón"}, "product_uom_qty": 1, "price_subtotal": 100},
		).
		Add(erp.ModelSaleOrder,
			erptest.Record{"id": 52, "name": "S00052", "state": "cancel", "invoice_status": "no", "invoice_ids": []int64{902}},
		).
		Add(erp.ModelMove,
			erptest.Record{"id": 902, "name": "/", "move_type": "out_invoice", "state": "draft", "amount_total": 100, "amount_residual": 100},
		)

	svc := newTestService(t, readerRepo(reader), nil)
	res, err := svc.Join(context.Background(), fullCaps, fixtureProducts())
	require.NoError(t, err)

	require.Len(t, res.Orders, 1)
	assert.True(t, res.Orders[0].Cancelled())
	assert.True(t, res.Orders[0].Invoiced.IsZero())
	assert.Empty(t, res.Invoices)
	assert.Equal(t, domain.SourceNone, res.Source)
}

// batchFixture has one invoice with 120 receivable lines, so the
// reconciliation lookup needs three batches of 50.
func batchFixture() (*erptest.Reader, []domain.Invoice) {
	reader := erptest.NewReader()
	for i := int64(1); i <= 120; i++ {
		reader.Add(erp.ModelMoveLine, erptest.Record{"id": 1000 + i, "move_id": []any{1, "INV/1"}, "account_type": "asset_receivable"})
	}
	reader.Add(erp.ModelMoveLine,
		erptest.Record{"id": 5001, "move_id": []any{801, "PAY/1"}, "account_type": "asset_receivable"},
		erptest.Record{"id": 5002, "move_id": []any{802, "PAY/2"}, "account_type": "asset_receivable"},
		erptest.Record{"id": 5003, "move_id": []any{803, "PAY/3"}, "account_type": "asset_receivable"},
	)
	reader.Add(erp.ModelPartialReconcile,
		erptest.Record{"id": 11, "debit_move_id": []any{1001, ""}, "credit_move_id": []any{5001, ""}, "amount": 100},
		erptest.Record{"id": 12, "debit_move_id": []any{1060, ""}, "credit_move_id": []any{5002, ""}, "amount": 200},
		erptest.Record{"id": 13, "debit_move_id": []any{1110, ""}, "credit_move_id": []any{5003, ""}, "amount": 400},
	)
	reader.Add(erp.ModelPayment,
		erptest.Record{"id": 61, "name": "PAY/1", "amount": 100, "move_id": []any{801, "PAY/1"}, "state": "posted", "reconciled_invoice_ids": []int64{1}},
		erptest.Record{"id": 62, "name": "PAY/2", "amount": 200, "move_id": []any{802, "PAY/2"}, "state": "posted", "reconciled_invoice_ids": []int64{1}},
	)
	invoices := []domain.Invoice{{ID: 1, Name: "INV/1", State: "posted", PaymentState: "partial", Total: amount("1000"), Residual: amount("300")}}
	return reader, invoices
}

func TestPartialBatchFailureKeepsSuccessfulBatches(t *testing.T) {
	reader, invoices := batchFixture()
	reader.Fail = func(c erptest.Call, n int) error {
		if c.Model == erp.ModelPartialReconcile && n == 2 {
			return &erp.TransientError{Op: "search_read", Err: errors.New("read: connection reset by peer")}
		}
		return nil
	}
	m := metrics.NewERPMetricsForTest(prometheus.NewRegistry())
	svc := newTestService(t, readerRepo(reader), m)

	apps, err := svc.Applications(context.Background(), fullCaps, invoices)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceReconcile, apps.Source)
	assert.Equal(t, domain.BatchStats{Total: 3, Failed: 1}, apps.Batches)
	require.Len(t, apps.Rows, 2)
	assert.Equal(t, int64(801), apps.Rows[0].PaymentMoveID)
	assert.Equal(t, int64(803), apps.Rows[1].PaymentMoveID)
	assert.True(t, apps.AppliedByInvoice[1].Equal(amount("500")))
	assert.NotEmpty(t, apps.Warnings)

	calls := reader.CallsTo(erp.ModelPartialReconcile)
	require.Len(t, calls, 3)
	for _, c := range calls {
		ids := c.Domain[1].(erp.Term)[2].([]int64)
		assert.LessOrEqual(t, len(ids), config.MaxReconcileBatchSize)
	}
}

func TestAllBatchesFailedFallsBack(t *testing.T) {
	reader, invoices := batchFixture()
	reader.Fail = func(c erptest.Call, n int) error {
		if c.Model == erp.ModelPartialReconcile {
			return &erp.TransientError{Op: "search_read", Err: errors.New("i/o timeout")}
		}
		return nil
	}
	svc := newTestService(t, readerRepo(reader), nil)

	apps, err := svc.Applications(context.Background(), fullCaps, invoices)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFallback, apps.Source)
	assert.Equal(t, metrics.FallbackReasonBatchesFailed, apps.FallbackReason)
	assert.Equal(t, domain.BatchStats{Total: 3, Failed: 3}, apps.Batches)
	require.Len(t, apps.Rows, 2)
	assert.True(t, apps.AppliedByInvoice[1].Equal(amount("300")))
}

func TestFallbackWhenReconcileModelUnavailable(t *testing.T) {
	reader := salesFixture()
	caps := fullCaps
	caps.PartialReconcile = false

	reg := prometheus.NewRegistry()
	svc := newTestService(t, readerRepo(reader), metrics.NewERPMetricsForTest(reg))
	res, err := svc.Join(context.Background(), caps, fixtureProducts())
	require.NoError(t, err)

	assert.Equal(t, domain.SourceFallback, res.Source)
	assert.Equal(t, metrics.FallbackReasonUnavailable, res.FallbackReason)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(40), res.Rows[0].PaymentID)
	assert.True(t, res.Rows[0].Applied.Equal(amount("1000")))
	assert.Empty(t, reader.CallsTo(erp.ModelPartialReconcile))
	series, err := testutil.GatherAndCount(reg, "cuadra_reconcile_fallback_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestNoPaymentSourceAvailable(t *testing.T) {
	caps := fullCaps
	caps.PartialReconcile = false
	caps.PaymentReconciledInvs = false

	svc := newTestService(t, readerRepo(salesFixture()), nil)
	res, err := svc.Join(context.Background(), caps, fixtureProducts())
	require.NoError(t, err)
	assert.Equal(t, domain.SourceNone, res.Source)
	assert.Empty(t, res.Rows)
	require.Len(t, res.Orders, 1)
}

func TestRemoteErrorOnRequiredReadPropagates(t *testing.T) {
	reader := salesFixture()
	reader.Fail = func(c erptest.Call, n int) error {
		if c.Model == erp.ModelSaleOrder {
			return &erp.RemoteError{Code: 200, Message: "Odoo Server Error", Exception: "odoo.exceptions.AccessError"}
		}
		return nil
	}
	svc := newTestService(t, readerRepo(reader), nil)

	_, err := svc.Join(context.Background(), fullCaps, fixtureProducts())
	require.Error(t, err)
	assert.True(t, erp.IsRemote(err))
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) OrderLines(ctx context.Context, productIDs []int64) ([]domain.OrderLine, error) {
	args := m.Called(ctx, productIDs)
	out, _ := args.Get(0).([]domain.OrderLine)
	return out, args.Error(1)
}

func (m *mockRepository) Orders(ctx context.Context, caps erp.Capabilities, ids []int64) ([]domain.Order, error) {
	args := m.Called(ctx, caps, ids)
	out, _ := args.Get(0).([]domain.Order)
	return out, args.Error(1)
}

func (m *mockRepository) Invoices(ctx context.Context, caps erp.Capabilities, ids []int64) ([]domain.Invoice, error) {
	args := m.Called(ctx, caps, ids)
	out, _ := args.Get(0).([]domain.Invoice)
	return out, args.Error(1)
}

func (m *mockRepository) ReceivableLines(ctx context.Context, caps erp.Capabilities, ids []int64) ([]domain.MoveLine, error) {
	args := m.Called(ctx, caps, ids)
	out, _ := args.Get(0).([]domain.MoveLine)
	return out, args.Error(1)
}

func (m *mockRepository) Partials(ctx context.Context, caps erp.Capabilities, ids []int64) ([]domain.Partial, error) {
	args := m.Called(ctx, caps, ids)
	out, _ := args.Get(0).([]domain.Partial)
	return out, args.Error(1)
}

func (m *mockRepository) MoveLines(ctx context.Context, ids []int64) ([]domain.MoveLine, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]domain.MoveLine)
	return out, args.Error(1)
}

func (m *mockRepository) PaymentsByMove(ctx context.Context, ids []int64) ([]domain.Payment, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]domain.Payment)
	return out, args.Error(1)
}

func (m *mockRepository) PaymentsByInvoice(ctx context.Context, ids []int64) ([]domain.Payment, error) {
	args := m.Called(ctx, ids)
	out, _ := args.Get(0).([]domain.Payment)
	return out, args.Error(1)
}

func TestDuplicatePartialsAreCountedOnce(t *testing.T) {
	repo := &mockRepository{}
	invoices := []domain.Invoice{{ID: 1, Name: "INV/1", State: "posted", PaymentState: "paid", Total: amount("250"), Residual: decimal.Zero}}
	lines := make([]domain.MoveLine, 0, 60)
	for i := int64(1); i <= 60; i++ {
		lines = append(lines, domain.MoveLine{ID: 100 + i, MoveID: 1})
	}
	dup := domain.Partial{ID: 77, DebitLineID: 101, CreditLineID: 160, Amount: amount("250")}

	repo.On("ReceivableLines", mock.Anything, mock.Anything, []int64{1}).Return(lines, nil)
	repo.On("Partials", mock.Anything, mock.Anything, mock.Anything).Return([]domain.Partial{dup}, nil).Twice()
	repo.On("PaymentsByMove", mock.Anything, []int64{1}).Return([]domain.Payment{}, nil)

	svc := newTestService(t, repo, nil)
	apps, err := svc.Applications(context.Background(), fullCaps, invoices)
	require.NoError(t, err)

	assert.Equal(t, 2, apps.Batches.Total)
	require.Len(t, apps.Rows, 1)
	assert.True(t, apps.AppliedByInvoice[1].Equal(amount("250")))
	repo.AssertExpectations(t)
}

func TestZeroAmountAndUnknownSidesAreSkipped(t *testing.T) {
	repo := &mockRepository{}
	invoices := []domain.Invoice{{ID: 1, Name: "INV/1", State: "posted", Total: amount("100")}}

	repo.On("ReceivableLines", mock.Anything, mock.Anything, []int64{1}).Return([]domain.MoveLine{{ID: 10, MoveID: 1}}, nil)
	repo.On("Partials", mock.Anything, mock.Anything, []int64{10}).Return([]domain.Partial{
		{ID: 1, DebitLineID: 20, CreditLineID: 10, Amount: amount("40")},
		{ID: 2, DebitLineID: 10, CreditLineID: 21, Amount: decimal.Zero},
		{ID: 3, DebitLineID: 30, CreditLineID: 31, Amount: amount("99")},
		{ID: 4, DebitLineID: 10, CreditLineID: 0, Amount: amount("5")},
	}, nil)
	repo.On("MoveLines", mock.Anything, []int64{20, 21, 30, 31}).Return([]domain.MoveLine{
		{ID: 20, MoveID: 500}, {ID: 21, MoveID: 501}, {ID: 30, MoveID: 502}, {ID: 31, MoveID: 503},
	}, nil)
	repo.On("PaymentsByMove", mock.Anything, []int64{500}).Return(nil, errors.New("boom"))

	svc := newTestService(t, repo, nil)
	apps, err := svc.Applications(context.Background(), fullCaps, invoices)
	require.NoError(t, err)

	require.Len(t, apps.Rows, 1)
	assert.Equal(t, int64(500), apps.Rows[0].PaymentMoveID)
	assert.True(t, apps.Rows[0].Applied.Equal(amount("40")))
	assert.Contains(t, apps.Warnings[0], "payment details unavailable")
}

func TestCancelledContextIsNotAPartialFailure(t *testing.T) {
	repo := &mockRepository{}
	invoices := []domain.Invoice{{ID: 1, State: "posted"}}
	ctx, cancel := context.WithCancel(context.Background())

	repo.On("ReceivableLines", mock.Anything, mock.Anything, mock.Anything).Return([]domain.MoveLine{{ID: 10, MoveID: 1}}, nil)
	repo.On("Partials", mock.Anything, mock.Anything, mock.Anything).Run(func(mock.Arguments) { cancel() }).Return(nil, context.Canceled)

	svc := newTestService(t, repo, nil)
	_, err := svc.Applications(ctx, fullCaps, invoices)
	assert.ErrorIs(t, err, context.Canceled)
	repo.AssertNotCalled(t, "PaymentsByInvoice", mock.Anything, mock.Anything)
}
