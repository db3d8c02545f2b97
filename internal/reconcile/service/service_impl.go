package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability/logger"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/smallbiznis/cuadra/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Config  *config.DashboardConfigHolder
	Metrics *metrics.ERPMetrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	cfg     *config.DashboardConfigHolder
	metrics *metrics.ERPMetrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("reconcile.service"),
		repo:    p.Repo,
		cfg:     p.Config,
		metrics: p.Metrics,
	}
}

// Join builds one row per order that sells any of products, aggregating the
// order's posted invoices, then attaches the payment applications.
func (s *Service) Join(ctx context.Context, caps erp.Capabilities, products []catalogdomain.Product) (domain.JoinResult, error) {
	result := domain.JoinResult{Applications: emptyApplications(domain.SourceNone)}

	productsByID := make(map[int64]catalogdomain.Product, len(products))
	productIDs := make([]int64, 0, len(products))
	for _, p := range products {
		productsByID[p.ID] = p
		productIDs = append(productIDs, p.ID)
	}
	if len(productIDs) == 0 {
		return result, nil
	}

	lines, err := s.repo.OrderLines(ctx, productIDs)
	if err != nil {
		return domain.JoinResult{}, fmt.Errorf("order lines: %w", err)
	}
	linesByOrder := make(map[int64][]domain.OrderLine)
	var orderIDs []int64
	for _, l := range lines {
		if l.OrderID == 0 {
			continue
		}
		if _, ok := linesByOrder[l.OrderID]; !ok {
			orderIDs = append(orderIDs, l.OrderID)
		}
		linesByOrder[l.OrderID] = append(linesByOrder[l.OrderID], l)
	}
	if len(orderIDs) == 0 {
		return result, nil
	}
	slices.Sort(orderIDs)

	orders, err := s.repo.Orders(ctx, caps, orderIDs)
	if err != nil {
		return domain.JoinResult{}, fmt.Errorf("orders: %w", err)
	}
	ordersByID := make(map[int64]domain.Order, len(orders))
	var invoiceIDs []int64
	for _, o := range orders {
		ordersByID[o.ID] = o
		invoiceIDs = append(invoiceIDs, o.InvoiceIDs...)
	}
	invoiceIDs = erp.UniqueIDs(invoiceIDs)
	slices.Sort(invoiceIDs)

	var invoices []domain.Invoice
	if len(invoiceIDs) > 0 {
		invoices, err = s.repo.Invoices(ctx, caps, invoiceIDs)
		if err != nil {
			return domain.JoinResult{}, fmt.Errorf("invoices: %w", err)
		}
	}
	invoicesByID := make(map[int64]domain.Invoice, len(invoices))
	for _, inv := range invoices {
		invoicesByID[inv.ID] = inv
	}

	cfg := s.cfg.Get()
	for _, orderID := range orderIDs {
		order, ok := ordersByID[orderID]
		if !ok {
			continue
		}
		row, codeLines := buildOrderRow(order, linesByOrder[orderID], productsByID, invoicesByID)
		row.InvoiceStatus = cfg.InvoiceStatusLabel(order.InvoiceStatus)
		result.Orders = append(result.Orders, row)
		result.CodeLines = append(result.CodeLines, codeLines...)
	}
	result.Invoices = invoices

	apps, err := s.Applications(ctx, caps, invoices)
	if err != nil {
		return domain.JoinResult{}, err
	}
	result.Applications = apps
	return result, nil
}

func buildOrderRow(order domain.Order, lines []domain.OrderLine, products map[int64]catalogdomain.Product, invoices map[int64]domain.Invoice) (domain.OrderRow, []domain.CodeLine) {
	row := domain.OrderRow{
		OrderID:           order.ID,
		Order:             order.Name,
		State:             order.State,
		Customer:          order.Customer,
		DateOrder:         order.DateOrder,
		Agency:            order.Team,
		Salesperson:       order.Salesperson,
		InvoiceStatusCode: order.InvoiceStatus,
		InvoiceIDs:        order.InvoiceIDs,
		Subtotal:          decimal.Zero,
		Invoiced:          decimal.Zero,
		Paid:              decimal.Zero,
		Owed:              decimal.Zero,
	}

	var codeLines []domain.CodeLine
	var codes, names []string
	quantity := 0.0
	for _, l := range lines {
		quantity += l.Quantity
		row.Subtotal = row.Subtotal.Add(l.Subtotal)

		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		names = append(names, p.Name)
		if p.Code == "" {
			continue
		}
		codes = append(codes, p.Code)
		codeLines = append(codeLines, domain.CodeLine{
			OrderID:  order.ID,
			Order:    order.Name,
			Code:     p.Code,
			Subtotal: l.Subtotal,
		})
	}
	row.Codes = sortedDistinct(codes)
	row.Products = sortedDistinct(names)
	row.Quantity = decimal.NewFromFloat(quantity).Round(0).IntPart()

	var states []string
	for _, id := range order.InvoiceIDs {
		inv, ok := invoices[id]
		if !ok {
			continue
		}
		row.Invoiced = row.Invoiced.Add(inv.Total)
		row.Owed = row.Owed.Add(inv.Owed())
		states = append(states, inv.PaymentState)
	}
	row.Paid = row.Invoiced.Sub(row.Owed)
	row.PaymentStates = sortedDistinct(states)
	return row, codeLines
}

// Applications finds how much of each invoice was settled by which payment.
// The precise path walks partial reconciliations in batches; when none can
// be read it falls back to the payments' reconciled invoice links.
func (s *Service) Applications(ctx context.Context, caps erp.Capabilities, invoices []domain.Invoice) (domain.Applications, error) {
	log := logger.WithContext(ctx, s.log)
	if len(invoices) == 0 {
		return emptyApplications(domain.SourceNone), nil
	}

	invoicesByID := make(map[int64]domain.Invoice, len(invoices))
	invoiceIDs := make([]int64, 0, len(invoices))
	for _, inv := range invoices {
		if _, ok := invoicesByID[inv.ID]; ok {
			continue
		}
		invoicesByID[inv.ID] = inv
		invoiceIDs = append(invoiceIDs, inv.ID)
	}

	if !caps.CanReconcile() {
		return s.fallback(ctx, caps, invoiceIDs, invoicesByID, metrics.FallbackReasonUnavailable, domain.BatchStats{})
	}

	invoiceLines, err := s.repo.ReceivableLines(ctx, caps, invoiceIDs)
	if err != nil {
		return domain.Applications{}, fmt.Errorf("invoice ledger lines: %w", err)
	}
	lineToMove := make(map[int64]int64, len(invoiceLines))
	invoiceLineIDs := make([]int64, 0, len(invoiceLines))
	for _, l := range invoiceLines {
		if _, ok := lineToMove[l.ID]; ok {
			continue
		}
		lineToMove[l.ID] = l.MoveID
		invoiceLineIDs = append(invoiceLineIDs, l.ID)
	}
	if len(invoiceLineIDs) == 0 {
		return s.fallback(ctx, caps, invoiceIDs, invoicesByID, metrics.FallbackReasonNoMatches, domain.BatchStats{})
	}
	isInvoiceLine := make(map[int64]struct{}, len(invoiceLineIDs))
	for _, id := range invoiceLineIDs {
		isInvoiceLine[id] = struct{}{}
	}

	partials, stats, err := s.readPartials(ctx, caps, invoiceLineIDs)
	if errors.Is(err, domain.ErrReconcileUnavailable) {
		return s.fallback(ctx, caps, invoiceIDs, invoicesByID, metrics.FallbackReasonBatchesFailed, stats)
	}
	if err != nil {
		return domain.Applications{}, err
	}

	var missing []int64
	for _, p := range partials {
		for _, id := range []int64{p.DebitLineID, p.CreditLineID} {
			if _, ok := lineToMove[id]; !ok && id != 0 {
				missing = append(missing, id)
			}
		}
	}
	if missing = erp.UniqueIDs(missing); len(missing) > 0 {
		others, err := s.repo.MoveLines(ctx, missing)
		if err != nil {
			return domain.Applications{}, fmt.Errorf("payment ledger lines: %w", err)
		}
		for _, l := range others {
			lineToMove[l.ID] = l.MoveID
		}
	}

	apps := emptyApplications(domain.SourceReconcile)
	apps.Batches = stats
	if stats.Failed > 0 {
		apps.Warnings = append(apps.Warnings, fmt.Sprintf("%d of %d reconciliation batches failed; results are partial", stats.Failed, stats.Total))
	}

	for _, p := range partials {
		if p.DebitLineID == 0 || p.CreditLineID == 0 || p.Amount.IsZero() {
			continue
		}
		invoiceLine, paymentLine := p.DebitLineID, p.CreditLineID
		if _, ok := isInvoiceLine[invoiceLine]; !ok {
			if _, ok := isInvoiceLine[paymentLine]; !ok {
				continue
			}
			invoiceLine, paymentLine = paymentLine, invoiceLine
		}

		invoiceMove := lineToMove[invoiceLine]
		paymentMove := lineToMove[paymentLine]
		if invoiceMove == 0 || paymentMove == 0 {
			continue
		}
		inv, ok := invoicesByID[invoiceMove]
		if !ok || (caps.MoveState && inv.State != domain.MoveStatePosted) {
			continue
		}

		apps.Rows = append(apps.Rows, domain.PaymentRow{
			InvoiceID:           inv.ID,
			Invoice:             inv.Name,
			InvoiceOrigin:       inv.Origin,
			InvoicePaymentState: inv.PaymentState,
			PaymentMoveID:       paymentMove,
			ReconciledAt:        p.Date,
			Applied:             p.Amount,
			Customer:            inv.Customer,
			PaymentAmount:       decimal.Zero,
		})
		apps.AppliedByInvoice[inv.ID] = apps.AppliedByInvoice[inv.ID].Add(p.Amount)
	}

	if len(apps.Rows) == 0 {
		return s.fallback(ctx, caps, invoiceIDs, invoicesByID, metrics.FallbackReasonNoMatches, stats)
	}

	s.enrich(ctx, caps, &apps)
	log.Info("payment applications resolved",
		zap.Int("applications", len(apps.Rows)),
		zap.Int("batches", stats.Total),
		zap.Int("failed_batches", stats.Failed),
	)
	return apps, nil
}

// readPartials queries reconciliations in batches of at most the configured
// size. A failed batch is logged and skipped; the union of the successful
// batches is returned deduplicated by id.
func (s *Service) readPartials(ctx context.Context, caps erp.Capabilities, lineIDs []int64) ([]domain.Partial, domain.BatchStats, error) {
	log := logger.WithContext(ctx, s.log)
	size := s.cfg.Get().ReconcileBatchSize
	if size <= 0 || size > config.MaxReconcileBatchSize {
		size = config.MaxReconcileBatchSize
	}

	var stats domain.BatchStats
	byID := make(map[int64]domain.Partial)
	for i, batch := range erp.Chunk(lineIDs, size) {
		stats.Total++
		partials, err := s.repo.Partials(ctx, caps, batch)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, stats, ctxErr
			}
			stats.Failed++
			log.Warn("reconciliation batch failed",
				zap.Int("batch", i+1),
				zap.Int("batch_size", len(batch)),
				zap.Error(err),
			)
			continue
		}
		for _, p := range partials {
			byID[p.ID] = p
		}
	}
	s.metrics.AddReconcileBatches(stats.Total-stats.Failed, stats.Failed)
	if stats.Total > 0 && stats.Failed == stats.Total {
		return nil, stats, fmt.Errorf("%w: all %d batches failed", domain.ErrReconcileUnavailable, stats.Total)
	}

	out := make([]domain.Partial, 0, len(byID))
	for _, p := range byID {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Partial) int { return cmp.Compare(a.ID, b.ID) })
	return out, stats, nil
}

// enrich attaches payment details keyed by the payment's move. It is
// best-effort: a failed lookup leaves the rows without payment details and
// records a warning.
func (s *Service) enrich(ctx context.Context, caps erp.Capabilities, apps *domain.Applications) {
	if !caps.PaymentModel || !caps.PaymentMoveID {
		return
	}
	moveIDs := make([]int64, 0, len(apps.Rows))
	for _, r := range apps.Rows {
		moveIDs = append(moveIDs, r.PaymentMoveID)
	}
	moveIDs = erp.UniqueIDs(moveIDs)

	payments, err := s.repo.PaymentsByMove(ctx, moveIDs)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("payment enrichment failed", zap.Error(err))
		apps.Warnings = append(apps.Warnings, "payment details unavailable: "+err.Error())
		return
	}
	byMove := make(map[int64]domain.Payment, len(payments))
	for _, p := range payments {
		if _, ok := byMove[p.MoveID]; !ok {
			byMove[p.MoveID] = p
		}
	}
	for i := range apps.Rows {
		p, ok := byMove[apps.Rows[i].PaymentMoveID]
		if !ok {
			continue
		}
		fillPayment(&apps.Rows[i], p)
	}
}

// fallback attributes each posted payment's full amount to every invoice it
// lists as reconciled. A payment split across invoices is over-attributed.
func (s *Service) fallback(ctx context.Context, caps erp.Capabilities, invoiceIDs []int64, invoices map[int64]domain.Invoice, reason string, stats domain.BatchStats) (domain.Applications, error) {
	log := logger.WithContext(ctx, s.log)
	s.metrics.IncFallback(reason)

	apps := emptyApplications(domain.SourceFallback)
	apps.FallbackReason = reason
	apps.Batches = stats

	if !caps.CanFallback() {
		log.Info("no payment source available", zap.String("reason", reason))
		apps.Source = domain.SourceNone
		return apps, nil
	}
	log.Info("using reconciled invoice links", zap.String("reason", reason), zap.Int("invoices", len(invoiceIDs)))

	payments, err := s.repo.PaymentsByInvoice(ctx, invoiceIDs)
	if err != nil {
		return domain.Applications{}, fmt.Errorf("payments by invoice: %w", err)
	}
	for _, p := range payments {
		for _, invoiceID := range p.ReconciledInvoiceIDs {
			inv, ok := invoices[invoiceID]
			if !ok || (caps.MoveState && inv.State != domain.MoveStatePosted) {
				continue
			}
			row := domain.PaymentRow{
				InvoiceID:           inv.ID,
				Invoice:             inv.Name,
				InvoiceOrigin:       inv.Origin,
				InvoicePaymentState: inv.PaymentState,
				PaymentMoveID:       p.MoveID,
				Applied:             p.Amount,
				Customer:            p.Customer,
			}
			fillPayment(&row, p)
			apps.Rows = append(apps.Rows, row)
			apps.AppliedByInvoice[inv.ID] = apps.AppliedByInvoice[inv.ID].Add(p.Amount)
		}
	}
	return apps, nil
}

func fillPayment(row *domain.PaymentRow, p domain.Payment) {
	row.PaymentID = p.ID
	row.Payment = p.Name
	row.PaymentDate = p.Date
	row.PaymentAmount = p.Amount
	row.Journal = p.Journal
	row.Reference = p.Reference
	if row.Customer == "" {
		row.Customer = p.Customer
	}
}

func emptyApplications(source domain.Source) domain.Applications {
	return domain.Applications{
		AppliedByInvoice: map[int64]decimal.Decimal{},
		Source:           source,
	}
}

func sortedDistinct(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
