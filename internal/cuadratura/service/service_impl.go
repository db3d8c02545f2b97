package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/cuadra/internal/allocation"
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/cuadratura/domain"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability/logger"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	reconciledomain "github.com/smallbiznis/cuadra/internal/reconcile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	Reader    erp.Reader
	Catalog   catalogdomain.Service
	Reconcile reconciledomain.Service
	Config    *config.DashboardConfigHolder
	Audit     auditdomain.Recorder `optional:"true"`
	Metrics   *metrics.Metrics     `optional:"true"`
}

type Service struct {
	log       *zap.Logger
	reader    erp.Reader
	catalog   catalogdomain.Service
	reconcile reconciledomain.Service
	cfg       *config.DashboardConfigHolder
	audit     auditdomain.Recorder
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		log:       p.Log.Named("cuadratura.service"),
		reader:    p.Reader,
		catalog:   p.Catalog,
		reconcile: p.Reconcile,
		cfg:       p.Config,
		audit:     p.Audit,
		metrics:   p.Metrics,
		now:       time.Now,
	}
}

func (s *Service) Run(ctx context.Context, filter catalogdomain.Filter) (domain.Report, error) {
	start := s.now()
	filter = filter.Normalize()
	report, err := s.run(ctx, filter)
	report.Filter = filter
	report.Signature = filter.Signature()
	report.GeneratedAt = s.now().UTC()
	s.record(ctx, report, err, s.now().Sub(start))
	if err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

func (s *Service) run(ctx context.Context, filter catalogdomain.Filter) (domain.Report, error) {
	log := logger.WithContext(ctx, s.log)

	caps, err := erp.ResolveCapabilities(ctx, s.reader, s.log)
	if err != nil {
		return domain.Report{}, err
	}

	templateIDs, err := s.catalog.TemplateIDs(ctx, filter)
	if errors.Is(err, catalogdomain.ErrNoTemplates) {
		return emptyReport(domain.EmptyNoTemplates), nil
	}
	if err != nil {
		return domain.Report{}, err
	}

	products, err := s.catalog.Products(ctx, templateIDs, filter.ProductCode)
	if errors.Is(err, catalogdomain.ErrNoProducts) {
		return emptyReport(domain.EmptyNoProducts), nil
	}
	if err != nil {
		return domain.Report{}, err
	}

	joined, err := s.reconcile.Join(ctx, caps, products)
	if err != nil {
		return domain.Report{}, err
	}

	cfg := s.cfg.Get()
	allocations := allocation.Allocate(joined.CodeLines, allocation.InvoicedByOrder(joined.Orders))
	productRows := allocation.ProductRows(products, allocations, decimal.NewFromFloat(cfg.DiscrepancyTolerance))
	payments := attachCodes(joined.Rows, joined.Orders)

	report := domain.Report{
		Source:         joined.Source,
		FallbackReason: joined.FallbackReason,
		Batches:        joined.Batches,
		Warnings:       joined.Warnings,
		Products:       productRows,
		Orders:         joined.Orders,
		Payments:       payments,
		Allocations:    allocations,
		Totals:         allocation.Summarize(productRows, joined.Orders, payments),
	}

	log.Info("reconciliation report computed",
		zap.Int("templates", len(templateIDs)),
		zap.Int("products", len(products)),
		zap.Int("orders", len(report.Orders)),
		zap.Int("payments", len(report.Payments)),
		zap.String("source", string(report.Source)),
	)
	return report, nil
}

func (s *Service) record(ctx context.Context, report domain.Report, err error, elapsed time.Duration) {
	outcome := auditdomain.OutcomeOK
	switch {
	case err != nil:
		outcome = auditdomain.OutcomeError
	case report.Empty:
		outcome = auditdomain.OutcomeEmpty
	}
	s.metrics.RecordReportRun(ctx, domain.Page, outcome, elapsed)

	if s.audit == nil {
		return
	}
	req := auditdomain.RecordRequest{
		Page:      domain.Page,
		Signature: report.Signature,
		Filter:    report.Filter,
		Outcome:   outcome,
		Err:       err,
		ErrorKind: errorKind(err),
		Source:    string(report.Source),
		Duration:  elapsed,
	}
	if err == nil && !report.Empty {
		req.Totals = report.Totals
	}
	s.audit.Record(ctx, req)
}

// attachCodes labels each payment row with the product codes of the order
// its invoice originates from.
func attachCodes(rows []reconciledomain.PaymentRow, orders []reconciledomain.OrderRow) []reconciledomain.PaymentRow {
	codesByOrder := make(map[string][]string, len(orders))
	for _, o := range orders {
		codesByOrder[o.Order] = o.Codes
	}
	out := make([]reconciledomain.PaymentRow, len(rows))
	for i, row := range rows {
		if codes, ok := codesByOrder[strings.TrimSpace(row.InvoiceOrigin)]; ok {
			row.Codes = codes
		}
		out[i] = row
	}
	return out
}

func emptyReport(reason string) domain.Report {
	return domain.Report{
		Empty:       true,
		EmptyReason: reason,
		Source:      reconciledomain.SourceNone,
	}
}

func errorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, catalogdomain.ErrInvalidDepartureMonth) {
		return "validation_error"
	}
	return erp.Kind(err)
}
