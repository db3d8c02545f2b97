package service

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/smallbiznis/cuadra/internal/occupancy/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Catalog catalogdomain.Service
	Config  *config.DashboardConfigHolder
	Audit   auditdomain.Recorder `optional:"true"`
	Metrics *metrics.Metrics     `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	catalog catalogdomain.Service
	cfg     *config.DashboardConfigHolder
	audit   auditdomain.Recorder
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("occupancy.service"),
		catalog: p.Catalog,
		cfg:     p.Config,
		audit:   p.Audit,
		metrics: p.Metrics,
		now:     time.Now,
	}
}

func (s *Service) Report(ctx context.Context, filter catalogdomain.Filter) (domain.Report, error) {
	start := s.now()
	filter = filter.Normalize()

	report, err := s.report(ctx, filter)
	report.Filter = filter
	report.Signature = filter.Signature()
	report.GeneratedAt = s.now().UTC()
	s.record(ctx, report, err, s.now().Sub(start))
	if err != nil {
		return domain.Report{}, err
	}
	return report, nil
}

func (s *Service) report(ctx context.Context, filter catalogdomain.Filter) (domain.Report, error) {
	if err := filter.Validate(); err != nil {
		return domain.Report{}, err
	}
	templates, err := s.catalog.Templates(ctx)
	if err != nil {
		return domain.Report{}, err
	}
	selected := filter.Apply(templates)
	if len(selected) == 0 {
		return domain.Report{Empty: true}, nil
	}

	cfg := s.cfg.Get()
	return domain.Report{
		Indicators:   domain.Summarize(selected),
		Destinations: domain.ByDestination(selected, cfg.Occupancy),
		Packages:     domain.Packages(selected, cfg, s.now()),
	}, nil
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
		Duration:  elapsed,
	}
	if err != nil {
		req.ErrorKind = erp.Kind(err)
		if errors.Is(err, catalogdomain.ErrInvalidDepartureMonth) {
			req.ErrorKind = "validation_error"
		}
	}
	if outcome == auditdomain.OutcomeOK {
		req.Totals = report.Indicators
	}
	s.audit.Record(ctx, req)
}
