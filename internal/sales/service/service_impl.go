package service

import (
	"context"
	"errors"
	"time"

	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability/logger"
	"github.com/smallbiznis/cuadra/internal/observability/metrics"
	"github.com/smallbiznis/cuadra/internal/sales/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Config  *config.DashboardConfigHolder
	Audit   auditdomain.Recorder `optional:"true"`
	Metrics *metrics.Metrics     `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	cfg     *config.DashboardConfigHolder
	audit   auditdomain.Recorder
	metrics *metrics.Metrics
	now     func() time.Time
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("sales.service"),
		repo:    p.Repo,
		cfg:     p.Config,
		audit:   p.Audit,
		metrics: p.Metrics,
		now:     time.Now,
	}
}

// Lines returns the labelled lines of confirmed orders selected by filter.
func (s *Service) Lines(ctx context.Context, filter domain.Filter) ([]domain.Line, error) {
	filter = filter.Normalize()
	from, to, err := filter.Range(s.now())
	if err != nil {
		return nil, err
	}
	lines, err := s.repo.Lines(ctx, domain.OrderQuery{
		From:            from,
		To:              to,
		InvoiceStatuses: filter.InvoiceStatuses,
		TeamID:          filter.TeamID,
	})
	if err != nil {
		return nil, err
	}

	cfg := s.cfg.Get()
	for i := range lines {
		l := &lines[i]
		l.InvoiceStatusLabel = cfg.InvoiceStatusLabel(l.InvoiceStatus)
		l.Status = statusLabel(cfg, l.StatusCode, l.StatusRaw)
		if l.Team == "" {
			l.Team = domain.NoTeam
		}
	}
	selected := filter.Apply(lines)

	logger.WithContext(ctx, s.log).Debug("sales lines loaded",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("lines", len(lines)),
		zap.Int("selected", len(selected)),
	)
	return selected, nil
}

func (s *Service) ByDestination(ctx context.Context, filter domain.Filter) (domain.DestinationReport, error) {
	start := s.now()
	filter = filter.Normalize()

	report := domain.DestinationReport{Filter: filter, Signature: filter.Signature()}
	lines, err := s.Lines(ctx, filter)
	if err == nil {
		report.Empty = len(lines) == 0
		report.Summary = domain.Summarize(lines)
		report.Destinations = domain.ByDestination(lines)
		report.Packages = domain.ByPackage(lines)
		report.Lines = lines
	}
	report.GeneratedAt = s.now().UTC()

	s.record(ctx, run{
		page:      domain.PageDestinations,
		filter:    filter,
		signature: report.Signature,
		empty:     report.Empty,
		totals:    report.Summary,
	}, err, s.now().Sub(start))
	if err != nil {
		return domain.DestinationReport{}, err
	}
	return report, nil
}

func (s *Service) ByAgency(ctx context.Context, filter domain.Filter) (domain.AgencyReport, error) {
	start := s.now()
	filter = filter.Normalize()

	report := domain.AgencyReport{Filter: filter, Signature: filter.Signature()}
	lines, err := s.Lines(ctx, filter)
	if err == nil {
		report.Empty = len(lines) == 0
		report.Totals = domain.Total(lines)
		report.Agencies = domain.ByAgency(lines)
		report.Lines = lines
	}
	report.GeneratedAt = s.now().UTC()

	s.record(ctx, run{
		page:      domain.PageAgencies,
		filter:    filter,
		signature: report.Signature,
		empty:     report.Empty,
		totals:    report.Totals,
	}, err, s.now().Sub(start))
	if err != nil {
		return domain.AgencyReport{}, err
	}
	return report, nil
}

func (s *Service) Teams(ctx context.Context) ([]domain.Team, error) {
	return s.repo.Teams(ctx)
}

type run struct {
	page      string
	filter    domain.Filter
	signature string
	empty     bool
	totals    any
}

func (s *Service) record(ctx context.Context, r run, err error, elapsed time.Duration) {
	outcome := auditdomain.OutcomeOK
	switch {
	case err != nil:
		outcome = auditdomain.OutcomeError
	case r.empty:
		outcome = auditdomain.OutcomeEmpty
	}
	s.metrics.RecordReportRun(ctx, r.page, outcome, elapsed)
	if s.audit == nil {
		return
	}

	req := auditdomain.RecordRequest{
		Page:      r.page,
		Signature: r.signature,
		Filter:    r.filter,
		Outcome:   outcome,
		Err:       err,
		ErrorKind: errorKind(err),
		Duration:  elapsed,
	}
	if outcome == auditdomain.OutcomeOK {
		req.Totals = r.totals
	}
	s.audit.Record(ctx, req)
}

func statusLabel(cfg config.DashboardConfig, code *int, raw string) string {
	if code == nil && raw != "" {
		return raw
	}
	return cfg.StatusLabel(code)
}

func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidDate), errors.Is(err, domain.ErrInvalidDateRange):
		return "validation_error"
	}
	return erp.Kind(err)
}
