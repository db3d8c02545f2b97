package service

import (
	"context"
	"slices"
	"strings"

	"github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const departureField = "x_studio_ida_fecha_salida"

type Params struct {
	fx.In

	Log    *zap.Logger
	Repo   domain.Repository
	Config *config.DashboardConfigHolder
}

type Service struct {
	log  *zap.Logger
	repo domain.Repository
	cfg  *config.DashboardConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		log:  p.Log.Named("catalog.service"),
		repo: p.Repo,
		cfg:  p.Config,
	}
}

// Templates lists every package with its status label resolved.
func (s *Service) Templates(ctx context.Context) ([]domain.Template, error) {
	templates, err := s.repo.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	cfg := s.cfg.Get()
	for i := range templates {
		templates[i].Status = statusLabel(cfg, templates[i].StatusCode, templates[i].StatusRaw)
		s.warnDeparture("template", templates[i].ID, templates[i].DepartureRaw)
	}
	return templates, nil
}

func (s *Service) TemplateIDs(ctx context.Context, filter domain.Filter) ([]int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	templates, err := s.Templates(ctx)
	if err != nil {
		return nil, err
	}
	ids := domain.Select(templates, filter)
	if len(ids) == 0 {
		s.log.Info("no templates match filter",
			zap.Int("templates", len(templates)),
			zap.String("signature", filter.Signature()),
		)
		return nil, domain.ErrNoTemplates
	}
	return ids, nil
}

// Products returns the variants of templateIDs, narrowed to an exact product
// code when one is given.
func (s *Service) Products(ctx context.Context, templateIDs []int64, code string) ([]domain.Product, error) {
	if len(templateIDs) == 0 {
		return nil, domain.ErrNoTemplates
	}
	products, err := s.repo.ListProducts(ctx, templateIDs)
	if err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	cfg := s.cfg.Get()
	out := products[:0]
	for _, p := range products {
		if code != "" && p.Code != code {
			continue
		}
		p.Status = statusLabel(cfg, p.StatusCode, p.StatusRaw)
		s.warnDeparture("product", p.ID, p.DepartureRaw)
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoProducts
	}
	return out, nil
}

// warnDeparture logs a departure date the ERP sent in an unknown format. The
// record is kept without a departure.
func (s *Service) warnDeparture(kind string, id int64, raw string) {
	if raw == "" {
		return
	}
	s.log.Warn("unparsable departure date",
		zap.String("kind", kind),
		zap.Int64("id", id),
		zap.String("field", departureField),
		zap.String("value", raw),
	)
}

func (s *Service) Options(ctx context.Context) (domain.Options, error) {
	templates, err := s.Templates(ctx)
	if err != nil {
		return domain.Options{}, err
	}

	var statuses, quotas, lots, destinations, months []string
	for _, t := range templates {
		statuses = append(statuses, t.Status)
		quotas = append(quotas, t.QuotaType)
		lots = append(lots, t.Lot)
		destinations = append(destinations, t.Destination)
		months = append(months, t.DepartureMonth())
	}

	opts := domain.Options{
		Statuses:        distinct(statuses),
		QuotaTypes:      distinct(quotas),
		Lots:            distinct(lots),
		Destinations:    distinct(destinations),
		DepartureMonths: distinct(months),
	}
	slices.Reverse(opts.DepartureMonths)

	for _, label := range s.cfg.Get().DefaultStatuses {
		if slices.Contains(opts.Statuses, label) {
			opts.DefaultStatuses = append(opts.DefaultStatuses, label)
		}
	}
	return opts, nil
}

// statusLabel resolves a trip status. A non-numeric value is shown as-is.
func statusLabel(cfg config.DashboardConfig, code *int, raw string) string {
	if code == nil && raw != "" {
		return raw
	}
	return cfg.StatusLabel(code)
}

func distinct(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
