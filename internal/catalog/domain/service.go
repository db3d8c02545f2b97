package domain

import (
	"context"
	"errors"
)

type Service interface {
	Templates(ctx context.Context) ([]Template, error)
	TemplateIDs(ctx context.Context, filter Filter) ([]int64, error)
	Products(ctx context.Context, templateIDs []int64, code string) ([]Product, error)
	Options(ctx context.Context) (Options, error)
}

// ErrNoTemplates and ErrNoProducts signal a legitimately empty selection.
// Callers treat them as an informational state, not a failure.
var (
	ErrNoTemplates           = errors.New("no_templates_match")
	ErrNoProducts            = errors.New("no_products_match")
	ErrInvalidDepartureMonth = errors.New("invalid_departure_month")
)

// IsEmpty reports whether err is one of the empty-result signals.
func IsEmpty(err error) bool {
	return errors.Is(err, ErrNoTemplates) || errors.Is(err, ErrNoProducts)
}
