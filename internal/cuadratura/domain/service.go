package domain

import (
	"context"

	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
)

type Service interface {
	// Run computes the report. An empty selection returns a Report with
	// Empty set and a nil error.
	Run(ctx context.Context, filter catalogdomain.Filter) (Report, error)
}
