package domain

import (
	"context"

	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
)

type Service interface {
	Report(ctx context.Context, filter catalogdomain.Filter) (Report, error)
}
