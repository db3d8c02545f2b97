package domain

import (
	"context"
	"errors"

	catalogdomain "github.com/smallbiznis/cuadra/internal/catalog/domain"
	"github.com/smallbiznis/cuadra/internal/erp"
)

type Service interface {
	Join(ctx context.Context, caps erp.Capabilities, products []catalogdomain.Product) (JoinResult, error)
	Applications(ctx context.Context, caps erp.Capabilities, invoices []Invoice) (Applications, error)
}

// ErrReconcileUnavailable means no partial reconciliation could be read.
// It selects the fallback path and is never returned to callers.
var ErrReconcileUnavailable = errors.New("reconcile_unavailable")
