package domain

import (
	"context"
	"time"
)

// OrderQuery is the part of a filter evaluated by the ERP.
type OrderQuery struct {
	From            time.Time
	To              time.Time
	InvoiceStatuses []string
	TeamID          int64
}

type Repository interface {
	// Lines returns every line of the confirmed orders matching q. Labels are
	// left to the caller.
	Lines(ctx context.Context, q OrderQuery) ([]Line, error)
	Teams(ctx context.Context) ([]Team, error)
}
