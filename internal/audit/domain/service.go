package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/cuadra/pkg/db/pagination"
)

// RecordRequest describes a finished report computation.
type RecordRequest struct {
	Page      string
	Session   string
	Signature string
	Filter    any
	Outcome   string
	Err       error
	ErrorKind string
	Source    string
	Totals    any
	Duration  time.Duration
}

type ListRunsRequest struct {
	pagination.Pagination
	Page string `form:"page"`
}

type ListRunsResponse struct {
	pagination.PageInfo
	Runs []Run `json:"runs"`
}

type Service interface {
	Record(ctx context.Context, req RecordRequest) (Run, error)
	List(ctx context.Context, req ListRunsRequest) (ListRunsResponse, error)
}

// Recorder files finished report runs. Failures never reach the report.
type Recorder interface {
	Record(ctx context.Context, req RecordRequest)
}

var (
	ErrInvalidPage      = errors.New("invalid_page")
	ErrInvalidOutcome   = errors.New("invalid_outcome")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
