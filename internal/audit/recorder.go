package audit

import (
	"context"
	"strings"

	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	obscontext "github.com/smallbiznis/cuadra/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type RecorderParams struct {
	fx.In

	Log     *zap.Logger
	Service auditdomain.Service
}

// RunRecorder writes report runs to the run history on behalf of the report
// services. The session comes from the request context when the caller does
// not set one, and the write outlives request cancellation.
type RunRecorder struct {
	log *zap.Logger
	svc auditdomain.Service
}

func NewRunRecorder(p RecorderParams) *RunRecorder {
	return &RunRecorder{
		log: p.Log.Named("audit.recorder"),
		svc: p.Service,
	}
}

func (r *RunRecorder) Record(ctx context.Context, req auditdomain.RecordRequest) {
	if r == nil || r.svc == nil {
		return
	}
	if strings.TrimSpace(req.Session) == "" {
		req.Session = obscontext.SessionIDFromContext(ctx)
	}
	if _, err := r.svc.Record(context.WithoutCancel(ctx), req); err != nil {
		r.log.Warn("report run not recorded",
			zap.String("page", req.Page),
			zap.String("outcome", req.Outcome),
			zap.Error(err),
		)
	}
}
