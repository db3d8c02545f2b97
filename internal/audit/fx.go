package audit

import (
	auditdomain "github.com/smallbiznis/cuadra/internal/audit/domain"
	"github.com/smallbiznis/cuadra/internal/audit/repository"
	"github.com/smallbiznis/cuadra/internal/audit/service"
	"go.uber.org/fx"
)

// Module stores report runs and exposes the recorder the cuadratura,
// occupancy and sales services file their runs through.
var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
	fx.Provide(
		fx.Annotate(NewRunRecorder, fx.As(new(auditdomain.Recorder))),
	),
)
