package cuadratura

import (
	"github.com/smallbiznis/cuadra/internal/cuadratura/service"
	"go.uber.org/fx"
)

var Module = fx.Module("cuadratura.service",
	fx.Provide(service.New),
)
