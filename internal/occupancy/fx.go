package occupancy

import (
	"github.com/smallbiznis/cuadra/internal/occupancy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("occupancy.service",
	fx.Provide(service.New),
)
