package reconcile

import (
	"github.com/smallbiznis/cuadra/internal/reconcile/repository"
	"github.com/smallbiznis/cuadra/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
