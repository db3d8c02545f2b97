package main

import (
	"context"

	"github.com/smallbiznis/cuadra/internal/catalog"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/cuadratura"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/observability"
	"github.com/smallbiznis/cuadra/internal/observability/logger"
	"github.com/smallbiznis/cuadra/internal/occupancy"
	"github.com/smallbiznis/cuadra/internal/reconcile"
	"go.uber.org/fx"
)

// startApp wires the report services without the HTTP server or the run
// history and fills targets through fx.Populate.
func startApp(ctx context.Context, targets ...any) (func(), error) {
	cfg := config.Load()
	if err := cfg.ERP.Validate(); err != nil {
		return nil, err
	}
	log, err := logger.NewCLI(rootFlags.logLevel, rootFlags.verbose)
	if err != nil {
		return nil, err
	}

	app := fx.New(
		fx.NopLogger,
		fx.Supply(cfg, log),
		fx.Provide(config.NewDashboardConfigHolder),
		observability.CLIModule,
		erp.Module,
		catalog.Module,
		reconcile.Module,
		cuadratura.Module,
		occupancy.Module,
		fx.Populate(targets...),
	)
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return func() {
		_ = app.Stop(context.Background())
		_ = log.Sync()
	}, nil
}
