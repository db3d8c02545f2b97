package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/cuadra/internal/clock"
	"github.com/smallbiznis/cuadra/internal/config"
	"github.com/smallbiznis/cuadra/internal/erp"
	"github.com/smallbiznis/cuadra/internal/migration"
	"github.com/smallbiznis/cuadra/internal/observability"
	"github.com/smallbiznis/cuadra/internal/server"
	"github.com/smallbiznis/cuadra/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		erp.Module,

		// Report API, sessions and run history
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
