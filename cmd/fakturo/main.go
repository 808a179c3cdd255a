package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/fakturo/fakturo/internal/clock"
	"github.com/fakturo/fakturo/internal/config"
	"github.com/fakturo/fakturo/internal/invoice"
	"github.com/fakturo/fakturo/internal/logger"
	"github.com/fakturo/fakturo/internal/migration"
	"github.com/fakturo/fakturo/internal/runlock"
	"github.com/fakturo/fakturo/internal/scheduler"
	"github.com/fakturo/fakturo/internal/subscription"
	"github.com/fakturo/fakturo/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		runlock.Module,

		// Billing domains
		subscription.Module,
		invoice.Module,
		scheduler.Module,
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
