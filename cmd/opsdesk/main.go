package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/opsdesk/internal/config"
	"github.com/smallbiznis/opsdesk/internal/logger"
	"github.com/smallbiznis/opsdesk/internal/migration"
	"github.com/smallbiznis/opsdesk/internal/observability"
	"github.com/smallbiznis/opsdesk/internal/server"
	"github.com/smallbiznis/opsdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// server.Module pulls in every domain module plus the event bus,
		// automation handlers, scheduler, and rate limiter.
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
