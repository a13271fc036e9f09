package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/learnloop/learnloop/internal/clock"
	"github.com/learnloop/learnloop/internal/config"
	"github.com/learnloop/learnloop/internal/migration"
	"github.com/learnloop/learnloop/internal/observability"
	"github.com/learnloop/learnloop/internal/server"
	"github.com/learnloop/learnloop/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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
