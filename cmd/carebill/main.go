package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/carebill/carebill/internal/clock"
	"github.com/carebill/carebill/internal/config"
	"github.com/carebill/carebill/internal/migration"
	"github.com/carebill/carebill/internal/observability"
	"github.com/carebill/carebill/internal/server"
	"github.com/carebill/carebill/pkg/db"
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
