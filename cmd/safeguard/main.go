package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/safeguardhq/safeguard/internal/migration"
	"github.com/safeguardhq/safeguard/internal/observability"
	"github.com/safeguardhq/safeguard/internal/server"
	"github.com/safeguardhq/safeguard/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// config.Module and clock.Module ride in through server.Module.
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
