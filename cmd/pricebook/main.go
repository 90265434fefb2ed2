package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pricebook/internal/clock"
	"github.com/smallbiznis/pricebook/internal/config"
	"github.com/smallbiznis/pricebook/internal/migration"
	"github.com/smallbiznis/pricebook/internal/server"
	"github.com/smallbiznis/pricebook/pkg/db"
	"github.com/smallbiznis/pricebook/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		log.Module,
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
