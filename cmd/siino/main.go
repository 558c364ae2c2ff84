package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/smallbiznis/siino/internal/app"
	"github.com/smallbiznis/siino/internal/cli"
	"github.com/smallbiznis/siino/internal/config"
	"github.com/smallbiznis/siino/internal/migration"
	"github.com/smallbiznis/siino/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	root := cli.NewRootCommand(cli.Deps{
		Open: func(ctx context.Context) (*cli.Core, func(), error) {
			return open(ctx, cfg)
		},
		Migrate: func(context.Context) error {
			return migrate(cfg)
		},
	})
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}

func open(ctx context.Context, cfg config.Config) (*cli.Core, func(), error) {
	var core cli.Core
	fxApp := fx.New(
		app.Options(cfg),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx").WithOptions(zap.IncreaseLevel(zap.WarnLevel))}
		}),
		fx.Invoke(func(c cli.Core) { core = c }),
	)
	if err := fxApp.Start(ctx); err != nil {
		return nil, nil, err
	}
	return &core, func() { _ = fxApp.Stop(context.Background()) }, nil
}

func migrate(cfg config.Config) error {
	if cfg.UsesRest() {
		return errors.New("migrate needs the gorm store driver")
	}
	log, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	conn, err := db.Open(db.FromAppConfig(cfg), log)
	if err != nil {
		return err
	}
	if sqlDB, err := conn.DB(); err == nil {
		defer sqlDB.Close()
	}
	return migration.Apply(conn)
}
