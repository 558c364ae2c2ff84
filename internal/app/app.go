// Package app assembles the core into an fx graph.
package app

import (
	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/client"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/config"
	"github.com/smallbiznis/siino/internal/dashboard"
	"github.com/smallbiznis/siino/internal/export"
	"github.com/smallbiznis/siino/internal/guard"
	"github.com/smallbiznis/siino/internal/invoice"
	"github.com/smallbiznis/siino/internal/migration"
	"github.com/smallbiznis/siino/internal/observability"
	"github.com/smallbiznis/siino/internal/project"
	"github.com/smallbiznis/siino/internal/record"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/remote/gormstore"
	"github.com/smallbiznis/siino/internal/remote/reststore"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/internal/team"
	"github.com/smallbiznis/siino/pkg/db"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Options builds the full core for cfg. The store adapter is chosen here so
// a REST deployment never opens a database.
func Options(cfg config.Config) fx.Option {
	return fx.Options(
		fx.Supply(cfg),
		config.Module,
		observability.Module,
		clock.Module,
		StoreModule(cfg),

		session.Module,
		fx.Provide(
			func(s *session.Session) cache.Scope { return s },
			func(s *session.Session) repository.Scope { return s },
			func(c *cache.Cache) repository.Cache { return c },
		),
		cache.Module,
		guard.Module,

		client.Module,
		project.Module,
		team.Module,
		invoice.Module,
		record.Module,
		dashboard.Module,
		export.Module,

		fx.Invoke(clearCacheOnSignOut),
	)
}

// StoreModule provides remote.Store from the configured adapter.
func StoreModule(cfg config.Config) fx.Option {
	if cfg.UsesRest() {
		return fx.Module("store.rest",
			fx.Provide(func(c config.Config, log *zap.Logger) remote.Store {
				return reststore.New(c.Rest, log)
			}),
		)
	}
	return fx.Module("store.gorm",
		db.Module,
		migration.Module,
		fx.Provide(func(conn *gorm.DB, log *zap.Logger) remote.Store {
			return gormstore.New(conn, log)
		}),
	)
}

func clearCacheOnSignOut(s *session.Session, c *cache.Cache, log *zap.Logger) {
	s.OnSignOut(func() {
		c.ClearAll()
		log.Named("app").Info("cache cleared on sign out")
	})
}
