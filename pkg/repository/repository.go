// Package repository performs confirmed writes: a row reaches the cache only
// after the remote store has accepted it.
package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/internal/remote"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidRow = errors.New("invalid_row")

type Repository[T entity.Record] interface {
	Create(ctx context.Context, row *T) error
	Update(ctx context.Context, id string, patch map[string]any) (T, error)
	Delete(ctx context.Context, id string) error
	Find(ctx context.Context, eq map[string]any) ([]T, error)
}

// Cache receives confirmed rows. *cache.Cache satisfies it.
type Cache interface {
	Add(rec entity.Record) error
	Update(rec entity.Record) error
	Remove(collection entity.Collection, id string)
}

// Scope resolves the active team. *session.Session satisfies it.
type Scope interface {
	RequireTeam() (string, error)
}

// Deps are shared by every repository.
type Deps struct {
	fx.In

	Log     *zap.Logger
	Remote  remote.Store
	Cache   Cache
	Scope   Scope
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}
