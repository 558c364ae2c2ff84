// Package record provides confirmed writes for the collections that have no
// dedicated service: expenses, tasks, bookings, services, service categories,
// availability and blocked times.
package record

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/logger"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/zap"
)

var (
	ErrInvalidID    = errors.New("invalid_id")
	ErrNotFound     = errors.New("not_found")
	ErrInvalid      = errors.New("invalid_record")
	ErrUnknownField = errors.New("unknown_field")
	ErrEmptyPatch   = errors.New("empty_patch")
)

// Store is the confirmed CRUD surface of one collection. Writes are gated by
// the active role; reads come from the cache.
type Store[T entity.Record] struct {
	log      *zap.Logger
	session  *session.Session
	cache    *cache.Cache
	repo     repository.Repository[T]
	validate func(*cache.Cache, T) error
	columns  map[string]struct{}
}

func newStore[T entity.Record](deps repository.Deps, sess *session.Session, c *cache.Cache, validate func(*cache.Cache, T) error, columns ...string) *Store[T] {
	var zero T
	cols := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		cols[col] = struct{}{}
	}
	return &Store[T]{
		log:      deps.Log.Named("record." + string(zero.Collection())),
		session:  sess,
		cache:    c,
		repo:     repository.ProvideStore[T](deps),
		validate: validate,
		columns:  cols,
	}
}

func (s *Store[T]) Create(ctx context.Context, row T) (T, error) {
	var zero T
	if err := s.session.Require(session.ActionEdit); err != nil {
		return zero, err
	}
	if s.validate != nil {
		if err := s.validate(s.cache, row); err != nil {
			return zero, err
		}
	}
	if err := s.repo.Create(s.session.Context(ctx), &row); err != nil {
		return zero, err
	}
	return row, nil
}

// Update applies patch to a cached row. Only the collection's writable
// columns are accepted.
func (s *Store[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	if err := s.session.Require(session.ActionEdit); err != nil {
		return zero, err
	}
	if _, err := s.Get(id); err != nil {
		return zero, err
	}
	if len(patch) == 0 {
		return zero, ErrEmptyPatch
	}
	for col := range patch {
		if _, ok := s.columns[col]; !ok {
			return zero, fmt.Errorf("%w: %s", ErrUnknownField, col)
		}
	}
	return s.repo.Update(s.session.Context(ctx), id, patch)
}

func (s *Store[T]) Delete(ctx context.Context, id string) error {
	if err := s.session.Require(session.ActionDelete); err != nil {
		return err
	}
	if _, err := s.Get(id); err != nil {
		return err
	}
	ctx = s.session.Context(ctx)
	if err := s.repo.Delete(ctx, id); err != nil {
		logger.WithContext(ctx, s.log).Warn("delete rejected", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *Store[T]) Get(id string) (T, error) {
	var zero T
	if strings.TrimSpace(id) == "" {
		return zero, ErrInvalidID
	}
	row, ok := cache.Get[T](s.cache, id)
	if !ok {
		return zero, ErrNotFound
	}
	return row, nil
}

func (s *Store[T]) List() []T {
	var zero T
	records := s.cache.Records(zero.Collection())
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
