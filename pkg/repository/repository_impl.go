package repository

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/internal/remote"
	"go.uber.org/zap"
)

type store[T entity.Record] struct {
	deps       Deps
	log        *zap.Logger
	collection entity.Collection
}

func ProvideStore[T entity.Record](deps Deps) Repository[T] {
	var zero T
	collection := zero.Collection()
	return &store[T]{
		deps:       deps,
		log:        deps.Log.Named("repository").With(zap.String("collection", string(collection))),
		collection: collection,
	}
}

// Create stamps id, team and timestamps on row, inserts it and, once the
// store confirms, merges the confirmed row into the cache.
func (r *store[T]) Create(ctx context.Context, row *T) error {
	if row == nil {
		return ErrInvalidRow
	}
	teamID, err := r.deps.Scope.RequireTeam()
	if err != nil {
		return err
	}
	if err := stamp(row, teamID, r.deps.Clock.Now()); err != nil {
		return err
	}

	err = r.deps.Remote.Insert(ctx, r.write(teamID), row)
	r.record(ctx, remote.OpInsert, err)
	if err != nil {
		return err
	}

	r.merge(func(c Cache) error { return c.Add(*row) })
	return nil
}

func (r *store[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var confirmed T
	teamID, err := r.deps.Scope.RequireTeam()
	if err != nil {
		return confirmed, err
	}
	if id == "" {
		return confirmed, ErrInvalidRow
	}

	values := make(map[string]any, len(patch)+1)
	for k, v := range patch {
		values[k] = v
	}
	if hasField[T]("UpdatedAt") {
		values["updated_at"] = r.deps.Clock.Now()
	}

	err = r.deps.Remote.Update(ctx, r.write(teamID), id, values, &confirmed)
	r.record(ctx, remote.OpUpdate, err)
	if err != nil {
		return confirmed, err
	}

	r.merge(func(c Cache) error { return c.Update(confirmed) })
	return confirmed, nil
}

func (r *store[T]) Delete(ctx context.Context, id string) error {
	teamID, err := r.deps.Scope.RequireTeam()
	if err != nil {
		return err
	}
	if id == "" {
		return ErrInvalidRow
	}

	err = r.deps.Remote.Delete(ctx, r.write(teamID), id)
	r.record(ctx, remote.OpDelete, err)
	if err != nil {
		return err
	}

	r.merge(func(c Cache) error {
		c.Remove(r.collection, id)
		return nil
	})
	return nil
}

// Find reads straight from the store, bypassing the cache.
func (r *store[T]) Find(ctx context.Context, eq map[string]any) ([]T, error) {
	teamID, err := r.deps.Scope.RequireTeam()
	if err != nil {
		return nil, err
	}
	q := remote.ScopedQuery(r.collection, teamID)
	q.Eq = eq

	var rows []T
	if err := r.deps.Remote.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *store[T]) write(teamID string) remote.Write {
	return remote.Write{Collection: r.collection, TeamID: teamID}
}

func (r *store[T]) merge(apply func(Cache) error) {
	if r.deps.Cache == nil || !r.collection.Cached() {
		return
	}
	// The write is already confirmed; a scope change in the meantime only
	// means the row no longer belongs in this cache.
	if err := apply(r.deps.Cache); err != nil {
		r.log.Warn("confirmed row not merged into cache", zap.Error(err))
	}
}

func (r *store[T]) record(ctx context.Context, op string, err error) {
	outcome := metrics.OutcomeSuccess
	if err != nil {
		outcome = metrics.OutcomeError
		r.log.Warn("remote write failed", zap.String("op", op), zap.Error(err))
	}
	r.deps.Metrics.RecordRemoteWrite(ctx, string(r.collection), op, outcome)
}

var timeType = reflect.TypeOf(time.Time{})

// stamp fills ID, TeamID, CreatedAt and UpdatedAt. A preset TeamID must
// match teamID.
func stamp(row any, teamID string, now time.Time) error {
	v := reflect.ValueOf(row).Elem()
	if v.Kind() != reflect.Struct {
		return ErrInvalidRow
	}

	if f := v.FieldByName("ID"); f.IsValid() && f.Kind() == reflect.String && f.String() == "" {
		f.SetString(uuid.NewString())
	}
	if f := v.FieldByName("TeamID"); f.IsValid() && f.Kind() == reflect.String {
		switch f.String() {
		case "":
			f.SetString(teamID)
		case teamID:
		default:
			return fmt.Errorf("%w: row belongs to team %s", ErrInvalidRow, f.String())
		}
	}
	for _, name := range []string{"CreatedAt", "UpdatedAt"} {
		if f := v.FieldByName(name); f.IsValid() && f.Type() == timeType && f.Interface().(time.Time).IsZero() {
			f.Set(reflect.ValueOf(now))
		}
	}
	return nil
}

func hasField[T any](name string) bool {
	_, ok := reflect.TypeOf((*T)(nil)).Elem().FieldByName(name)
	return ok
}
