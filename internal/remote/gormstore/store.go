// Package gormstore implements remote.Store over a relational database.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/pkg/db"
	"github.com/smallbiznis/siino/pkg/rls"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Store struct {
	db     *gorm.DB
	log    *zap.Logger
	tracer trace.Tracer
}

func New(conn *gorm.DB, log *zap.Logger) *Store {
	return &Store{
		db:     conn,
		log:    log.Named("remote.gormstore"),
		tracer: otel.Tracer("github.com/smallbiznis/siino/internal/remote/gormstore"),
	}
}

var _ remote.Store = (*Store)(nil)

func (s *Store) Select(ctx context.Context, q remote.Query, dest any) error {
	if err := q.Validate(); err != nil {
		return remote.Wrap(remote.OpSelect, q.Collection, err)
	}

	ctx, span := s.start(ctx, remote.OpSelect, q.Collection)
	defer span.End()

	err := s.scoped(ctx, q.TeamID, func(tx *gorm.DB) error {
		stmt := tx
		if q.Collection.TeamScoped() && q.TeamID != "" {
			stmt = stmt.Where(clause.Eq{Column: clause.Column{Name: "team_id"}, Value: q.TeamID})
		}
		for _, col := range sortedKeys(q.Eq) {
			stmt = stmt.Where(clause.Eq{Column: clause.Column{Name: col}, Value: q.Eq[col]})
		}
		for _, o := range q.Order {
			stmt = stmt.Order(clause.OrderByColumn{Column: clause.Column{Name: o.Column}, Desc: o.Desc})
		}
		stmt = preload(stmt, q.Joins)
		if q.Limit > 0 {
			stmt = stmt.Limit(q.Limit)
		}
		return stmt.Find(dest).Error
	})
	return s.fail(span, remote.OpSelect, q.Collection, err)
}

func (s *Store) Insert(ctx context.Context, w remote.Write, row any) error {
	rec, err := s.checkRow(w, row)
	if err != nil {
		return remote.Wrap(remote.OpInsert, w.Collection, err)
	}

	ctx, span := s.start(ctx, remote.OpInsert, w.Collection)
	defer span.End()

	err = s.scoped(ctx, w.TeamID, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			return err
		}
		return reload(tx, w.Collection, rec.RecordID(), row)
	})
	return s.fail(span, remote.OpInsert, w.Collection, err)
}

func (s *Store) Update(ctx context.Context, w remote.Write, id string, patch map[string]any, dest any) error {
	if err := w.Validate(); err != nil {
		return remote.Wrap(remote.OpUpdate, w.Collection, err)
	}
	if len(patch) == 0 {
		return remote.Wrap(remote.OpUpdate, w.Collection, remote.ErrRejected)
	}

	ctx, span := s.start(ctx, remote.OpUpdate, w.Collection)
	defer span.End()

	err := s.scoped(ctx, w.TeamID, func(tx *gorm.DB) error {
		model := reflect.New(reflect.TypeOf(dest).Elem()).Interface()
		stmt := tx.Model(model).Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id})
		if w.Collection.TeamScoped() {
			stmt = stmt.Where(clause.Eq{Column: clause.Column{Name: "team_id"}, Value: w.TeamID})
		}
		res := stmt.Updates(patch)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return remote.ErrNotFound
		}
		return reload(tx, w.Collection, id, dest)
	})
	return s.fail(span, remote.OpUpdate, w.Collection, err)
}

func (s *Store) Delete(ctx context.Context, w remote.Write, id string) error {
	if err := w.Validate(); err != nil {
		return remote.Wrap(remote.OpDelete, w.Collection, err)
	}

	ctx, span := s.start(ctx, remote.OpDelete, w.Collection)
	defer span.End()

	err := s.scoped(ctx, w.TeamID, func(tx *gorm.DB) error {
		table := clause.Table{Name: w.Collection.Table()}
		var res *gorm.DB
		if w.Collection.TeamScoped() {
			res = tx.Exec("DELETE FROM ? WHERE id = ? AND team_id = ?", table, id, w.TeamID)
		} else {
			res = tx.Exec("DELETE FROM ? WHERE id = ?", table, id)
		}
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return remote.ErrNotFound
		}
		return nil
	})
	return s.fail(span, remote.OpDelete, w.Collection, err)
}

// scoped runs fn with the team bound for row-level security. Only postgres
// needs the surrounding transaction.
func (s *Store) scoped(ctx context.Context, teamID string, fn func(tx *gorm.DB) error) error {
	conn := s.db.WithContext(ctx)
	if teamID == "" || conn.Dialector.Name() != "postgres" {
		return fn(conn)
	}
	return conn.Transaction(func(tx *gorm.DB) error {
		if err := rls.WithTeam(tx, teamID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (s *Store) checkRow(w remote.Write, row any) (entity.Record, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(row)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, fmt.Errorf("%w: row must be a non-nil pointer", remote.ErrRejected)
	}
	rec, ok := row.(entity.Record)
	if !ok || rec.Collection() != w.Collection {
		return nil, fmt.Errorf("%w: row does not belong to %s", remote.ErrRejected, w.Collection)
	}
	if rec.RecordID() == "" {
		return nil, fmt.Errorf("%w: row has no id", remote.ErrRejected)
	}
	if w.Collection.TeamScoped() && rec.RecordTeamID() != w.TeamID {
		return nil, fmt.Errorf("%w: row belongs to another team", remote.ErrRejected)
	}
	return rec, nil
}

func (s *Store) start(ctx context.Context, op string, collection entity.Collection) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "gormstore."+op, trace.WithAttributes(
		attribute.String("collection", string(collection)),
	))
}

func (s *Store) fail(span trace.Span, op string, collection entity.Collection, err error) error {
	if err == nil {
		return nil
	}
	err = classify(err)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errors.Is(err, remote.ErrUnavailable) {
		s.log.Warn("remote call failed",
			zap.String("op", op),
			zap.String("collection", string(collection)),
			zap.Error(err),
		)
	}
	return remote.Wrap(op, collection, err)
}

// reload reads the confirmed row back with its joins and copies it into dest.
func reload(tx *gorm.DB, collection entity.Collection, id string, dest any) error {
	fresh := reflect.New(reflect.TypeOf(dest).Elem())
	stmt := preload(tx, remote.JoinsFor(collection))
	if err := stmt.Where(clause.Eq{Column: clause.Column{Name: "id"}, Value: id}).First(fresh.Interface()).Error; err != nil {
		return err
	}
	reflect.ValueOf(dest).Elem().Set(fresh.Elem())
	return nil
}

func preload(stmt *gorm.DB, joins []remote.Join) *gorm.DB {
	for _, j := range joins {
		if j.OrderBy == nil {
			stmt = stmt.Preload(j.Field)
			continue
		}
		order := clause.OrderByColumn{Column: clause.Column{Name: j.OrderBy.Column}, Desc: j.OrderBy.Desc}
		stmt = stmt.Preload(j.Field, func(db *gorm.DB) *gorm.DB {
			return db.Order(order)
		})
	}
	return stmt
}

func classify(err error) error {
	switch {
	case errors.Is(err, remote.ErrNotFound), errors.Is(err, remote.ErrRejected):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return remote.ErrNotFound
	case db.IsDuplicateKeyErr(err):
		return fmt.Errorf("%w: %w", remote.ErrConflict, err)
	case db.IsForeignKeyErr(err):
		return fmt.Errorf("%w: %w", remote.ErrReferenced, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", remote.ErrUnavailable, err)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
