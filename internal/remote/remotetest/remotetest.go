// Package remotetest provides a sqlite-backed store and fault injection for tests.
package remotetest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/migration"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/remote/gormstore"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OpenDB opens a private in-memory sqlite database with the schema applied.
func OpenDB(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_", "#", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// one connection keeps concurrent test readers from tripping sqlite table locks
	if sqlDB, err := conn.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := migration.AutoMigrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return conn
}

// NewStore returns a Faulty store over a fresh sqlite database.
func NewStore(t testing.TB) (*Faulty, *gorm.DB) {
	t.Helper()
	conn := OpenDB(t)
	return &Faulty{Store: gormstore.New(conn, zap.NewNop())}, conn
}

// Call records one store operation.
type Call struct {
	Op         string
	Collection entity.Collection
	TeamID     string
}

type fault struct {
	op         string
	collection entity.Collection
	err        error
	remaining  int
}

// Faulty wraps a Store, records calls and fails chosen operations.
type Faulty struct {
	remote.Store

	mu     sync.Mutex
	faults []*fault
	calls  []Call

	// BeforeSelect, when set, runs before each Select reaches the inner store.
	BeforeSelect func(ctx context.Context, q remote.Query)
}

// FailOn makes the next times calls of op on collection return err. A
// non-positive times fails every call.
func (f *Faulty) FailOn(op string, collection entity.Collection, err error, times int) {
	if times <= 0 {
		times = -1
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, &fault{op: op, collection: collection, err: err, remaining: times})
}

func (f *Faulty) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CountCalls returns how many times op ran against collection.
func (f *Faulty) CountCalls(op string, collection entity.Collection) int {
	n := 0
	for _, c := range f.Calls() {
		if c.Op == op && c.Collection == collection {
			n++
		}
	}
	return n
}

func (f *Faulty) record(op string, collection entity.Collection, teamID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Op: op, Collection: collection, TeamID: teamID})
	for _, ft := range f.faults {
		if ft.op != op || ft.collection != collection {
			continue
		}
		if ft.remaining == 0 {
			continue
		}
		if ft.remaining > 0 {
			ft.remaining--
		}
		return remote.Wrap(op, collection, ft.err)
	}
	return nil
}

func (f *Faulty) Select(ctx context.Context, q remote.Query, dest any) error {
	if f.BeforeSelect != nil {
		f.BeforeSelect(ctx, q)
	}
	if err := f.record(remote.OpSelect, q.Collection, q.TeamID); err != nil {
		return err
	}
	return f.Store.Select(ctx, q, dest)
}

func (f *Faulty) Insert(ctx context.Context, w remote.Write, row any) error {
	if err := f.record(remote.OpInsert, w.Collection, w.TeamID); err != nil {
		return err
	}
	return f.Store.Insert(ctx, w, row)
}

func (f *Faulty) Update(ctx context.Context, w remote.Write, id string, patch map[string]any, dest any) error {
	if err := f.record(remote.OpUpdate, w.Collection, w.TeamID); err != nil {
		return err
	}
	return f.Store.Update(ctx, w, id, patch, dest)
}

func (f *Faulty) Delete(ctx context.Context, w remote.Write, id string) error {
	if err := f.record(remote.OpDelete, w.Collection, w.TeamID); err != nil {
		return err
	}
	return f.Store.Delete(ctx, w, id)
}
