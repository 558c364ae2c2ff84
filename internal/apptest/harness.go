// Package apptest wires a session, cache and confirmed-write dependencies
// over an in-memory sqlite store for service tests.
package apptest

import (
	"testing"
	"time"

	"github.com/smallbiznis/siino/internal/cache"
	"github.com/smallbiznis/siino/internal/clock"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/guard"
	"github.com/smallbiznis/siino/internal/remote/remotetest"
	"github.com/smallbiznis/siino/internal/session"
	"github.com/smallbiznis/siino/pkg/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const TeamID = "team-a"

// Now is the harness clock's starting time.
var Now = time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)

type Harness struct {
	Store   *remotetest.Faulty
	Conn    *gorm.DB
	Session *session.Session
	Cache   *cache.Cache
	Guard   *guard.Guard
	Clock   *clock.FakeClock
	Deps    repository.Deps
}

// New activates TeamID with the given role.
func New(t testing.TB, role entity.TeamRole) *Harness {
	t.Helper()
	store, conn := remotetest.NewStore(t)
	enforcer, err := session.NewEnforcer()
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	sess := session.New(session.Params{Log: zap.NewNop(), Store: store, Enforcer: enforcer})
	if err := sess.Activate(
		entity.User{ID: "user-1", Email: "owner@example.com"},
		entity.Team{ID: TeamID, Name: "Studio"},
		entity.TeamMember{ID: "member-1", TeamID: TeamID, Role: role},
	); err != nil {
		t.Fatalf("activate: %v", err)
	}

	c := cache.New(cache.Params{Log: zap.NewNop(), Store: store, Scope: sess})
	clk := clock.NewFakeClock(Now)
	return &Harness{
		Store:   store,
		Conn:    conn,
		Session: sess,
		Cache:   c,
		Guard:   guard.New(c),
		Clock:   clk,
		Deps:    repository.Deps{Log: zap.NewNop(), Remote: store, Cache: c, Scope: sess, Clock: clk},
	}
}

// Seed creates rows directly in the store, bypassing the cache.
func (h *Harness) Seed(t testing.TB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		if err := h.Conn.Create(row).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
}

func Ptr[T any](v T) *T { return &v }
