// Package session holds the single active team of a signed-in user.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/teamcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrNoActiveTeam    = errors.New("no_active_team")
	ErrForbidden       = errors.New("forbidden")
	ErrNoMembership    = errors.New("no_membership")
	ErrInvalidUser     = errors.New("invalid_user")
	ErrMemberMismatch  = errors.New("member_team_mismatch")
	ErrMissingTeamData = errors.New("missing_team")
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Store    remote.Store
	Enforcer *casbin.SyncedEnforcer
}

type Session struct {
	log      *zap.Logger
	store    remote.Store
	enforcer *casbin.SyncedEnforcer

	mu         sync.RWMutex
	user       *entity.User
	team       *entity.Team
	member     *entity.TeamMember
	generation uint64
	signOut    []func()
}

func New(p Params) *Session {
	return &Session{
		log:      p.Log.Named("session"),
		store:    p.Store,
		enforcer: p.Enforcer,
	}
}

// Activate makes team the active scope. Each activation bumps the generation
// so in-flight reads for a previous scope can be told apart.
func (s *Session) Activate(user entity.User, team entity.Team, member entity.TeamMember) error {
	if user.ID == "" {
		return ErrInvalidUser
	}
	if team.ID == "" {
		return ErrMissingTeamData
	}
	if member.TeamID != team.ID {
		return ErrMemberMismatch
	}

	s.mu.Lock()
	s.user = &user
	s.team = &team
	s.member = &member
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.log.Info("team activated",
		zap.String("team_id", team.ID),
		zap.String("role", string(member.Role)),
		zap.Uint64("generation", gen),
	)
	return nil
}

// Resume loads the user's accepted membership and activates its team.
func (s *Session) Resume(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidUser
	}

	var members []entity.TeamMember
	err := s.store.Select(ctx, remote.Query{
		Collection: entity.CollectionTeamMembers,
		Eq: map[string]any{
			"user_id":       userID,
			"invite_status": string(entity.InviteAccepted),
		},
		Joins: []remote.Join{
			{Field: "User", Key: "user", Collection: entity.CollectionUsers},
			{Field: "Team", Key: "team", Collection: entity.CollectionTeams},
		},
		Order:         []remote.Order{{Column: "created_at"}},
		Limit:         1,
		AllowUnscoped: true,
	}, &members)
	if err != nil {
		return err
	}
	if len(members) == 0 || members[0].Team == nil {
		return ErrNoMembership
	}

	member := members[0]
	team := *member.Team
	user := entity.User{ID: userID}
	if member.User != nil {
		user = *member.User
	}
	member.Team = nil
	member.User = nil
	return s.Activate(user, team, member)
}

// SignOut clears the scope and runs the sign-out hooks.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.user = nil
	s.team = nil
	s.member = nil
	s.generation++
	hooks := append([]func(){}, s.signOut...)
	s.mu.Unlock()

	for _, hook := range hooks {
		hook()
	}
	s.log.Info("signed out")
}

// OnSignOut registers fn to run after every sign-out.
func (s *Session) OnSignOut(fn func()) {
	s.mu.Lock()
	s.signOut = append(s.signOut, fn)
	s.mu.Unlock()
}

func (s *Session) TeamID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.team == nil {
		return ""
	}
	return s.team.ID
}

func (s *Session) RequireTeam() (string, error) {
	teamID := s.TeamID()
	if teamID == "" {
		return "", ErrNoActiveTeam
	}
	return teamID, nil
}

func (s *Session) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Team returns a copy of the active team.
func (s *Session) Team() (entity.Team, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.team == nil {
		return entity.Team{}, false
	}
	return *s.team, true
}

// ReplaceTeam swaps in a re-read copy of the active team, for example after
// its billing profile changed. A team other than the active one is ignored.
func (s *Session) ReplaceTeam(team entity.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.team != nil && s.team.ID == team.ID {
		s.team = &team
	}
}

func (s *Session) User() (entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return entity.User{}, false
	}
	return *s.user, true
}

func (s *Session) Role() (entity.TeamRole, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.member == nil {
		return "", false
	}
	return s.member.Role, true
}

// Can reports whether the active member's role allows action.
func (s *Session) Can(action Action) bool {
	role, ok := s.Role()
	if !ok {
		return false
	}
	allowed, err := s.enforcer.Enforce(roleSubject(role), string(action))
	if err != nil {
		s.log.Warn("permission check failed", zap.String("action", string(action)), zap.Error(err))
		return false
	}
	return allowed
}

func (s *Session) Require(action Action) error {
	if s.TeamID() == "" {
		return ErrNoActiveTeam
	}
	if !s.Can(action) {
		return ErrForbidden
	}
	return nil
}

// Context attaches the active team to ctx for logs and spans.
func (s *Session) Context(ctx context.Context) context.Context {
	if teamID := s.TeamID(); teamID != "" {
		return teamcontext.WithTeamID(ctx, teamID)
	}
	return ctx
}
