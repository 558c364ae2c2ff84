package session

import (
	"context"
	"testing"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote/remotetest"
	"github.com/smallbiznis/siino/internal/teamcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSession(t *testing.T) (*Session, *remotetest.Faulty) {
	t.Helper()
	store, _ := remotetest.NewStore(t)
	enforcer, err := NewEnforcer()
	require.NoError(t, err)
	return New(Params{Log: zap.NewNop(), Store: store, Enforcer: enforcer}), store
}

func ptr[T any](v T) *T { return &v }

func TestRequireTeamWithoutActivation(t *testing.T) {
	s, _ := newSession(t)

	_, err := s.RequireTeam()
	assert.ErrorIs(t, err, ErrNoActiveTeam)
	assert.ErrorIs(t, s.Require(ActionEdit), ErrNoActiveTeam)
	assert.False(t, s.Can(ActionEdit))
}

func TestActivateBumpsGeneration(t *testing.T) {
	s, _ := newSession(t)
	team := entity.Team{ID: "team-a"}

	require.NoError(t, s.Activate(entity.User{ID: "u1"}, team, entity.TeamMember{TeamID: "team-a", Role: entity.RoleOwner}))
	first := s.Generation()
	require.NoError(t, s.Activate(entity.User{ID: "u1"}, entity.Team{ID: "team-b"}, entity.TeamMember{TeamID: "team-b", Role: entity.RoleOwner}))

	assert.Greater(t, s.Generation(), first)
	assert.Equal(t, "team-b", s.TeamID())

	err := s.Activate(entity.User{ID: "u1"}, team, entity.TeamMember{TeamID: "team-b"})
	assert.ErrorIs(t, err, ErrMemberMismatch)
}

func TestSignOutRunsHooksAndClearsScope(t *testing.T) {
	s, _ := newSession(t)
	require.NoError(t, s.Activate(entity.User{ID: "u1"}, entity.Team{ID: "team-a"}, entity.TeamMember{TeamID: "team-a", Role: entity.RoleAdmin}))

	cleared := 0
	s.OnSignOut(func() { cleared++ })
	gen := s.Generation()
	s.SignOut()

	assert.Equal(t, 1, cleared)
	assert.Empty(t, s.TeamID())
	assert.Greater(t, s.Generation(), gen)
}

func TestRolePermissions(t *testing.T) {
	cases := []struct {
		role   entity.TeamRole
		edit   bool
		delete bool
		invite bool
	}{
		{entity.RoleOwner, true, true, true},
		{entity.RoleAdmin, true, true, true},
		{entity.RoleMember, true, false, false},
		{entity.RoleViewer, false, false, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			s, _ := newSession(t)
			require.NoError(t, s.Activate(entity.User{ID: "u1"}, entity.Team{ID: "team-a"}, entity.TeamMember{TeamID: "team-a", Role: tc.role}))

			assert.Equal(t, tc.edit, s.Can(ActionEdit))
			assert.Equal(t, tc.delete, s.Can(ActionDelete))
			assert.Equal(t, tc.invite, s.Can(ActionInvite))
			if !tc.delete {
				assert.ErrorIs(t, s.Require(ActionDelete), ErrForbidden)
			}
		})
	}
}

func TestResumeLoadsAcceptedMembership(t *testing.T) {
	store, conn := remotetest.NewStore(t)
	enforcer, err := NewEnforcer()
	require.NoError(t, err)
	s := New(Params{Log: zap.NewNop(), Store: store, Enforcer: enforcer})

	require.NoError(t, conn.Create(&entity.User{ID: "u1", Email: "owner@example.com", FullName: "Owner"}).Error)
	require.NoError(t, conn.Create(&entity.Team{ID: "team-a", Name: "Studio", Slug: "studio"}).Error)
	require.NoError(t, conn.Create(&entity.Team{ID: "team-b", Name: "Pending", Slug: "pending"}).Error)
	require.NoError(t, conn.Create(&entity.TeamMember{ID: "m0", TeamID: "team-b", UserID: ptr("u1"), Role: entity.RoleMember, InviteStatus: entity.InvitePending}).Error)
	require.NoError(t, conn.Create(&entity.TeamMember{ID: "m1", TeamID: "team-a", UserID: ptr("u1"), Role: entity.RoleOwner, InviteStatus: entity.InviteAccepted}).Error)

	require.NoError(t, s.Resume(context.Background(), "u1"))
	assert.Equal(t, "team-a", s.TeamID())

	user, ok := s.User()
	require.True(t, ok)
	assert.Equal(t, "Owner", user.FullName)

	team, ok := s.Team()
	require.True(t, ok)
	assert.Equal(t, "Studio", team.Name)

	ctx := s.Context(context.Background())
	teamID, ok := teamcontext.TeamIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "team-a", teamID)

	assert.ErrorIs(t, s.Resume(context.Background(), "nobody"), ErrNoMembership)
}
