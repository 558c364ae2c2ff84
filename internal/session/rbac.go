package session

import (
	_ "embed"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/smallbiznis/siino/internal/entity"
)

//go:embed rbac_model.conf
var modelText string

// Action is something a team member may be allowed to do.
type Action string

const (
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
	ActionInvite Action = "invite"
)

func roleSubject(role entity.TeamRole) string {
	return "role:" + string(role)
}

// NewEnforcer builds the role policy: owners and admins may edit, delete and
// invite; members may edit; viewers may only read.
func NewEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}

	policies := [][]string{
		{roleSubject(entity.RoleMember), string(ActionEdit)},

		{roleSubject(entity.RoleAdmin), string(ActionDelete)},
		{roleSubject(entity.RoleAdmin), string(ActionInvite)},
	}
	if _, err := enforcer.AddPolicies(policies); err != nil {
		return nil, err
	}

	// admin inherits member, owner inherits admin
	grouping := [][]string{
		{roleSubject(entity.RoleAdmin), roleSubject(entity.RoleMember)},
		{roleSubject(entity.RoleOwner), roleSubject(entity.RoleAdmin)},
	}
	if _, err := enforcer.AddGroupingPolicies(grouping); err != nil {
		return nil, err
	}
	return enforcer, nil
}
