package remote

import (
	"errors"
	"fmt"
	"testing"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsSentinel(t *testing.T) {
	err := Wrap(OpDelete, entity.CollectionClients, ErrReferenced)

	var re *Error
	assert.True(t, errors.As(err, &re))
	assert.Equal(t, OpDelete, re.Op)
	assert.ErrorIs(t, err, ErrReferenced)
	assert.Nil(t, Wrap(OpDelete, entity.CollectionClients, nil))

	again := Wrap(OpInsert, entity.CollectionInvoices, fmt.Errorf("ctx: %w", err))
	assert.True(t, errors.As(again, &re))
	assert.Equal(t, OpDelete, re.Op)
}

func TestQueryValidate(t *testing.T) {
	assert.ErrorIs(t, Query{}.Validate(), ErrInvalidQuery)
	assert.ErrorIs(t, Query{Collection: entity.CollectionClients}.Validate(), ErrMissingTeam)
	assert.NoError(t, Query{Collection: entity.CollectionTeamMembers, AllowUnscoped: true}.Validate())
	assert.NoError(t, Query{Collection: entity.CollectionTeams}.Validate())
	assert.ErrorIs(t, Write{Collection: entity.CollectionInvoices}.Validate(), ErrMissingTeam)
}

func TestJoinsForReturnsCopy(t *testing.T) {
	first := JoinsFor(entity.CollectionInvoices)
	first[0].Key = "mutated"
	assert.Equal(t, "client", JoinsFor(entity.CollectionInvoices)[0].Key)
	assert.Empty(t, JoinsFor(entity.CollectionClients))
}

func TestScopedQuery(t *testing.T) {
	q := ScopedQuery(entity.CollectionProjects, "team-1")
	assert.Equal(t, "team-1", q.TeamID)
	assert.Len(t, q.Joins, 3)
	assert.Equal(t, []Order{{Column: "created_at", Desc: true}}, q.Order)
}
