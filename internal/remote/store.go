// Package remote defines the system-of-record boundary. The cache never
// writes to itself without a confirmed response from a Store.
package remote

import (
	"context"

	"github.com/smallbiznis/siino/internal/entity"
)

// Store is the remote system of record.
//
// Select fills dest, a pointer to a slice of entity values, with the rows
// matching q, joins resolved. Insert persists row (a pointer to an entity)
// and overwrites it with the confirmed, join-enriched row. Update applies
// patch to the row with the given id and decodes the confirmed row into
// dest. Delete removes the row.
type Store interface {
	Select(ctx context.Context, q Query, dest any) error
	Insert(ctx context.Context, w Write, row any) error
	Update(ctx context.Context, w Write, id string, patch map[string]any, dest any) error
	Delete(ctx context.Context, w Write, id string) error
}

// Query describes a read.
type Query struct {
	Collection entity.Collection
	TeamID     string
	Eq         map[string]any
	Joins      []Join
	Order      []Order
	Limit      int

	// AllowUnscoped permits a read without a team filter. Only the session
	// lookup of a user's memberships uses it.
	AllowUnscoped bool
}

// Write identifies the target of a mutation.
type Write struct {
	Collection entity.Collection
	TeamID     string
}

// Order sorts a query by one column.
type Order struct {
	Column string
	Desc   bool
}

// Join is a related record embedded in the result.
type Join struct {
	// Field is the Go field holding the related record(s).
	Field string
	// Key is the JSON key the related record is returned under.
	Key string
	// Collection is the table the related record lives in.
	Collection entity.Collection
	// OrderBy optionally sorts a to-many join.
	OrderBy *Order
}

// ScopedQuery builds the standard team-scoped read for a collection, with
// its registered joins and fetch order.
func ScopedQuery(collection entity.Collection, teamID string) Query {
	return Query{
		Collection: collection,
		TeamID:     teamID,
		Joins:      JoinsFor(collection),
		Order:      OrderFor(collection),
	}
}

func (q Query) Validate() error {
	if q.Collection == "" {
		return ErrInvalidQuery
	}
	if q.Collection.TeamScoped() && q.TeamID == "" && !q.AllowUnscoped {
		return ErrMissingTeam
	}
	return nil
}

func (w Write) Validate() error {
	if w.Collection == "" {
		return ErrInvalidQuery
	}
	if w.Collection.TeamScoped() && w.TeamID == "" {
		return ErrMissingTeam
	}
	return nil
}
