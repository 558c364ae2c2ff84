// Package entity contains the team-scoped records held by the cache and
// persisted through the remote store.
package entity

// Collection names a family of records. The value doubles as the table name
// on the remote store.
type Collection string

const (
	CollectionTeams             Collection = "teams"
	CollectionUsers             Collection = "users"
	CollectionTeamMembers       Collection = "team_members"
	CollectionClients           Collection = "clients"
	CollectionProjects          Collection = "projects"
	CollectionProjectStatuses   Collection = "project_statuses"
	CollectionProjectTypes      Collection = "project_types"
	CollectionInvoices          Collection = "invoices"
	CollectionInvoiceLineItems  Collection = "invoice_line_items"
	CollectionExpenses          Collection = "expenses"
	CollectionTasks             Collection = "tasks"
	CollectionTaskStatuses      Collection = "task_statuses"
	CollectionServices          Collection = "services"
	CollectionServiceCategories Collection = "service_categories"
	CollectionBookings          Collection = "bookings"
	CollectionTeamAvailability  Collection = "team_availability"
	CollectionBlockedTimes      Collection = "blocked_times"
)

// CachedCollections lists every collection the cache keeps for the active team.
var CachedCollections = []Collection{
	CollectionClients,
	CollectionProjects,
	CollectionProjectStatuses,
	CollectionProjectTypes,
	CollectionInvoices,
	CollectionExpenses,
	CollectionTasks,
	CollectionTaskStatuses,
	CollectionServices,
	CollectionServiceCategories,
	CollectionBookings,
	CollectionTeamAvailability,
	CollectionBlockedTimes,
	CollectionTeamMembers,
}

// Table returns the remote table backing the collection.
func (c Collection) Table() string { return string(c) }

// TeamScoped reports whether rows of the collection carry a team_id column.
func (c Collection) TeamScoped() bool {
	switch c {
	case CollectionTeams, CollectionUsers:
		return false
	default:
		return true
	}
}

// Record is implemented by every cached entity.
type Record interface {
	RecordID() string
	RecordTeamID() string
	Collection() Collection
}

// Cached reports whether the cache keeps records of the collection.
func (c Collection) Cached() bool {
	for _, cached := range CachedCollections {
		if cached == c {
			return true
		}
	}
	return false
}
