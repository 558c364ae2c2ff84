package cache

import (
	"github.com/smallbiznis/siino/internal/entity"
)

// Snapshot is a point-in-time copy of every collection.
type Snapshot struct {
	Clients           []entity.Client
	Projects          []entity.Project
	ProjectStatuses   []entity.ProjectStatus
	ProjectTypes      []entity.ProjectType
	Invoices          []entity.Invoice
	Expenses          []entity.Expense
	Tasks             []entity.Task
	TaskStatuses      []entity.TaskStatus
	Services          []entity.Service
	ServiceCategories []entity.ServiceCategory
	Bookings          []entity.Booking
	Availability      []entity.TeamAvailability
	BlockedTimes      []entity.BlockedTime
	TeamMembers       []entity.TeamMember
}

func (c *Cache) Snapshot() Snapshot {
	return Snapshot{
		Clients:           c.Clients(),
		Projects:          c.Projects(),
		ProjectStatuses:   c.ProjectStatuses(),
		ProjectTypes:      c.ProjectTypes(),
		Invoices:          c.Invoices(),
		Expenses:          c.Expenses(),
		Tasks:             c.Tasks(),
		TaskStatuses:      c.TaskStatuses(),
		Services:          c.Services(),
		ServiceCategories: c.ServiceCategories(),
		Bookings:          c.Bookings(),
		Availability:      c.Availability(),
		BlockedTimes:      c.BlockedTimes(),
		TeamMembers:       c.TeamMembers(),
	}
}

// Records returns a copy of one collection in cache order.
func (c *Cache) Records(collection entity.Collection) []entity.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]entity.Record(nil), c.data[collection]...)
}

func (c *Cache) Clients() []entity.Client { return list[entity.Client](c, entity.CollectionClients) }
func (c *Cache) Projects() []entity.Project {
	return list[entity.Project](c, entity.CollectionProjects)
}
func (c *Cache) ProjectStatuses() []entity.ProjectStatus {
	return list[entity.ProjectStatus](c, entity.CollectionProjectStatuses)
}
func (c *Cache) ProjectTypes() []entity.ProjectType {
	return list[entity.ProjectType](c, entity.CollectionProjectTypes)
}
func (c *Cache) Invoices() []entity.Invoice {
	return list[entity.Invoice](c, entity.CollectionInvoices)
}
func (c *Cache) Expenses() []entity.Expense {
	return list[entity.Expense](c, entity.CollectionExpenses)
}
func (c *Cache) Tasks() []entity.Task { return list[entity.Task](c, entity.CollectionTasks) }
func (c *Cache) TaskStatuses() []entity.TaskStatus {
	return list[entity.TaskStatus](c, entity.CollectionTaskStatuses)
}
func (c *Cache) Services() []entity.Service {
	return list[entity.Service](c, entity.CollectionServices)
}
func (c *Cache) ServiceCategories() []entity.ServiceCategory {
	return list[entity.ServiceCategory](c, entity.CollectionServiceCategories)
}
func (c *Cache) Bookings() []entity.Booking {
	return list[entity.Booking](c, entity.CollectionBookings)
}
func (c *Cache) Availability() []entity.TeamAvailability {
	return list[entity.TeamAvailability](c, entity.CollectionTeamAvailability)
}
func (c *Cache) BlockedTimes() []entity.BlockedTime {
	return list[entity.BlockedTime](c, entity.CollectionBlockedTimes)
}
func (c *Cache) TeamMembers() []entity.TeamMember {
	return list[entity.TeamMember](c, entity.CollectionTeamMembers)
}

// ActiveProjects excludes archived projects.
func (c *Cache) ActiveProjects() []entity.Project {
	return filterProjects(c.Projects(), false)
}

// ArchivedProjects returns only archived projects.
func (c *Cache) ArchivedProjects() []entity.Project {
	return filterProjects(c.Projects(), true)
}

func filterProjects(projects []entity.Project, archived bool) []entity.Project {
	out := make([]entity.Project, 0, len(projects))
	for _, p := range projects {
		if p.IsArchived == archived {
			out = append(out, p)
		}
	}
	return out
}

func (c *Cache) Client(id string) (entity.Client, bool) {
	return find[entity.Client](c, entity.CollectionClients, id)
}

func (c *Cache) Project(id string) (entity.Project, bool) {
	return find[entity.Project](c, entity.CollectionProjects, id)
}

func (c *Cache) Invoice(id string) (entity.Invoice, bool) {
	return find[entity.Invoice](c, entity.CollectionInvoices, id)
}

func list[T entity.Record](c *Cache, collection entity.Collection) []T {
	c.mu.RLock()
	defer c.mu.RUnlock()

	records := c.data[collection]
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if v, ok := rec.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func find[T entity.Record](c *Cache, collection entity.Collection, id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, rec := range c.data[collection] {
		if rec.RecordID() == id {
			v, ok := rec.(T)
			return v, ok
		}
	}
	var zero T
	return zero, false
}

// Get looks up one cached record of any collection by id.
func Get[T entity.Record](c *Cache, id string) (T, bool) {
	var zero T
	return find[T](c, zero.Collection(), id)
}
