package remote

import "github.com/smallbiznis/siino/internal/entity"

var joins = map[entity.Collection][]Join{
	entity.CollectionProjects: {
		{Field: "Client", Key: "client", Collection: entity.CollectionClients},
		{Field: "Status", Key: "status", Collection: entity.CollectionProjectStatuses},
		{Field: "ProjectType", Key: "project_type", Collection: entity.CollectionProjectTypes},
	},
	entity.CollectionInvoices: {
		{Field: "Client", Key: "client", Collection: entity.CollectionClients},
		{Field: "LineItems", Key: "line_items", Collection: entity.CollectionInvoiceLineItems, OrderBy: &Order{Column: "sort_order"}},
	},
	entity.CollectionExpenses: {
		{Field: "Project", Key: "project", Collection: entity.CollectionProjects},
	},
	entity.CollectionTasks: {
		{Field: "Project", Key: "project", Collection: entity.CollectionProjects},
		{Field: "Status", Key: "status", Collection: entity.CollectionTaskStatuses},
	},
	entity.CollectionServices: {
		{Field: "Category", Key: "category", Collection: entity.CollectionServiceCategories},
	},
	entity.CollectionBookings: {
		{Field: "Service", Key: "service", Collection: entity.CollectionServices},
		{Field: "Client", Key: "client", Collection: entity.CollectionClients},
		{Field: "Project", Key: "project", Collection: entity.CollectionProjects},
	},
	entity.CollectionTeamMembers: {
		{Field: "User", Key: "user", Collection: entity.CollectionUsers},
	},
}

var orders = map[entity.Collection][]Order{
	entity.CollectionClients:           {{Column: "name"}},
	entity.CollectionProjects:          {{Column: "created_at", Desc: true}},
	entity.CollectionProjectStatuses:   {{Column: "sort_order"}},
	entity.CollectionProjectTypes:      {{Column: "sort_order"}},
	entity.CollectionInvoices:          {{Column: "issue_date", Desc: true}},
	entity.CollectionExpenses:          {{Column: "date", Desc: true}},
	entity.CollectionTasks:             {{Column: "created_at", Desc: true}},
	entity.CollectionTaskStatuses:      {{Column: "sort_order"}},
	entity.CollectionServices:          {{Column: "sort_order"}},
	entity.CollectionServiceCategories: {{Column: "sort_order"}},
	entity.CollectionBookings:          {{Column: "start_time", Desc: true}},
	entity.CollectionTeamAvailability:  {{Column: "day_of_week"}, {Column: "start_time"}},
	entity.CollectionBlockedTimes:      {{Column: "start_time"}},
	entity.CollectionTeamMembers:       {{Column: "created_at"}},
}

// JoinsFor returns the related records resolved when reading a collection.
func JoinsFor(c entity.Collection) []Join {
	return append([]Join(nil), joins[c]...)
}

// OrderFor returns the fetch order of a collection.
func OrderFor(c entity.Collection) []Order {
	return append([]Order(nil), orders[c]...)
}
