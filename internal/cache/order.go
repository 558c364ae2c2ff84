package cache

import (
	"slices"

	"github.com/smallbiznis/siino/internal/entity"
)

type placement int

const (
	// newest first; fetched order is kept as returned.
	placePrepend placement = iota
	placeAppend
	placeByName
	placeBySortOrder
)

var rules = map[entity.Collection]placement{
	entity.CollectionClients:           placeByName,
	entity.CollectionProjects:          placePrepend,
	entity.CollectionInvoices:          placePrepend,
	entity.CollectionExpenses:          placePrepend,
	entity.CollectionTasks:             placePrepend,
	entity.CollectionBookings:          placePrepend,
	entity.CollectionProjectStatuses:   placeBySortOrder,
	entity.CollectionProjectTypes:      placeBySortOrder,
	entity.CollectionTaskStatuses:      placeBySortOrder,
	entity.CollectionServices:          placeBySortOrder,
	entity.CollectionServiceCategories: placeBySortOrder,
	entity.CollectionTeamAvailability:  placeAppend,
	entity.CollectionBlockedTimes:      placeAppend,
	entity.CollectionTeamMembers:       placeAppend,
}

// place returns list with rec inserted. Caller holds the write lock.
func (c *Cache) place(col entity.Collection, list []entity.Record, rec entity.Record) []entity.Record {
	switch rules[col] {
	case placeAppend:
		return append(slices.Clip(list), rec)
	case placeByName:
		out := append(slices.Clip(list), rec)
		slices.SortStableFunc(out, func(a, b entity.Record) int {
			return c.collator.CompareString(nameOf(a), nameOf(b))
		})
		return out
	case placeBySortOrder:
		order := sortOrderOf(rec)
		i := 0
		for i < len(list) && sortOrderOf(list[i]) <= order {
			i++
		}
		return slices.Insert(slices.Clip(list), i, rec)
	default:
		return append([]entity.Record{rec}, list...)
	}
}

func nameOf(rec entity.Record) string {
	if client, ok := rec.(entity.Client); ok {
		return client.Name
	}
	return ""
}

func sortOrderOf(rec entity.Record) int {
	switch v := rec.(type) {
	case entity.ProjectStatus:
		return v.SortOrder
	case entity.ProjectType:
		return v.SortOrder
	case entity.TaskStatus:
		return v.SortOrder
	case entity.Service:
		return v.SortOrder
	case entity.ServiceCategory:
		return v.SortOrder
	}
	return 0
}
