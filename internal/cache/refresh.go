package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/internal/remote"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RefreshReport summarizes one RefreshAll. Collections listed in Failed kept
// their previous content.
type RefreshReport struct {
	TeamID    string
	Loaded    map[entity.Collection]int
	Failed    map[entity.Collection]error
	Discarded []entity.Collection
}

// OK reports whether every collection loaded.
func (r RefreshReport) OK() bool {
	return len(r.Failed) == 0 && len(r.Discarded) == 0
}

type fetcher func(ctx context.Context, store remote.Store, teamID string) ([]entity.Record, error)

func fetch[T entity.Record](collection entity.Collection) fetcher {
	return func(ctx context.Context, store remote.Store, teamID string) ([]entity.Record, error) {
		var rows []T
		if err := store.Select(ctx, remote.ScopedQuery(collection, teamID), &rows); err != nil {
			return nil, err
		}
		out := make([]entity.Record, 0, len(rows))
		for _, row := range rows {
			out = append(out, row)
		}
		return out, nil
	}
}

var fetchers = map[entity.Collection]fetcher{
	entity.CollectionClients:           fetch[entity.Client](entity.CollectionClients),
	entity.CollectionProjects:          fetch[entity.Project](entity.CollectionProjects),
	entity.CollectionProjectStatuses:   fetch[entity.ProjectStatus](entity.CollectionProjectStatuses),
	entity.CollectionProjectTypes:      fetch[entity.ProjectType](entity.CollectionProjectTypes),
	entity.CollectionInvoices:          fetch[entity.Invoice](entity.CollectionInvoices),
	entity.CollectionExpenses:          fetch[entity.Expense](entity.CollectionExpenses),
	entity.CollectionTasks:             fetch[entity.Task](entity.CollectionTasks),
	entity.CollectionTaskStatuses:      fetch[entity.TaskStatus](entity.CollectionTaskStatuses),
	entity.CollectionServices:          fetch[entity.Service](entity.CollectionServices),
	entity.CollectionServiceCategories: fetch[entity.ServiceCategory](entity.CollectionServiceCategories),
	entity.CollectionBookings:          fetch[entity.Booking](entity.CollectionBookings),
	entity.CollectionTeamAvailability:  fetch[entity.TeamAvailability](entity.CollectionTeamAvailability),
	entity.CollectionBlockedTimes:      fetch[entity.BlockedTime](entity.CollectionBlockedTimes),
	entity.CollectionTeamMembers:       fetch[entity.TeamMember](entity.CollectionTeamMembers),
}

// plan lists independent groups. Stages inside a group run in order: lookup
// lists land before the records that reference them are requested.
var plan = [][][]entity.Collection{
	{{entity.CollectionClients}},
	{{entity.CollectionProjectStatuses, entity.CollectionProjectTypes}, {entity.CollectionProjects}},
	{{entity.CollectionInvoices}},
	{{entity.CollectionExpenses}},
	{{entity.CollectionTaskStatuses}, {entity.CollectionTasks}},
	{{entity.CollectionServiceCategories}, {entity.CollectionServices}},
	{{entity.CollectionBookings}},
	{{entity.CollectionTeamAvailability}},
	{{entity.CollectionBlockedTimes}},
	{{entity.CollectionTeamMembers}},
}

// tag identifies the scope a refresh was issued for.
type tag struct {
	teamID     string
	generation uint64
}

// RefreshAll reloads every collection for teamID, which must be the active
// team. Fetch failures are isolated per collection and reported, not
// returned.
func (c *Cache) RefreshAll(ctx context.Context, teamID string) (RefreshReport, error) {
	active, err := c.scope.RequireTeam()
	if err != nil {
		return RefreshReport{}, err
	}
	if teamID != active {
		return RefreshReport{}, ErrScopeMismatch
	}
	t := tag{teamID: teamID, generation: c.scope.Generation()}

	c.refreshing.Add(1)
	defer c.refreshing.Add(-1)

	c.claim(teamID)

	log := c.log.With(zap.String("team_id", teamID), zap.Uint64("generation", t.generation))
	report := RefreshReport{
		TeamID: teamID,
		Loaded: make(map[entity.Collection]int),
		Failed: make(map[entity.Collection]error),
	}
	var reportMu sync.Mutex

	var g errgroup.Group
	for _, group := range plan {
		g.Go(func() error {
			for _, stage := range group {
				var sg errgroup.Group
				for _, col := range stage {
					sg.Go(func() error {
						n, err := c.refreshOne(ctx, t, col)

						reportMu.Lock()
						defer reportMu.Unlock()
						switch {
						case errors.Is(err, errDiscarded):
							report.Discarded = append(report.Discarded, col)
						case err != nil:
							report.Failed[col] = err
							log.Warn("collection refresh failed",
								zap.String("collection", string(col)),
								zap.Error(err),
							)
						default:
							report.Loaded[col] = n
						}
						return nil
					})
				}
				_ = sg.Wait()
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("cache refreshed",
		zap.Int("loaded", len(report.Loaded)),
		zap.Int("failed", len(report.Failed)),
		zap.Int("discarded", len(report.Discarded)),
	)
	c.notify(Change{Kind: ChangeReplaced})
	return report, nil
}

var errDiscarded = errors.New("stale_scope")

func (c *Cache) refreshOne(ctx context.Context, t tag, col entity.Collection) (int, error) {
	records, err := fetchers[col](ctx, c.store, t.teamID)
	if err != nil {
		c.metrics.RecordCacheFetch(ctx, string(col), metrics.OutcomeError)
		return 0, err
	}

	c.mu.Lock()
	if !c.current(t) {
		c.mu.Unlock()
		c.log.Info("discarded stale collection",
			zap.String("collection", string(col)),
			zap.String("team_id", t.teamID),
		)
		c.metrics.RecordCacheDiscarded(ctx, string(col))
		return 0, errDiscarded
	}
	c.data[col] = records
	c.mu.Unlock()

	c.metrics.RecordCacheFetch(ctx, string(col), metrics.OutcomeSuccess)
	return len(records), nil
}

// current reports whether t still matches the active scope and the team the
// cache holds data for. Caller holds c.mu.
func (c *Cache) current(t tag) bool {
	if c.owner != t.teamID || c.scope.Generation() != t.generation {
		return false
	}
	teamID, err := c.scope.RequireTeam()
	return err == nil && teamID == t.teamID
}

// claim drops data held for another team before a refresh for teamID.
func (c *Cache) claim(teamID string) {
	c.mu.Lock()
	previous, dropped := c.ownLocked(teamID)
	c.mu.Unlock()

	if dropped {
		c.log.Info("dropped data of previous team", zap.String("previous_team_id", previous))
		c.notify(Change{Kind: ChangeCleared})
	}
}

// ownLocked makes teamID the owner of the cached data, clearing what another
// team left behind. Caller holds the write lock.
func (c *Cache) ownLocked(teamID string) (previous string, dropped bool) {
	previous = c.owner
	if previous == teamID {
		return previous, false
	}
	c.owner = teamID
	if previous == "" {
		return previous, false
	}
	c.data = make(map[entity.Collection][]entity.Record)
	return previous, true
}
