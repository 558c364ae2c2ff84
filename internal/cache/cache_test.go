package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/smallbiznis/siino/internal/remote/remotetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var errNoTeam = errors.New("no_active_team")

type stubScope struct {
	mu   sync.Mutex
	team string
	gen  uint64
}

func (s *stubScope) RequireTeam() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.team == "" {
		return "", errNoTeam
	}
	return s.team, nil
}

func (s *stubScope) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func (s *stubScope) switchTo(team string) {
	s.mu.Lock()
	s.team = team
	s.gen++
	s.mu.Unlock()
}

func newCache(t *testing.T, team string) (*Cache, *stubScope, *remotetest.Faulty, *gorm.DB) {
	t.Helper()
	store, conn := remotetest.NewStore(t)
	scope := &stubScope{}
	scope.switchTo(team)
	return New(Params{Log: zap.NewNop(), Store: store, Scope: scope}), scope, store, conn
}

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T, conn *gorm.DB, rows ...any) {
	t.Helper()
	for _, row := range rows {
		require.NoError(t, conn.Create(row).Error)
	}
}

func TestRefreshAllLoadsJoinedCollections(t *testing.T) {
	c, _, _, conn := newCache(t, "team-a")
	issued := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	seed(t, conn,
		&entity.Client{ID: "c1", TeamID: "team-a", Name: "Acme"},
		&entity.Client{ID: "c2", TeamID: "team-b", Name: "Elsewhere"},
		&entity.ProjectStatus{ID: "s1", TeamID: "team-a", Name: "Waiting", SortOrder: 0, IsDefault: true},
		&entity.Project{ID: "p1", TeamID: "team-a", Name: "Launch", ClientID: ptr("c1"), StatusID: ptr("s1")},
		&entity.Invoice{
			ID: "i1", TeamID: "team-a", ClientID: ptr("c1"), InvoiceNumber: "0001",
			Subtotal: decimal.NewFromInt(100), TotalAmount: decimal.NewFromInt(100),
			Status: entity.InvoiceStatusUnpaid, IssueDate: issued, DueDate: issued.AddDate(0, 0, 30),
		},
	)

	report, err := c.RefreshAll(context.Background(), "team-a")
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, 1, report.Loaded[entity.CollectionClients])
	assert.Equal(t, 0, report.Loaded[entity.CollectionBookings])

	clients := c.Clients()
	require.Len(t, clients, 1)
	assert.Equal(t, "Acme", clients[0].Name)

	project, ok := c.Project("p1")
	require.True(t, ok)
	require.NotNil(t, project.Client)
	require.NotNil(t, project.Status)
	assert.Equal(t, "Waiting", project.Status.Name)

	invoice, ok := c.Invoice("i1")
	require.True(t, ok)
	assert.Equal(t, "Acme", invoice.ClientName())
	assert.False(t, c.Refreshing())
}

func TestRefreshAllIsolatesFailures(t *testing.T) {
	c, _, store, conn := newCache(t, "team-a")
	ctx := context.Background()
	seed(t, conn,
		&entity.Client{ID: "c1", TeamID: "team-a", Name: "Acme"},
		&entity.Expense{ID: "e1", TeamID: "team-a", Name: "Rent", Amount: decimal.NewFromInt(500), Date: time.Now()},
	)

	_, err := c.RefreshAll(ctx, "team-a")
	require.NoError(t, err)
	require.Len(t, c.Clients(), 1)

	seed(t, conn, &entity.Client{ID: "c2", TeamID: "team-a", Name: "Beta"})
	seed(t, conn, &entity.Expense{ID: "e2", TeamID: "team-a", Name: "Gear", Amount: decimal.NewFromInt(80), Date: time.Now()})
	store.FailOn(remote.OpSelect, entity.CollectionClients, remote.ErrUnavailable, 1)

	report, err := c.RefreshAll(ctx, "team-a")
	require.NoError(t, err)
	assert.False(t, report.OK())
	assert.ErrorIs(t, report.Failed[entity.CollectionClients], remote.ErrUnavailable)

	// stale but present
	assert.Len(t, c.Clients(), 1)
	assert.Len(t, c.Expenses(), 2)
}

func TestRefreshAllFetchesLookupsBeforeDependents(t *testing.T) {
	c, _, store, _ := newCache(t, "team-a")

	_, err := c.RefreshAll(context.Background(), "team-a")
	require.NoError(t, err)

	index := func(col entity.Collection) int {
		for i, call := range store.Calls() {
			if call.Op == remote.OpSelect && call.Collection == col {
				return i
			}
		}
		return -1
	}
	assert.Less(t, index(entity.CollectionProjectStatuses), index(entity.CollectionProjects))
	assert.Less(t, index(entity.CollectionProjectTypes), index(entity.CollectionProjects))
	assert.Less(t, index(entity.CollectionTaskStatuses), index(entity.CollectionTasks))
	assert.Less(t, index(entity.CollectionServiceCategories), index(entity.CollectionServices))

	for _, col := range entity.CachedCollections {
		assert.Equal(t, 1, store.CountCalls(remote.OpSelect, col), col)
	}
}

func TestRefreshAllRequiresActiveScope(t *testing.T) {
	c, scope, _, _ := newCache(t, "team-a")
	ctx := context.Background()

	_, err := c.RefreshAll(ctx, "team-b")
	assert.ErrorIs(t, err, ErrScopeMismatch)

	scope.switchTo("")
	_, err = c.RefreshAll(ctx, "team-a")
	assert.ErrorIs(t, err, errNoTeam)
}

func TestRefreshAllDiscardsStaleCompletions(t *testing.T) {
	c, scope, store, conn := newCache(t, "team-a")
	seed(t, conn, &entity.Client{ID: "c1", TeamID: "team-a", Name: "Acme"})

	var once sync.Once
	store.BeforeSelect = func(_ context.Context, q remote.Query) {
		if q.Collection == entity.CollectionClients {
			once.Do(func() { scope.switchTo("team-b") })
		}
	}

	report, err := c.RefreshAll(context.Background(), "team-a")
	require.NoError(t, err)
	assert.Contains(t, report.Discarded, entity.CollectionClients)
	assert.Empty(t, c.Clients())
}

func TestRefreshForAnotherTeamDropsPreviousData(t *testing.T) {
	c, scope, _, conn := newCache(t, "team-a")
	ctx := context.Background()
	seed(t, conn,
		&entity.Client{ID: "c1", TeamID: "team-a", Name: "Acme"},
		&entity.Expense{ID: "e1", TeamID: "team-a", Name: "Rent", Amount: decimal.NewFromInt(500), Date: time.Now()},
	)
	_, err := c.RefreshAll(ctx, "team-a")
	require.NoError(t, err)
	require.Len(t, c.Expenses(), 1)

	scope.switchTo("team-b")
	_, err = c.RefreshAll(ctx, "team-b")
	require.NoError(t, err)
	assert.Empty(t, c.Clients())
	assert.Empty(t, c.Expenses())
}

func TestAddOrdersClientsByName(t *testing.T) {
	c, _, _, _ := newCache(t, "team-a")

	for _, name := range []string{"Zed", "acme", "Émile"} {
		require.NoError(t, c.Add(entity.Client{ID: name, TeamID: "team-a", Name: name}))
	}

	var names []string
	for _, client := range c.Clients() {
		names = append(names, client.Name)
	}
	assert.Equal(t, []string{"acme", "Émile", "Zed"}, names)
}

func TestAddPrependsRecentAndPlacesLookups(t *testing.T) {
	c, _, _, _ := newCache(t, "team-a")

	require.NoError(t, c.Add(entity.Project{ID: "p1", TeamID: "team-a", Name: "First"}))
	require.NoError(t, c.Add(&entity.Project{ID: "p2", TeamID: "team-a", Name: "Second"}))
	projects := c.Projects()
	require.Len(t, projects, 2)
	assert.Equal(t, "p2", projects[0].ID)

	require.NoError(t, c.Add(entity.TaskStatus{ID: "done", TeamID: "team-a", SortOrder: 2}))
	require.NoError(t, c.Add(entity.TaskStatus{ID: "todo", TeamID: "team-a", SortOrder: 0}))
	require.NoError(t, c.Add(entity.TaskStatus{ID: "doing", TeamID: "team-a", SortOrder: 1}))
	var ids []string
	for _, s := range c.TaskStatuses() {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"todo", "doing", "done"}, ids)
}

func TestAddRejectsForeignAndUnscoped(t *testing.T) {
	c, scope, _, _ := newCache(t, "team-a")

	err := c.Add(entity.Client{ID: "c1", TeamID: "team-b", Name: "Other"})
	assert.ErrorIs(t, err, ErrCrossTenant)
	assert.ErrorIs(t, c.Add(entity.Client{TeamID: "team-a"}), ErrMissingID)
	assert.ErrorIs(t, c.Add(entity.Team{ID: "team-a"}), ErrUnknownCollection)

	scope.switchTo("")
	assert.ErrorIs(t, c.Add(entity.Client{ID: "c1", TeamID: "team-a"}), errNoTeam)
	assert.Empty(t, c.Clients())
}

func TestUpdateIsIdempotent(t *testing.T) {
	c, _, _, _ := newCache(t, "team-a")
	require.NoError(t, c.Add(entity.Project{ID: "p1", TeamID: "team-a", Name: "One"}))
	require.NoError(t, c.Add(entity.Project{ID: "p2", TeamID: "team-a", Name: "Two"}))

	renamed := entity.Project{ID: "p1", TeamID: "team-a", Name: "Uno"}
	require.NoError(t, c.Update(renamed))
	once := c.Projects()
	require.NoError(t, c.Update(renamed))
	assert.Equal(t, once, c.Projects())
	assert.Equal(t, "Uno", once[1].Name)

	require.NoError(t, c.Update(entity.Project{ID: "missing", TeamID: "team-a"}))
	assert.Len(t, c.Projects(), 2)
}

func TestUpdateKeepsClientsOrderedByName(t *testing.T) {
	c, _, _, _ := newCache(t, "team-a")
	for _, name := range []string{"Acme", "Bolt", "Cielo"} {
		require.NoError(t, c.Add(entity.Client{ID: name, TeamID: "team-a", Name: name}))
	}

	require.NoError(t, c.Update(entity.Client{ID: "Acme", TeamID: "team-a", Name: "Zenith"}))

	var names []string
	for _, client := range c.Clients() {
		names = append(names, client.Name)
	}
	assert.Equal(t, []string{"Bolt", "Cielo", "Zenith"}, names)
}

func TestArchivedProjectsStayCached(t *testing.T) {
	c, _, _, _ := newCache(t, "team-a")
	require.NoError(t, c.Add(entity.Project{ID: "p1", TeamID: "team-a"}))
	require.NoError(t, c.Add(entity.Project{ID: "p2", TeamID: "team-a"}))

	now := time.Now()
	require.NoError(t, c.Update(entity.Project{ID: "p1", TeamID: "team-a", IsArchived: true, ArchivedAt: &now}))

	assert.Len(t, c.Projects(), 2)
	assert.Len(t, c.ActiveProjects(), 1)
	archived := c.ArchivedProjects()
	require.Len(t, archived, 1)
	assert.Equal(t, "p1", archived[0].ID)
}

func TestRemoveAndClearAllNotify(t *testing.T) {
	c, _, _, _ := newCache(t, "team-a")

	var changes []Change
	cancel := c.Subscribe(func(ch Change) { changes = append(changes, ch) })

	require.NoError(t, c.Add(entity.Client{ID: "c1", TeamID: "team-a", Name: "Acme"}))
	c.Remove(entity.CollectionClients, "missing")
	c.Remove(entity.CollectionClients, "c1")
	require.NoError(t, c.Add(entity.Expense{ID: "e1", TeamID: "team-a"}))
	c.ClearAll()
	cancel()
	c.ClearAll()

	assert.Equal(t, []Change{
		{Collection: entity.CollectionClients, Kind: ChangeAdded, ID: "c1"},
		{Collection: entity.CollectionClients, Kind: ChangeRemoved, ID: "c1"},
		{Collection: entity.CollectionExpenses, Kind: ChangeAdded, ID: "e1"},
		{Kind: ChangeCleared},
	}, changes)
	assert.Empty(t, c.Snapshot().Expenses)
}
