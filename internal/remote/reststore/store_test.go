package reststore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/siino/internal/config"
	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T, handler http.HandlerFunc) *Store {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.RestConfig{URL: srv.URL, APIKey: "anon", Timeout: 2 * time.Second}, zap.NewNop())
}

func TestSelectBuildsPostgrestQuery(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/invoices", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "*,client:clients(*),line_items:invoice_line_items(*)", q.Get("select"))
		assert.Equal(t, "eq.team-a", q.Get("team_id"))
		assert.Equal(t, "issue_date.desc", q.Get("order"))
		assert.Equal(t, "sort_order.asc", q.Get("line_items.order"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))

		_, _ = io.WriteString(w, `[{
			"id": "i1", "team_id": "team-a", "client_id": "c1", "invoice_number": "0001",
			"subtotal": 1000, "tps_amount": 50, "tvq_amount": 99.75, "total_amount": 1149.75,
			"apply_tps": true, "apply_tvq": true, "status": "unpaid",
			"issue_date": "2025-03-01T00:00:00+00:00", "due_date": "2025-03-31T00:00:00+00:00",
			"client": {"id": "c1", "team_id": "team-a", "name": "Acme"},
			"line_items": [{"id": "l1", "team_id": "team-a", "invoice_id": "i1", "description": "Edit", "quantity": 10, "rate": 100, "amount": 1000, "sort_order": 0}]
		}]`)
	})

	var got []entity.Invoice
	require.NoError(t, store.Select(context.Background(), remote.ScopedQuery(entity.CollectionInvoices, "team-a"), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Acme", got[0].ClientName())
	assert.True(t, got[0].ProvincialTaxAmount.Equal(decimal.RequireFromString("99.75")))
	require.Len(t, got[0].LineItems, 1)
	assert.Equal(t, "Edit", got[0].LineItems[0].Description)
}

func TestInsertStripsJoinsAndDecodesRepresentation(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, hasClient := body["client"]
		assert.False(t, hasClient)
		assert.Equal(t, "Reel", body["name"])

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id": "p1", "team_id": "team-a", "client_id": "c1", "name": "Reel",
			"client": {"id": "c1", "team_id": "team-a", "name": "Acme"}}]`)
	})

	clientID := "c1"
	project := entity.Project{
		ID:       "p1",
		TeamID:   "team-a",
		ClientID: &clientID,
		Name:     "Reel",
		Client:   &entity.Client{ID: "c1", Name: "stale"},
	}
	require.NoError(t, store.Insert(context.Background(), remote.Write{Collection: entity.CollectionProjects, TeamID: "team-a"}, &project))
	require.NotNil(t, project.Client)
	assert.Equal(t, "Acme", project.Client.Name)
}

func TestUpdateWithNoRowsIsNotFound(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.p9", r.URL.Query().Get("id"))
		assert.Equal(t, "eq.team-a", r.URL.Query().Get("team_id"))
		_, _ = io.WriteString(w, `[]`)
	})

	var dest entity.Project
	err := store.Update(context.Background(), remote.Write{Collection: entity.CollectionProjects, TeamID: "team-a"}, "p9", map[string]any{"is_archived": true}, &dest)
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestDeleteMapsForeignKeyViolation(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23503","message":"update or delete on table \"clients\" violates foreign key constraint"}`)
	})

	err := store.Delete(context.Background(), remote.Write{Collection: entity.CollectionClients, TeamID: "team-a"}, "c1")
	assert.ErrorIs(t, err, remote.ErrReferenced)

	var re *remote.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, entity.CollectionClients, re.Collection)
}

func TestInsertMapsUniqueViolation(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"23505","message":"duplicate key value violates unique constraint"}`)
	})

	inv := entity.Invoice{ID: "i2", TeamID: "team-a", InvoiceNumber: "0001"}
	err := store.Insert(context.Background(), remote.Write{Collection: entity.CollectionInvoices, TeamID: "team-a"}, &inv)
	assert.ErrorIs(t, err, remote.ErrConflict)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	var got []entity.Client
	err := store.Select(context.Background(), remote.ScopedQuery(entity.CollectionClients, "team-a"), &got)
	assert.ErrorIs(t, err, remote.ErrUnavailable)
}

func TestDeleteReportsMissingRow(t *testing.T) {
	store := newTestStore(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	err := store.Delete(context.Background(), remote.Write{Collection: entity.CollectionExpenses, TeamID: "team-a"}, "e1")
	assert.ErrorIs(t, err, remote.ErrNotFound)
}

func TestSelectClause(t *testing.T) {
	assert.Equal(t, "*", selectClause(nil))
	assert.Equal(t, "*,user:users(*)", selectClause(remote.JoinsFor(entity.CollectionTeamMembers)))
	assert.Equal(t, "day_of_week.asc,start_time.asc", orderClause(remote.OrderFor(entity.CollectionTeamAvailability)))
}
