package guard

import (
	"testing"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/stretchr/testify/assert"
)

type stubSource struct {
	projects []entity.Project
	invoices []entity.Invoice
}

func (s stubSource) Projects() []entity.Project { return s.projects }
func (s stubSource) Invoices() []entity.Invoice { return s.invoices }

func ptr[T any](v T) *T { return &v }

func TestCanDeleteClient(t *testing.T) {
	src := stubSource{
		projects: []entity.Project{
			{ID: "p1", ClientID: ptr("acme")},
			{ID: "p2", ClientID: ptr("acme"), IsArchived: true},
			{ID: "p3"},
		},
		invoices: []entity.Invoice{
			{ID: "i1", ClientID: ptr("acme")},
			{ID: "i2", ClientID: ptr("beta")},
		},
	}
	g := New(src)

	tests := []struct {
		name     string
		clientID string
		want     Verdict
	}{
		{"projects and invoices", "acme", Verdict{Allowed: false, Projects: 2, Invoices: 1}},
		{"invoice only", "beta", Verdict{Allowed: false, Invoices: 1}},
		{"unreferenced", "gamma", Verdict{Allowed: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.CanDeleteClient(tt.clientID)
			assert.Equal(t, tt.want, got)
			if got.Allowed {
				assert.Empty(t, got.Reason())
			} else {
				assert.Positive(t, got.Blocking())
				assert.Contains(t, got.Reason(), "Cannot delete client with existing projects or invoices")
			}
		})
	}
}
