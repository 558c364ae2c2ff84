// Package guard evaluates referential rules against cached records before a
// destructive write is sent to the remote store.
package guard

import (
	"fmt"

	"github.com/smallbiznis/siino/internal/entity"
)

// Source is the cached data the guard reads. *cache.Cache satisfies it.
type Source interface {
	Projects() []entity.Project
	Invoices() []entity.Invoice
}

// Verdict is the outcome of a delete check.
type Verdict struct {
	Allowed  bool
	Projects int
	Invoices int
}

// Blocking returns the number of dependents preventing the delete.
func (v Verdict) Blocking() int {
	return v.Projects + v.Invoices
}

// Reason is the message shown when the delete is blocked.
func (v Verdict) Reason() string {
	if v.Allowed {
		return ""
	}
	return fmt.Sprintf("Cannot delete client with existing projects or invoices (%d projects, %d invoices).", v.Projects, v.Invoices)
}

type Guard struct {
	source Source
}

func New(source Source) *Guard {
	return &Guard{source: source}
}

// CanDeleteClient reports whether no cached project or invoice references
// clientID. Archived projects count.
func (g *Guard) CanDeleteClient(clientID string) Verdict {
	var v Verdict
	for _, p := range g.source.Projects() {
		if p.References(clientID) {
			v.Projects++
		}
	}
	for _, inv := range g.source.Invoices() {
		if inv.References(clientID) {
			v.Invoices++
		}
	}
	v.Allowed = v.Blocking() == 0
	return v
}
