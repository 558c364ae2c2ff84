// Package cache holds every record of the active team in memory, with joins
// resolved, and keeps it consistent with confirmed remote writes.
package cache

import (
	"errors"
	"reflect"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/smallbiznis/siino/internal/entity"
	"github.com/smallbiznis/siino/internal/observability/metrics"
	"github.com/smallbiznis/siino/internal/remote"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var (
	ErrCrossTenant       = errors.New("cross_tenant_record")
	ErrScopeMismatch     = errors.New("scope_mismatch")
	ErrUnknownCollection = errors.New("unknown_collection")
	ErrMissingID         = errors.New("missing_record_id")
	ErrUnsupportedRecord = errors.New("unsupported_record")
)

// Scope reports the active team. *session.Session satisfies it.
type Scope interface {
	RequireTeam() (string, error)
	Generation() uint64
}

type ChangeKind string

const (
	ChangeAdded    ChangeKind = "added"
	ChangeUpdated  ChangeKind = "updated"
	ChangeRemoved  ChangeKind = "removed"
	ChangeReplaced ChangeKind = "replaced"
	ChangeCleared  ChangeKind = "cleared"
)

// Change describes one mutation. ID is empty for ChangeReplaced and
// ChangeCleared; Collection is empty for ChangeCleared.
type Change struct {
	Collection entity.Collection
	Kind       ChangeKind
	ID         string
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Store   remote.Store
	Scope   Scope
	Metrics *metrics.Metrics `optional:"true"`
}

type Cache struct {
	log     *zap.Logger
	store   remote.Store
	scope   Scope
	metrics *metrics.Metrics

	mu       sync.RWMutex
	owner    string // team the data belongs to
	data     map[entity.Collection][]entity.Record
	collator *collate.Collator // guarded by mu (write lock)

	subsMu  sync.Mutex
	subs    map[uint64]func(Change)
	nextSub uint64

	refreshing atomic.Int32
}

func New(p Params) *Cache {
	return &Cache{
		log:      p.Log.Named("cache"),
		store:    p.Store,
		scope:    p.Scope,
		metrics:  p.Metrics,
		data:     make(map[entity.Collection][]entity.Record),
		collator: collate.New(language.Und),
		subs:     make(map[uint64]func(Change)),
	}
}

// Add inserts a confirmed record at the position its collection's ordering
// implies. It does not dedupe.
func (c *Cache) Add(rec entity.Record) error {
	rec, err := c.admit(rec)
	if err != nil {
		return err
	}
	col := rec.Collection()

	c.mu.Lock()
	_, dropped := c.ownLocked(rec.RecordTeamID())
	c.data[col] = c.place(col, c.data[col], rec)
	c.mu.Unlock()

	if dropped {
		c.notify(Change{Kind: ChangeCleared})
	}

	c.notify(Change{Collection: col, Kind: ChangeAdded, ID: rec.RecordID()})
	return nil
}

// Update replaces the record with the same id in place. Name-ordered
// collections re-place the record so a rename keeps the order. A record that
// is not cached is ignored.
func (c *Cache) Update(rec entity.Record) error {
	rec, err := c.admit(rec)
	if err != nil {
		return err
	}
	col := rec.Collection()

	c.mu.Lock()
	list := c.data[col]
	replaced := false
	for i := range list {
		if list[i].RecordID() != rec.RecordID() {
			continue
		}
		if rules[col] == placeByName {
			c.data[col] = c.place(col, slices.Delete(slices.Clone(list), i, i+1), rec)
		} else {
			list[i] = rec
		}
		replaced = true
		break
	}
	c.mu.Unlock()

	if replaced {
		c.notify(Change{Collection: col, Kind: ChangeUpdated, ID: rec.RecordID()})
	}
	return nil
}

// Remove drops the record with id from collection. Missing ids are ignored.
func (c *Cache) Remove(collection entity.Collection, id string) {
	c.mu.Lock()
	list := c.data[collection]
	kept := list[:0:0]
	for _, rec := range list {
		if rec.RecordID() != id {
			kept = append(kept, rec)
		}
	}
	removed := len(kept) != len(list)
	if removed {
		c.data[collection] = kept
	}
	c.mu.Unlock()

	if removed {
		c.notify(Change{Collection: collection, Kind: ChangeRemoved, ID: id})
	}
}

// ClearAll empties every collection.
func (c *Cache) ClearAll() {
	c.mu.Lock()
	c.owner = ""
	c.data = make(map[entity.Collection][]entity.Record)
	c.mu.Unlock()

	c.notify(Change{Kind: ChangeCleared})
}

// Refreshing reports whether a RefreshAll is in flight.
func (c *Cache) Refreshing() bool {
	return c.refreshing.Load() > 0
}

// Subscribe registers fn for every subsequent change. fn runs on the
// mutating goroutine after the cache lock is released.
func (c *Cache) Subscribe(fn func(Change)) (cancel func()) {
	c.subsMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subs, id)
			c.subsMu.Unlock()
		})
	}
}

func (c *Cache) notify(change Change) {
	c.subsMu.Lock()
	fns := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// admit normalizes rec to a value and checks it belongs to the active team.
func (c *Cache) admit(rec entity.Record) (entity.Record, error) {
	if rec == nil {
		return nil, ErrUnsupportedRecord
	}
	if rv := reflect.ValueOf(rec); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, ErrUnsupportedRecord
		}
		value, ok := rv.Elem().Interface().(entity.Record)
		if !ok {
			return nil, ErrUnsupportedRecord
		}
		rec = value
	}
	if _, ok := rules[rec.Collection()]; !ok {
		return nil, ErrUnknownCollection
	}
	if rec.RecordID() == "" {
		return nil, ErrMissingID
	}

	teamID, err := c.scope.RequireTeam()
	if err != nil {
		return nil, err
	}
	if rec.RecordTeamID() != teamID {
		c.log.Warn("rejected cross-tenant record",
			zap.String("collection", string(rec.Collection())),
			zap.String("record_team_id", rec.RecordTeamID()),
			zap.String("team_id", teamID),
		)
		return nil, ErrCrossTenant
	}
	return rec, nil
}
