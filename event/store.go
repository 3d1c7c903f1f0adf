// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/database"
)

// Store is the durable backing for a DAG: every admitted event and every
// finality transition is mirrored to a key-value database so a restarted
// node can rehydrate its causal graph instead of starting from genesis. The
// in-memory DAG remains authoritative for reads; Store offers writes and
// lookups by ID only, with no scan over its contents.
type Store struct {
	db database.Database
}

// NewStore wraps db (a `github.com/luxfi/database` key-value store, typically
// pebble-backed) as an event Store.
func NewStore(db database.Database) *Store {
	return &Store{db: db}
}

// Put persists ev under its content-addressed ID.
func (s *Store) Put(ev *Event) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ev); err != nil {
		return fmt.Errorf("event: encode %s: %w", ev.ID, err)
	}
	return s.db.Put(ev.ID.Bytes(), buf.Bytes())
}

// Get reads back a persisted event by ID.
func (s *Store) Get(id xid.ID) (*Event, error) {
	raw, err := s.db.Get(id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: event %s: %v", errkind.ErrNotFound, id, err)
	}
	var ev Event
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&ev); err != nil {
		return nil, fmt.Errorf("event: decode %s: %w", id, err)
	}
	return &ev, nil
}

// Has reports whether id has been persisted.
func (s *Store) Has(id xid.ID) (bool, error) {
	return s.db.Has(id.Bytes())
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// PersistentDAG pairs an in-memory DAG with a Store so every admission and
// finality transition is durably mirrored, and the DAG can be rehydrated
// from the store on startup.
type PersistentDAG struct {
	*DAG

	mu    sync.Mutex
	store *Store
}

// NewPersistentDAG constructs a DAG backed by store. Pass a nil store to get
// a DAG with no durability (equivalent to New).
func NewPersistentDAG(dag *DAG, store *Store) *PersistentDAG {
	return &PersistentDAG{DAG: dag, store: store}
}

// AddEvent admits ev into the in-memory DAG and, on success, mirrors it to
// the store. A store write failure does not roll back the in-memory
// admission — the event is valid and admitted either way, and the failure is
// surfaced so the caller can retry persistence or alert on drift between the
// live graph and its durable mirror.
func (p *PersistentDAG) AddEvent(ev *Event) error {
	if err := p.DAG.AddEvent(ev); err != nil {
		return err
	}
	if p.store == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Put(ev)
}

// UpdateFinality advances ev's finality level in-memory and re-persists the
// updated event.
func (p *PersistentDAG) UpdateFinality(id xid.ID, newLevel FinalityLevel) error {
	if err := p.DAG.UpdateFinality(id, newLevel); err != nil {
		return err
	}
	if p.store == nil {
		return nil
	}
	ev, err := p.DAG.Get(id)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.store.Put(ev)
}

// LoadInto replays the given events into dag, tolerating parents listed
// after their children by retrying the unadmitted events in passes. Returns
// the number of events loaded; if a pass admits nothing while events remain,
// it returns the count so far and an error.
func LoadInto(dag *DAG, events []*Event) (int, error) {
	pending := append([]*Event(nil), events...)
	loaded := 0
	for len(pending) > 0 {
		progressed := false
		var next []*Event
		for _, ev := range pending {
			if err := dag.AddEvent(ev); err != nil {
				next = append(next, ev)
				continue
			}
			loaded++
			progressed = true
		}
		if !progressed {
			return loaded, fmt.Errorf("event: %d events could not be admitted (missing parents or cycle)", len(next))
		}
		pending = next
	}
	return loaded, nil
}
