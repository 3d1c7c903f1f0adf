// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/log"
)

// DAG is the causal graph of events, guarded by a single RWMutex over its
// events map and child index, following the teacher's dag.DAG shape
// (blocks map + tips index under one lock) generalized to finality levels
// and gas-metered admission.
type DAG struct {
	mu       sync.RWMutex
	events   map[xid.ID]*Event
	children map[xid.ID][]xid.ID
	genesis  map[xid.ID]struct{} // events with no parents
	params   config.EventParams
	log      log.Logger

	addedCount    int
	finalityCount int
}

// New constructs an empty DAG.
func New(params config.EventParams, logger log.Logger) *DAG {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &DAG{
		events:   make(map[xid.ID]*Event),
		children: make(map[xid.ID][]xid.ID),
		genesis:  make(map[xid.ID]struct{}),
		params:   params,
		log:      logger,
	}
}

// Get returns a stored event by ID.
func (d *DAG) Get(id xid.ID) (*Event, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	ev, ok := d.events[id]
	if !ok {
		return nil, fmt.Errorf("%w: event %s", errkind.ErrNotFound, id)
	}
	return ev, nil
}

// Children returns the direct children of id.
func (d *DAG) Children(id xid.ID) []xid.ID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]xid.ID(nil), d.children[id]...)
}

// ValidateStructure implements Κ9: every parent must already be known, the
// parent count must not exceed MaxParents, parents must not repeat, and
// admitting ev must not create a cycle.
func (d *DAG) ValidateStructure(ev *Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.validateStructureLocked(ev)
}

func (d *DAG) validateStructureLocked(ev *Event) error {
	if len(ev.Parents) > d.params.MaxParents {
		return fmt.Errorf("%w: %d parents exceeds max %d", errkind.ErrInvalidInput, len(ev.Parents), d.params.MaxParents)
	}
	seen := make(map[xid.ID]struct{}, len(ev.Parents))
	for _, p := range ev.Parents {
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: duplicate parent %s", errkind.ErrInvalidInput, p)
		}
		seen[p] = struct{}{}
		if _, ok := d.events[p]; !ok {
			return fmt.Errorf("%w: parent %s", errkind.ErrParentNotFound, p)
		}
	}
	if d.wouldCreateCycleLocked(ev.ID, ev.Parents) {
		return fmt.Errorf("%w: event %s", errkind.ErrCycleDetected, ev.ID)
	}
	return nil
}

// wouldCreateCycleLocked walks upward from every candidate parent through
// already-stored ancestry; if id is reachable, admitting it would close a
// cycle. Callers must hold at least a read lock.
func (d *DAG) wouldCreateCycleLocked(id xid.ID, parents []xid.ID) bool {
	visited := make(map[xid.ID]struct{})
	queue := append([]xid.ID(nil), parents...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == id {
			return true
		}
		if _, ok := visited[cur]; ok {
			continue
		}
		visited[cur] = struct{}{}
		if parent, ok := d.events[cur]; ok {
			queue = append(queue, parent.Parents...)
		}
	}
	return false
}

// AddEvent validates and admits ev into the DAG (Κ12). Returns
// errkind.ErrDuplicateEvent if ev.ID is already present.
func (d *DAG) AddEvent(ev *Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.addEventLocked(ev)
}

func (d *DAG) addEventLocked(ev *Event) error {
	if _, exists := d.events[ev.ID]; exists {
		d.log.Warn("event.add rejected", "id", ev.ID, "err", errkind.ErrDuplicateEvent)
		return fmt.Errorf("%w: %s", errkind.ErrDuplicateEvent, ev.ID)
	}
	if err := d.validateStructureLocked(ev); err != nil {
		d.log.Warn("event.add rejected", "id", ev.ID, "err", err)
		return err
	}
	d.events[ev.ID] = ev
	if len(ev.Parents) == 0 {
		d.genesis[ev.ID] = struct{}{}
	}
	for _, p := range ev.Parents {
		d.children[p] = append(d.children[p], ev.ID)
	}
	d.addedCount++
	d.log.Debug("event.added", "id", ev.ID, "parents", len(ev.Parents))
	return nil
}

// AddEventWithCtx is AddEvent's context form: charges ValidateGas plus
// ParentLookupGas per parent plus AddToDAGGas — and CycleCheckGas whenever
// the candidate has parents to walk — then emits "event.added".
func (d *DAG) AddEventWithCtx(ctx *execctx.Context, ev *Event) error {
	cost := d.params.ValidateGas + d.params.AddToDAGGas + uint64(len(ev.Parents))*d.params.ParentLookupGas
	if len(ev.Parents) > 0 {
		cost += d.params.CycleCheckGas
	}
	if err := ctx.ConsumeGas(execctx.LayerCompute, cost); err != nil {
		return err
	}
	if err := d.AddEvent(ev); err != nil {
		return err
	}
	ctx.EmitRaw("event.added", ev.ID.Bytes())
	ctx.Tick()
	return nil
}

// UpdateFinality implements Κ10: finality may only move forward. Attempting
// to lower it returns a fatal *errkind.FinalityRegression; proposing the
// current level is a no-op and is not counted as a transition.
func (d *DAG) UpdateFinality(id xid.ID, newLevel FinalityLevel) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ev, ok := d.events[id]
	if !ok {
		return fmt.Errorf("%w: event %s", errkind.ErrNotFound, id)
	}
	if newLevel < ev.Finality {
		err := &errkind.FinalityRegression{Old: uint8(ev.Finality), New: uint8(newLevel)}
		d.log.Error("event.update_finality fatal", "id", id, "err", err)
		return err
	}
	if newLevel == ev.Finality {
		return nil
	}
	ev.Finality = newLevel
	d.finalityCount++
	d.log.Debug("event.update_finality", "id", id, "level", newLevel)
	return nil
}

// UpdateFinalityWithCtx charges FinalityUpdateGas and emits
// "event.finality_updated" on success.
func (d *DAG) UpdateFinalityWithCtx(ctx *execctx.Context, id xid.ID, newLevel FinalityLevel) error {
	if err := ctx.ConsumeGas(execctx.LayerCompute, d.params.FinalityUpdateGas); err != nil {
		return err
	}
	if err := d.UpdateFinality(id, newLevel); err != nil {
		return err
	}
	ctx.EmitRaw("event.finality_updated", id.Bytes())
	ctx.Tick()
	return nil
}

// TopologicalOrder returns every event in an order consistent with causal
// dependency (parents before children), via DFS with a temporary-mark cycle
// guard. Returns errkind.ErrCycleDetected if the stored graph is somehow
// inconsistent (should be unreachable given Κ9 admission checks).
func (d *DAG) TopologicalOrder() ([]xid.ID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	const (
		unmarked = iota
		temp
		permanent
	)
	mark := make(map[xid.ID]int, len(d.events))
	order := make([]xid.ID, 0, len(d.events))

	var visit func(id xid.ID) error
	visit = func(id xid.ID) error {
		switch mark[id] {
		case permanent:
			return nil
		case temp:
			return fmt.Errorf("%w: at %s", errkind.ErrCycleDetected, id)
		}
		mark[id] = temp
		ev := d.events[id]
		for _, p := range ev.Parents {
			if err := visit(p); err != nil {
				return err
			}
		}
		mark[id] = permanent
		order = append(order, id)
		return nil
	}

	for id := range d.events {
		if mark[id] == unmarked {
			if err := visit(id); err != nil {
				return nil, err
			}
		}
	}
	return order, nil
}

// ProcessBatchWithCtx admits events in order, charging gas per event from
// ctx's budget, and stops cleanly (returning the count actually admitted,
// no error) the moment the budget can no longer cover the next event — a
// partial batch is not a failure.
func (d *DAG) ProcessBatchWithCtx(ctx *execctx.Context, events []*Event) (int, error) {
	processed := 0
	for _, ev := range events {
		if err := d.AddEventWithCtx(ctx, ev); err != nil {
			if errors.Is(err, errkind.ErrGasExhausted) {
				return processed, nil
			}
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// Stats is a point-in-time snapshot of DAG activity.
type Stats struct {
	EventCount    int
	GenesisCount  int
	AddedCount    int
	FinalityCount int
}

// Stats returns a snapshot of the DAG's counters.
func (d *DAG) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return Stats{
		EventCount:    len(d.events),
		GenesisCount:  len(d.genesis),
		AddedCount:    d.addedCount,
		FinalityCount: d.finalityCount,
	}
}

// Health reports the DAG's current counters, satisfying
// api/health.Checkable by structural typing.
func (d *DAG) Health(context.Context) (interface{}, error) {
	s := d.Stats()
	return map[string]interface{}{
		"events":    s.EventCount,
		"genesis":   s.GenesisCount,
		"added":     s.AddedCount,
		"finalized": s.FinalityCount,
	}, nil
}
