// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package execctx implements the ExecutionContext carrier threaded through
// every "context form" operation in the Erynoa core: a remaining-gas budget,
// a per-layer gas accountant, an emitted-event sink, a cost tracker, and a
// Lamport-style logical clock. An ExecutionContext is created per externally
// initiated logical operation and is never shared across goroutines.
package execctx

import (
	"fmt"

	"github.com/erynoa/core/errkind"
)

// GasLayer differentiates gas accounting by concern (§4.4): Compute covers
// CPU-bound instructions, Network covers host lookups that reach outside the
// sandbox, Storage covers persistence-touching operations (including Log),
// Realm covers per-realm crossing quotas.
type GasLayer uint8

const (
	LayerCompute GasLayer = iota
	LayerNetwork
	LayerStorage
	LayerRealm
)

func (l GasLayer) String() string {
	switch l {
	case LayerCompute:
		return "compute"
	case LayerNetwork:
		return "network"
	case LayerStorage:
		return "storage"
	case LayerRealm:
		return "realm"
	default:
		return "unknown"
	}
}

// Cost is an additive accounting triple.
type Cost struct {
	Gas       uint64
	Storage   uint64
	Bandwidth float64
}

// Add returns the componentwise sum of c and other.
func (c Cost) Add(other Cost) Cost {
	return Cost{
		Gas:       c.Gas + other.Gas,
		Storage:   c.Storage + other.Storage,
		Bandwidth: c.Bandwidth + other.Bandwidth,
	}
}

// EmittedEvent is one entry in the context's append-only emission log: a
// kind string paired with an opaque payload.
type EmittedEvent struct {
	Kind    string
	Payload []byte
}

// Context is the per-operation carrier. Not safe for concurrent use; each
// logical operation owns exactly one Context.
type Context struct {
	RealmID  string
	Caller   string
	clock    uint64
	gasInit  uint64
	gasLeft  uint64
	layers   map[GasLayer]uint64
	events   []EmittedEvent
	cost     Cost
}

// New constructs a Context with the given initial gas budget and a logical
// clock starting at zero.
func New(initialGas uint64, realmID, caller string) *Context {
	return NewWithClock(initialGas, realmID, caller, 0)
}

// NewWithClock constructs a Context whose logical clock resumes from clock,
// for callers continuing an operation sequence across contexts.
func NewWithClock(initialGas uint64, realmID, caller string, clock uint64) *Context {
	return &Context{
		RealmID: realmID,
		Caller:  caller,
		clock:   clock,
		gasInit: initialGas,
		gasLeft: initialGas,
		layers:  make(map[GasLayer]uint64),
	}
}

// Minimal returns a Context with a zero gas budget, so any non-zero gas
// charge fails; useful for tests that exercise gas exhaustion paths.
func Minimal() *Context {
	return New(0, "", "")
}

// GasRemaining returns the remaining gas budget.
func (c *Context) GasRemaining() uint64 {
	return c.gasLeft
}

// GasInitial returns the budget the Context was created with.
func (c *Context) GasInitial() uint64 {
	return c.gasInit
}

// SetGasRemaining forcibly sets the remaining budget — used by tests and by
// watchdog-style external cancellation (§5 "Cancellation and timeouts").
func (c *Context) SetGasRemaining(n uint64) {
	c.gasLeft = n
}

// ConsumeGas charges n gas against the budget on the given layer. Returns
// errkind.ErrGasExhausted (wrapped) if this would underflow; the budget is
// left unchanged on failure so the pre-instruction state remains observable.
func (c *Context) ConsumeGas(layer GasLayer, n uint64) error {
	if n > c.gasLeft {
		return fmt.Errorf("%w: need %d, have %d", errkind.ErrGasExhausted, n, c.gasLeft)
	}
	c.gasLeft -= n
	c.layers[layer] += n
	return nil
}

// LayerUsed returns the cumulative gas charged against a given layer.
func (c *Context) LayerUsed(layer GasLayer) uint64 {
	return c.layers[layer]
}

// TrackCost accumulates cost into the running total.
func (c *Context) TrackCost(cost Cost) {
	c.cost = c.cost.Add(cost)
}

// TotalCost returns the accumulated cost so far.
func (c *Context) TotalCost() Cost {
	return c.cost
}

// EmitRaw appends an event to the emission buffer in call order.
func (c *Context) EmitRaw(kind string, payload []byte) {
	c.events = append(c.events, EmittedEvent{Kind: kind, Payload: payload})
}

// EmittedEvents returns the emission buffer. The returned slice must not be
// mutated by the caller.
func (c *Context) EmittedEvents() []EmittedEvent {
	return c.events
}

// Tick advances the logical clock by one and returns the new value.
func (c *Context) Tick() uint64 {
	c.clock++
	return c.clock
}

// Clock returns the current logical clock value without advancing it.
func (c *Context) Clock() uint64 {
	return c.clock
}
