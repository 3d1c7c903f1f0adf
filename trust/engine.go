// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/event"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/log"
)

// RelKey identifies a directional trust relationship from one identity to
// another. Trust is asymmetric: RelKey{A,B} and RelKey{B,A} are tracked
// independently.
type RelKey struct {
	From xid.ID
	To   xid.ID
}

// Engine is the Trust Kernel: a directional relationship table guarded by a
// single RWMutex, mirroring the teacher's quorum.WeightedStatic map-plus-lock
// shape.
type Engine struct {
	mu            sync.RWMutex
	relationships map[RelKey]Vector6D
	params        config.TrustParams
	log           log.Logger

	initializedCount int
	updateCount      int
}

// New constructs an Engine with the given parameters.
func New(params config.TrustParams, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Engine{
		relationships: make(map[RelKey]Vector6D),
		params:        params,
		log:           logger,
	}
}

// selfAttestation implements Κ3's "Self-attestation (from == to) fails with
// the InvalidInput error kind" rule, shared by every directional trust
// mutator and reader.
func selfAttestation(from, to xid.ID) error {
	if from == to {
		return fmt.Errorf("%w: self-attestation by %s", errkind.ErrInvalidInput, from)
	}
	return nil
}

func inBounds(v Vector6D) error {
	for i, x := range v {
		if x < 0 || x > 1 {
			return fmt.Errorf("%w: trust component %d out of [0,1]: %v", errkind.ErrInvalidInput, i, x)
		}
	}
	return nil
}

// Initialize establishes a relationship at the default neutral prior if one
// does not already exist, and is a no-op otherwise. Returns the resulting
// vector either way.
func (e *Engine) Initialize(from, to xid.ID) (Vector6D, error) {
	if err := selfAttestation(from, to); err != nil {
		e.log.Warn("trust.initialize rejected", "from", from, "to", to, "err", err)
		return Vector6D{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := RelKey{From: from, To: to}
	if v, ok := e.relationships[key]; ok {
		return v, nil
	}
	v := DefaultVector()
	e.relationships[key] = v
	e.initializedCount++
	e.log.Debug("trust.initialize", "from", from, "to", to)
	return v, nil
}

// InitializeWithCtx is Initialize's context form: charges LookupGas and
// emits "trust.initialized" on first establishment.
func (e *Engine) InitializeWithCtx(ctx *execctx.Context, from, to xid.ID) (Vector6D, error) {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.LookupGas); err != nil {
		return Vector6D{}, err
	}
	if err := selfAttestation(from, to); err != nil {
		e.log.Warn("trust.initialize rejected", "from", from, "to", to, "err", err)
		return Vector6D{}, err
	}

	e.mu.Lock()
	key := RelKey{From: from, To: to}
	v, existed := e.relationships[key]
	if !existed {
		v = DefaultVector()
		e.relationships[key] = v
		e.initializedCount++
	}
	e.mu.Unlock()

	if !existed {
		e.log.Debug("trust.initialize", "from", from, "to", to)
		ctx.EmitRaw("trust.initialized", []byte(fmt.Sprintf("%s->%s", from, to)))
		ctx.Tick()
	}
	return v, nil
}

// Get returns the current relationship vector, or NewcomerVector with
// errkind.ErrNotFound if no relationship has been recorded.
func (e *Engine) Get(from, to xid.ID) (Vector6D, error) {
	if err := selfAttestation(from, to); err != nil {
		return Vector6D{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	v, ok := e.relationships[RelKey{From: from, To: to}]
	if !ok {
		return NewcomerVector(), fmt.Errorf("%w: relationship %s->%s", errkind.ErrNotFound, from, to)
	}
	return v, nil
}

// SetDirectTrust overwrites the relationship vector directly (administrative
// override, bypassing Κ4 asymmetric update). Rejects self-attestation and any
// component outside [0,1] with InvalidInput rather than silently clamping —
// an explicit out-of-bounds scalar is a caller bug, not a value to massage.
func (e *Engine) SetDirectTrust(from, to xid.ID, v Vector6D) error {
	if err := selfAttestation(from, to); err != nil {
		e.log.Warn("trust.set_direct rejected", "from", from, "to", to, "err", err)
		return err
	}
	if err := inBounds(v); err != nil {
		e.log.Warn("trust.set_direct rejected", "from", from, "to", to, "err", err)
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.relationships[RelKey{From: from, To: to}] = v
	e.log.Debug("trust.set_direct", "from", from, "to", to)
	return nil
}

// SetDirectTrustWithCtx charges UpdateGas and emits "trust.relationship".
func (e *Engine) SetDirectTrustWithCtx(ctx *execctx.Context, from, to xid.ID, v Vector6D) error {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.UpdateGas); err != nil {
		return err
	}
	if err := e.SetDirectTrust(from, to, v); err != nil {
		return err
	}
	ctx.EmitRaw("trust.relationship", []byte(fmt.Sprintf("%s->%s", from, to)))
	ctx.Tick()
	return nil
}

// ProcessEvent applies Κ4, the asymmetric directional trust update: a
// favorable event on dimension d moves the value toward 1 proportional to
// its remaining headroom (1-old); an unfavorable event moves it toward 0
// proportional to the current value, scaled by NegativeAmplification so
// trust erodes faster than it is earned.
func (e *Engine) ProcessEvent(from, to xid.ID, d Dim, favorable bool) (Vector6D, error) {
	if err := selfAttestation(from, to); err != nil {
		e.log.Warn("trust.process_event rejected", "from", from, "to", to, "err", err)
		return Vector6D{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	key := RelKey{From: from, To: to}
	v, ok := e.relationships[key]
	if !ok {
		v = DefaultVector()
	}

	old := v[d]
	if favorable {
		v[d] = old + e.params.PositiveRate*(1-old)
	} else {
		v[d] = old - e.params.NegativeRate*e.params.NegativeAmplification*old
	}
	v = v.Clamp()
	e.relationships[key] = v
	e.updateCount++
	e.log.Debug("trust.process_event", "from", from, "to", to, "dim", d, "favorable", favorable)
	return v, nil
}

// DeriveTrustDelta selects the primary trust dimension and direction for a
// payload variant (Κ4): transfers speak to reliability, attestations to
// integrity, delegations to competence, credential issuance to prestige.
// A custom event whose type string starts with "violation" is the one
// unfavorable case and lands on reliability; any other custom type is a
// mildly favorable prestige signal.
func DeriveTrustDelta(p event.Payload) (Dim, bool) {
	switch p.Kind {
	case event.PayloadTransfer:
		return DimReliability, true
	case event.PayloadAttest:
		return DimIntegrity, true
	case event.PayloadDelegate:
		return DimCompetence, true
	case event.PayloadCredentialIssue:
		return DimPrestige, true
	case event.PayloadCustom:
		if strings.HasPrefix(p.Type, "violation") {
			return DimReliability, false
		}
		return DimPrestige, true
	default:
		return DimPrestige, true
	}
}

// ProcessPayload applies Κ4 for an observed payload variant: the dimension
// and direction are derived from the payload, then the asymmetric update
// runs as in ProcessEvent.
func (e *Engine) ProcessPayload(from, to xid.ID, p event.Payload) (Vector6D, error) {
	d, favorable := DeriveTrustDelta(p)
	return e.ProcessEvent(from, to, d, favorable)
}

// ProcessPayloadWithCtx charges UpdateGas and emits "trust.updated".
func (e *Engine) ProcessPayloadWithCtx(ctx *execctx.Context, from, to xid.ID, p event.Payload) (Vector6D, error) {
	d, favorable := DeriveTrustDelta(p)
	return e.ProcessEventWithCtx(ctx, from, to, d, favorable)
}

// ProcessEventWithCtx charges UpdateGas and emits "trust.updated".
func (e *Engine) ProcessEventWithCtx(ctx *execctx.Context, from, to xid.ID, d Dim, favorable bool) (Vector6D, error) {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.UpdateGas); err != nil {
		return Vector6D{}, err
	}
	v, err := e.ProcessEvent(from, to, d, favorable)
	if err != nil {
		return Vector6D{}, err
	}
	ctx.EmitRaw("trust.updated", []byte(fmt.Sprintf("%s->%s:%s", from, to, d)))
	ctx.Tick()
	return v, nil
}

// CombineTrust wraps the package-level Combine (Κ5).
func (e *Engine) CombineTrust(vectors ...Vector6D) Vector6D {
	return Combine(vectors...)
}

// CombineTrustWithCtx charges gas proportional to the number of inputs
// combined, on top of CombineGasBase.
func (e *Engine) CombineTrustWithCtx(ctx *execctx.Context, vectors ...Vector6D) (Vector6D, error) {
	cost := e.params.CombineGasBase + uint64(len(vectors))
	if err := ctx.ConsumeGas(execctx.LayerCompute, cost); err != nil {
		return Vector6D{}, err
	}
	return Combine(vectors...), nil
}

// ChainTrust wraps the package-level ChainTrust (Τ1).
func (e *Engine) ChainTrust(scalars []float64) float64 {
	return ChainTrust(scalars)
}

// ChainTrustWithCtx charges gas proportional to chain length.
func (e *Engine) ChainTrustWithCtx(ctx *execctx.Context, scalars []float64) (float64, error) {
	cost := e.params.ChainTrustGasBase + uint64(len(scalars))
	if err := ctx.ConsumeGas(execctx.LayerCompute, cost); err != nil {
		return 0, err
	}
	return ChainTrust(scalars), nil
}

// ChainTrustPath implements Τ1 over an identity path v0 -> v1 -> ... -> vk:
// each hop's direct trust is the relationship's weighted norm under weights,
// falling back to the configured DefaultTrust for any hop with no recorded
// relationship (an under-specified choice per §9 Open Questions — this
// engine follows Τ1's literal wording rather than failing the chain). A
// path shorter than two identities has no hop to damp and returns 1.0.
func (e *Engine) ChainTrustPath(path []xid.ID, weights [6]float64) float64 {
	if len(path) < 2 {
		return 1.0
	}
	scalars := make([]float64, 0, len(path)-1)
	for i := 0; i+1 < len(path); i++ {
		norm, err := e.ContextualNorm(path[i], path[i+1], weights)
		if err != nil {
			norm = e.params.DefaultTrust
		}
		scalars = append(scalars, norm)
	}
	return ChainTrust(scalars)
}

// ChainTrustPathWithCtx charges gas proportional to path length on top of
// ChainTrustGasBase.
func (e *Engine) ChainTrustPathWithCtx(ctx *execctx.Context, path []xid.ID, weights [6]float64) (float64, error) {
	cost := e.params.ChainTrustGasBase + uint64(len(path))
	if err := ctx.ConsumeGas(execctx.LayerCompute, cost); err != nil {
		return 0, err
	}
	return e.ChainTrustPath(path, weights), nil
}

// ContextualNorm computes a relationship's weighted norm under the given
// per-dimension context weights (§4.1 "contextual trust norm").
func (e *Engine) ContextualNorm(from, to xid.ID, weights [6]float64) (float64, error) {
	v, err := e.Get(from, to)
	if err != nil {
		return 0, err
	}
	return v.WeightedNorm(weights), nil
}

// ApplyRealmCrossing discounts a trust vector when it is carried across a
// realm boundary: every dimension is scaled by discount (in (0,1]), modeling
// that trust earned in one realm only partially transfers to another.
func (e *Engine) ApplyRealmCrossing(v Vector6D, discount float64) Vector6D {
	discount = clamp01(discount)
	out := v
	for i := range out {
		out[i] *= discount
	}
	return out.Clamp()
}

// CanInteract reports whether a relationship's contextually weighted norm
// clears threshold — the trust gate consulted before allowing an
// interaction to proceed.
func (e *Engine) CanInteract(from, to xid.ID, weights [6]float64, threshold float64) (bool, error) {
	norm, err := e.ContextualNorm(from, to, weights)
	if err != nil {
		return false, err
	}
	return norm >= threshold, nil
}

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	RelationshipCount int
	InitializedCount  int
	UpdateCount       int
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		RelationshipCount: len(e.relationships),
		InitializedCount:  e.initializedCount,
		UpdateCount:       e.updateCount,
	}
}

// Health reports the engine's current counters, satisfying
// api/health.Checkable by structural typing — a live trust engine is always
// considered healthy; there is no failure state to surface beyond a panic.
func (e *Engine) Health(context.Context) (interface{}, error) {
	s := e.Stats()
	return map[string]interface{}{
		"relationships": s.RelationshipCount,
		"initialized":   s.InitializedCount,
		"updates":       s.UpdateCount,
	}, nil
}
