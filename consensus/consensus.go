// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package consensus implements the Consensus Engine (C3): trust-weighted
// witness attestation over events, and finality-level transition gating.
package consensus

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/event"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/trust"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/log"
)

// WitnessAttestation is one witness's signed claim about an event,
// weighted by that witness's trust at attestation time (§3). Signature is
// opaque to the engine — verification is the embedder's concern — and
// Timestamp is the attestation's temporal coordinate on the submitting
// context's logical clock.
type WitnessAttestation struct {
	EventID   xid.ID
	Witness   xid.ID
	Trust     float64
	Signature []byte
	Timestamp uint64
}

// FinalityCheck is the result of evaluating Κ18 for a single event.
type FinalityCheck struct {
	EventID          xid.ID
	WitnessCount     int
	TotalTrust       float64
	MaxPossibleTrust float64
	TrustRatio       float64
	Reached          bool
}

// Engine is the trust-weighted witness-attestation consensus engine,
// following the teacher's quorum.WeightedStatic shape (a weight map guarded
// by a single RWMutex) generalized to per-event attestation sets.
type Engine struct {
	mu sync.RWMutex

	witnesses    map[xid.ID]float64              // registered witness -> trust weight
	attestations map[xid.ID]map[xid.ID]float64   // event -> witness -> trust weight, last write wins
	records      map[xid.ID][]WitnessAttestation // event -> attestation list, duplicates appended

	params config.ConsensusParams
	log    log.Logger

	registeredCount  int
	attestationCount int
}

// New constructs an Engine.
func New(params config.ConsensusParams, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Engine{
		witnesses:    make(map[xid.ID]float64),
		attestations: make(map[xid.ID]map[xid.ID]float64),
		records:      make(map[xid.ID][]WitnessAttestation),
		params:       params,
		log:          logger,
	}
}

// RegisterWitness admits id as an eligible witness at the given trust
// weight, gated by MinWitnessTrust.
func (e *Engine) RegisterWitness(id xid.ID, trustWeight float64) error {
	if trustWeight < e.params.MinWitnessTrust {
		err := &errkind.TrustGateBlockedDetail{Required: e.params.MinWitnessTrust, Actual: trustWeight}
		e.log.Warn("consensus.register_witness rejected", "witness", id, "err", err)
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, existed := e.witnesses[id]; !existed {
		e.registeredCount++
	}
	e.witnesses[id] = trustWeight
	e.log.Debug("consensus.register_witness", "witness", id, "weight", trustWeight)
	return nil
}

// RegisterWitnessVector registers id using its trust vector's weighted norm
// under the given context weights — the §3 witness contract (an identity
// whose normed trust clears the configured floor) without making the caller
// collapse the vector itself.
func (e *Engine) RegisterWitnessVector(id xid.ID, v trust.Vector6D, weights [6]float64) error {
	return e.RegisterWitness(id, v.WeightedNorm(weights))
}

// IsRegisteredWitness reports whether id is currently an eligible witness.
func (e *Engine) IsRegisteredWitness(id xid.ID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.witnesses[id]
	return ok
}

// Attest records att, gated by witness registration. The witness's trust at
// attestation time is taken from the registry, overriding whatever the
// caller put in att.Trust. The full record is appended to the event's
// attestation list even when the same witness attests again; finality
// counting keys by witness, so a repeat only refreshes that witness's weight
// (last write wins) and can never double-count it.
func (e *Engine) Attest(att WitnessAttestation) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	weight, ok := e.witnesses[att.Witness]
	if !ok {
		err := fmt.Errorf("%w: %s", errkind.ErrUnauthorizedWitness, att.Witness)
		e.log.Warn("consensus.add_attestation rejected", "event", att.EventID, "witness", att.Witness, "err", err)
		return err
	}
	if weight < e.params.MinWitnessTrust {
		err := fmt.Errorf("%w: witness %s", errkind.ErrInsufficientTrust, att.Witness)
		e.log.Warn("consensus.add_attestation rejected", "event", att.EventID, "witness", att.Witness, "err", err)
		return err
	}
	att.Trust = weight

	byWitness, ok := e.attestations[att.EventID]
	if !ok {
		byWitness = make(map[xid.ID]float64)
		e.attestations[att.EventID] = byWitness
	}
	byWitness[att.Witness] = weight
	e.records[att.EventID] = append(e.records[att.EventID], att)
	e.attestationCount++
	e.log.Debug("consensus.add_attestation", "event", att.EventID, "witness", att.Witness)
	return nil
}

// AddAttestation is Attest's short form for callers without a signature or
// temporal coordinate to record.
func (e *Engine) AddAttestation(eventID, witness xid.ID) error {
	return e.Attest(WitnessAttestation{EventID: eventID, Witness: witness})
}

// Attestations returns the event's full attestation list in admission
// order, duplicates included.
func (e *Engine) Attestations(eventID xid.ID) []WitnessAttestation {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]WitnessAttestation(nil), e.records[eventID]...)
}

// AddAttestationWithCtx charges AttestationGas and emits
// "consensus.attestation_added".
func (e *Engine) AddAttestationWithCtx(ctx *execctx.Context, eventID, witness xid.ID) error {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.AttestationGas); err != nil {
		return err
	}
	if err := e.AddAttestation(eventID, witness); err != nil {
		return err
	}
	ctx.EmitRaw("consensus.attestation_added", eventID.Bytes())
	ctx.Tick()
	return nil
}

// maxPossibleTrustLocked sums the trust weight of every registered witness:
// the denominator Κ18 measures a single event's attestation against.
func (e *Engine) maxPossibleTrustLocked() float64 {
	total := 0.0
	for _, w := range e.witnesses {
		total += w
	}
	return total
}

// CheckFinality implements Κ18: an event reaches finality once its
// witness count clears MinWitnesses and its attested trust ratio (attested
// trust over all possible registered trust) clears FinalityThreshold.
func (e *Engine) CheckFinality(eventID xid.ID) FinalityCheck {
	e.mu.RLock()
	defer e.mu.RUnlock()

	byWitness := e.attestations[eventID]
	totalTrust := 0.0
	for _, w := range byWitness {
		totalTrust += w
	}
	maxTrust := e.maxPossibleTrustLocked()

	ratio := 0.0
	if maxTrust > 0 {
		ratio = totalTrust / maxTrust
	}

	return FinalityCheck{
		EventID:          eventID,
		WitnessCount:     len(byWitness),
		TotalTrust:       totalTrust,
		MaxPossibleTrust: maxTrust,
		TrustRatio:       ratio,
		Reached:          len(byWitness) >= e.params.MinWitnesses && ratio >= e.params.FinalityThreshold,
	}
}

// CheckFinalityWithCtx charges FinalityCheckGas plus PerWitnessGas for every
// attesting witness considered.
func (e *Engine) CheckFinalityWithCtx(ctx *execctx.Context, eventID xid.ID) (FinalityCheck, error) {
	e.mu.RLock()
	witnessCount := len(e.attestations[eventID])
	e.mu.RUnlock()

	cost := e.params.FinalityCheckGas + uint64(witnessCount)*e.params.PerWitnessGas
	if err := ctx.ConsumeGas(execctx.LayerCompute, cost); err != nil {
		return FinalityCheck{}, err
	}
	return e.CheckFinality(eventID), nil
}

// EstimateRevertProbability implements the revert-probability estimate
// associated with a finality check: the chance a finalized event is later
// overturned falls exponentially with both trust ratio and witness count.
func EstimateRevertProbability(check FinalityCheck, securityFactor float64) float64 {
	return math.Pow(1-check.TrustRatio, float64(check.WitnessCount)*securityFactor)
}

// EstimateRevertProbability computes the revert-probability estimate for a
// check using the engine's configured security factor.
func (e *Engine) EstimateRevertProbability(check FinalityCheck) float64 {
	return EstimateRevertProbability(check, e.params.SecurityFactor)
}

// RecommendedLevel implements §4.3's "recommended finality level" table:
// Anchored once a reached check's revert probability clears
// AnchoredRevertThreshold, Witnessed once reached at all, Validated once any
// witness has attested, else Nascent. This is a recommendation only — the
// caller must still commit it through the Event Engine's monotonic Κ10
// transition.
func (e *Engine) RecommendedLevel(check FinalityCheck) event.FinalityLevel {
	switch {
	case check.Reached && e.EstimateRevertProbability(check) < e.params.AnchoredRevertThreshold:
		return event.Anchored
	case check.Reached:
		return event.Witnessed
	case check.WitnessCount > 0:
		return event.Validated
	default:
		return event.Nascent
	}
}

// ValidateFinalityTransitionWithCtx enforces Κ10 at the consensus layer
// before an event.FinalityLevel transition is committed to the DAG: a
// proposed level below old is a fatal regression; otherwise the event's
// attestations are re-scored and the transition is approved only when the
// recommended level covers the proposal.
func (e *Engine) ValidateFinalityTransitionWithCtx(ctx *execctx.Context, eventID xid.ID, old, proposed event.FinalityLevel) (bool, error) {
	if proposed < old {
		err := &errkind.FinalityRegression{Old: uint8(old), New: uint8(proposed)}
		e.log.Error("consensus.validate_finality_transition fatal", "event", eventID, "err", err)
		return false, err
	}
	check, err := e.CheckFinalityWithCtx(ctx, eventID)
	if err != nil {
		return false, err
	}
	return e.RecommendedLevel(check) >= proposed, nil
}

// Stats is a point-in-time snapshot of engine activity.
type Stats struct {
	RegisteredWitnesses int
	AttestedEvents      int
	AttestationCount    int
}

// Stats returns a snapshot of the engine's counters.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		RegisteredWitnesses: len(e.witnesses),
		AttestedEvents:      len(e.attestations),
		AttestationCount:    e.attestationCount,
	}
}

// Health reports the engine's current counters, satisfying
// api/health.Checkable by structural typing.
func (e *Engine) Health(context.Context) (interface{}, error) {
	s := e.Stats()
	return map[string]interface{}{
		"witnesses":    s.RegisteredWitnesses,
		"events":       s.AttestedEvents,
		"attestations": s.AttestationCount,
	}, nil
}
