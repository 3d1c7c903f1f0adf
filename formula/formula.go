// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package formula implements the World-Formula Engine (C5): an
// incrementally maintained, per-identity contribution aggregate cached into
// a single global scalar with O(1) reads and periodic O(N) drift
// correction.
package formula

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/log"
	"gonum.org/v1/gonum/stat"
)

// HumanLevel is the identity's human-verification tier (§4.5 Ĥ(s)).
type HumanLevel int

const (
	NotVerified HumanLevel = iota
	Basic
	Full
)

func (h HumanLevel) String() string {
	switch h {
	case NotVerified:
		return "not_verified"
	case Basic:
		return "basic"
	case Full:
		return "full"
	default:
		return "unknown"
	}
}

// Factor returns the human-verification multiplier for the level, per the
// engine's configured FormulaParams (NotVerified is always 1.0; Basic and
// Full are configurable; FormulaParams.Valid enforces 1.0 <= Basic < Full).
func (h HumanLevel) Factor(params config.FormulaParams) float64 {
	switch h {
	case Full:
		return params.FullHumanFactor
	case Basic:
		return params.BasicHumanFactor
	default:
		return 1.0
	}
}

// Contribution is one identity's raw input to the world formula (§3, §4.5).
// Value is the contribution's computed 𝔼(s), cached at the moment of the
// last UpdateContribution call so that GetCachedGlobal's running sum never
// has to recompute a sigmoid.
type Contribution struct {
	Identity          xid.ID
	Realm             xid.ID // zero value = global/cross-realm contribution
	Activity          float64
	TrustNorm         float64 // ‖𝕎(s)‖_w, the weighted trust norm
	CausalHistorySize uint64  // |ℂ(s)|
	Surprisal         float64 // 𝒮(s)
	HumanLevel        HumanLevel
	LastUpdated       uint64 // logical clock value at last update

	Value float64 // cached 𝔼(s), computed with zero elapsed decay at update time
}

// CachedGlobal is the O(1) snapshot returned by GetCachedGlobal.
type CachedGlobal struct {
	TotalE       float64
	AvgActivity  float64
	AvgTrustNorm float64
	HumanRatio   float64
	EntityCount  int
	LastComputed uint64
	Delta24h     float64
}

// Engine maintains the running aggregate across every registered identity.
type Engine struct {
	mu sync.RWMutex

	contributions map[xid.ID]Contribution

	cachedTotalE        float64
	cachedActivitySum   float64
	cachedTrustNormSum  float64
	cachedHumanVerified int
	lastComputed        uint64
	lastSnapshotTotal   float64

	params config.FormulaParams
	log    log.Logger
}

// New constructs an empty Engine.
func New(params config.FormulaParams, logger log.Logger) *Engine {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &Engine{
		contributions: make(map[xid.ID]Contribution),
		params:        params,
		log:           logger,
	}
}

// computeValue implements 𝔼(s) = 𝔸(s) · σ(‖𝕎(s)‖_w · ln|ℂ(s)| · 𝒮(s)) · Ĥ(s),
// the decay-free contribution value cached per identity. History sizes of 0
// or 1 contribute ln=0 (a brand-new identity has no compounding novelty yet)
// rather than the undefined/negative ln of a sub-one count.
func (e *Engine) computeValue(c Contribution) float64 {
	history := c.CausalHistorySize
	logHistory := 0.0
	if history > 1 {
		logHistory = math.Log(float64(history))
	}
	sig := sigmoid(c.TrustNorm * logHistory * c.Surprisal)
	return c.Activity * sig * c.HumanLevel.Factor(e.params)
}

// ActivityScore maps a raw recent-event count (collected over the engine's
// configured ActivityWindowDays) onto the 𝔸(s) activity scalar: linear up to
// the threshold κ, then saturating at 1.0 so one hyperactive identity cannot
// dominate the aggregate. Callers that track their own activity signal can
// bypass this and set Contribution.Activity directly.
func (e *Engine) ActivityScore(recentEvents uint64) float64 {
	kappa := e.params.ActivityThreshold
	if kappa == 0 {
		return 0
	}
	if recentEvents >= kappa {
		return 1.0
	}
	return float64(recentEvents) / float64(kappa)
}

// UpdateContribution upserts an identity's contribution, subtracting its
// previous values from the running cache (if any) before adding the new
// ones — the incremental delta pattern that keeps GetCachedGlobal O(1).
// currentClock is recorded as the contribution's LastUpdated value and used
// as the basis for ComputeIndividual's later temporal decay.
func (e *Engine) UpdateContribution(c Contribution, currentClock uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updateContributionLocked(c, currentClock)
}

func (e *Engine) updateContributionLocked(c Contribution, currentClock uint64) {
	if old, ok := e.contributions[c.Identity]; ok {
		e.cachedActivitySum -= old.Activity
		e.cachedTrustNormSum -= old.TrustNorm
		e.cachedTotalE -= old.Value
		if old.HumanLevel != NotVerified {
			e.cachedHumanVerified--
		}
	}
	c.LastUpdated = currentClock
	c.Value = e.computeValue(c)

	e.cachedActivitySum += c.Activity
	e.cachedTrustNormSum += c.TrustNorm
	e.cachedTotalE += c.Value
	if c.HumanLevel != NotVerified {
		e.cachedHumanVerified++
	}
	e.contributions[c.Identity] = c
	e.log.Debug("formula.contribution_updated", "identity", c.Identity, "value", c.Value)
}

// UpdateContributionWithCtx charges ContributionGas and emits
// "formula.contribution_updated".
func (e *Engine) UpdateContributionWithCtx(ctx *execctx.Context, c Contribution, currentClock uint64) error {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.ContributionGas); err != nil {
		return err
	}
	e.UpdateContribution(c, currentClock)
	ctx.EmitRaw("formula.contribution_updated", c.Identity.Bytes())
	ctx.Tick()
	return nil
}

// GetCachedGlobal returns the O(1) cached aggregate without recomputing
// anything from scratch. Delta24h compares against the total recorded by
// the last SnapshotGlobal call.
func (e *Engine) GetCachedGlobal() CachedGlobal {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cachedGlobalLocked()
}

func (e *Engine) cachedGlobalLocked() CachedGlobal {
	n := len(e.contributions)
	if n == 0 {
		return CachedGlobal{LastComputed: e.lastComputed, Delta24h: -e.lastSnapshotTotal}
	}
	return CachedGlobal{
		TotalE:       e.cachedTotalE,
		AvgActivity:  e.cachedActivitySum / float64(n),
		AvgTrustNorm: e.cachedTrustNormSum / float64(n),
		HumanRatio:   float64(e.cachedHumanVerified) / float64(n),
		EntityCount:  n,
		LastComputed: e.lastComputed,
		Delta24h:     e.cachedTotalE - e.lastSnapshotTotal,
	}
}

// SnapshotGlobal records the current cached total as the baseline Delta24h
// is measured against; callers invoke this once per rolling 24h window.
func (e *Engine) SnapshotGlobal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastSnapshotTotal = e.cachedTotalE
}

// ComputeGlobal performs the authoritative O(N) recomputation, correcting
// any drift the incremental cache may have accumulated, and syncs the
// cache. currentClock is recorded as the new LastComputed value. Contribution
// values are NOT re-derived against currentClock here — recomputing the same
// decay-free 𝔼(s) every contribution was cached with is what lets this match
// the incremental cache within floating-point tolerance (§8 "World-formula
// cache consistency"); applying fresh temporal decay is ComputeIndividual's
// job, not this drift-correction sweep's.
func (e *Engine) ComputeGlobal(currentClock uint64) CachedGlobal {
	e.mu.Lock()
	defer e.mu.Unlock()

	activitySum, trustNormSum, totalE := 0.0, 0.0, 0.0
	humanVerified := 0
	activities := make([]float64, 0, len(e.contributions))
	trustNorms := make([]float64, 0, len(e.contributions))

	for _, c := range e.contributions {
		activities = append(activities, c.Activity)
		trustNorms = append(trustNorms, c.TrustNorm)
		activitySum += c.Activity
		trustNormSum += c.TrustNorm
		totalE += e.computeValue(c)
		if c.HumanLevel != NotVerified {
			humanVerified++
		}
	}

	e.cachedActivitySum = activitySum
	e.cachedTrustNormSum = trustNormSum
	e.cachedTotalE = totalE
	e.cachedHumanVerified = humanVerified
	e.lastComputed = currentClock
	e.log.Debug("formula.computed", "entities", len(activities), "total_e", totalE, "clock", currentClock)

	if len(activities) == 0 {
		return CachedGlobal{LastComputed: currentClock, Delta24h: -e.lastSnapshotTotal}
	}

	return CachedGlobal{
		TotalE:       totalE,
		AvgActivity:  stat.Mean(activities, nil),
		AvgTrustNorm: stat.Mean(trustNorms, nil),
		HumanRatio:   float64(humanVerified) / float64(len(activities)),
		EntityCount:  len(activities),
		LastComputed: currentClock,
		Delta24h:     totalE - e.lastSnapshotTotal,
	}
}

// ComputeGlobalWithCtx charges GlobalComputeGas and emits "formula.computed".
func (e *Engine) ComputeGlobalWithCtx(ctx *execctx.Context, currentClock uint64) (CachedGlobal, error) {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.GlobalComputeGas); err != nil {
		return CachedGlobal{}, err
	}
	g := e.ComputeGlobal(currentClock)
	ctx.EmitRaw("formula.computed", nil)
	ctx.Tick()
	return g, nil
}

// ComputeForRealm recomputes the aggregate restricted to contributions
// tagged with realm, without touching the global cache.
func (e *Engine) ComputeForRealm(realm xid.ID) CachedGlobal {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var activities, trustNorms []float64
	humanVerified := 0
	totalE := 0.0
	for _, c := range e.contributions {
		if c.Realm != realm {
			continue
		}
		activities = append(activities, c.Activity)
		trustNorms = append(trustNorms, c.TrustNorm)
		totalE += c.Value
		if c.HumanLevel != NotVerified {
			humanVerified++
		}
	}
	if len(activities) == 0 {
		return CachedGlobal{}
	}
	return CachedGlobal{
		TotalE:       totalE,
		AvgActivity:  stat.Mean(activities, nil),
		AvgTrustNorm: stat.Mean(trustNorms, nil),
		HumanRatio:   float64(humanVerified) / float64(len(activities)),
		EntityCount:  len(activities),
	}
}

// GetContribution returns the stored contribution for id.
func (e *Engine) GetContribution(id xid.ID) (Contribution, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	c, ok := e.contributions[id]
	if !ok {
		err := fmt.Errorf("%w: contribution %s", errkind.ErrNotFound, id)
		e.log.Warn("formula.get_contribution rejected", "identity", id, "err", err)
		return Contribution{}, err
	}
	return c, nil
}

// ComputeIndividual evaluates identity id's world-formula value as of
// currentClock: its cached decay-free 𝔼(s) discounted by w(s,t), the
// temporal-decay factor for however long it has been since LastUpdated.
func (e *Engine) ComputeIndividual(id xid.ID, currentClock uint64) (float64, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	c, ok := e.contributions[id]
	if !ok {
		err := fmt.Errorf("%w: contribution %s", errkind.ErrNotFound, id)
		e.log.Warn("formula.compute_individual rejected", "identity", id, "err", err)
		return 0, err
	}
	daysInactive := 0.0
	if currentClock > c.LastUpdated {
		daysInactive = float64(currentClock - c.LastUpdated)
	}
	return c.Value * temporalWeight(e.params.TemporalDecayRate, daysInactive), nil
}

// ComputeIndividualWithCtx charges SurprisalGas (the per-individual
// evaluation cost) and returns errkind.ErrNotFound if id is unknown.
func (e *Engine) ComputeIndividualWithCtx(ctx *execctx.Context, id xid.ID, currentClock uint64) (float64, error) {
	if err := ctx.ConsumeGas(execctx.LayerCompute, e.params.SurprisalGas); err != nil {
		return 0, err
	}
	return e.ComputeIndividual(id, currentClock)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// temporalWeight implements w(s,t) = decay_rate ^ days_inactive.
func temporalWeight(decayRate, daysInactive float64) float64 {
	return math.Pow(decayRate, daysInactive)
}

// TemporalWeight is the exported form of temporalWeight using the engine's
// configured decay rate.
func (e *Engine) TemporalWeight(daysInactive float64) float64 {
	return temporalWeight(e.params.TemporalDecayRate, daysInactive)
}

// rankedContribution pairs an identity with its decayed individual value,
// used only for TopContributors's sort and deterministic tie-break.
type rankedContribution struct {
	id    xid.ID
	value float64
}

// TopContributorsWithCtx scores every contribution as of currentClock, sorts
// the full set by descending value, and returns the leading identities. The
// returned count is capped by the smaller of n, the contribution-map size,
// and what the context's remaining gas affords at SurprisalGas per returned
// item — the budget caps how many winners come back, never which identities
// compete, so the true top contributor is never silently dropped. Ties break
// by ascending identity bytes so the result is deterministic regardless of
// map iteration order (§9 determinism hazards).
func (e *Engine) TopContributorsWithCtx(ctx *execctx.Context, n int, currentClock uint64) ([]xid.ID, error) {
	e.mu.RLock()
	ranked := make([]rankedContribution, 0, len(e.contributions))
	for id, c := range e.contributions {
		daysInactive := 0.0
		if currentClock > c.LastUpdated {
			daysInactive = float64(currentClock - c.LastUpdated)
		}
		v := c.Value * temporalWeight(e.params.TemporalDecayRate, daysInactive)
		ranked = append(ranked, rankedContribution{id: id, value: v})
	}
	e.mu.RUnlock()

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].value != ranked[j].value {
			return ranked[i].value > ranked[j].value
		}
		return ranked[i].id.Less(ranked[j].id)
	})

	gasPerItem := e.params.SurprisalGas
	if gasPerItem == 0 {
		gasPerItem = 1
	}
	count := n
	if count < 0 {
		count = 0
	}
	if len(ranked) < count {
		count = len(ranked)
	}
	if affordable := ctx.GasRemaining() / gasPerItem; uint64(count) > affordable {
		count = int(affordable)
	}
	if err := ctx.ConsumeGas(execctx.LayerCompute, uint64(count)*gasPerItem); err != nil {
		return nil, err
	}

	out := make([]xid.ID, count)
	for i := 0; i < count; i++ {
		out[i] = ranked[i].id
	}
	return out, nil
}

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	EntityCount  int
	LastComputed uint64
}

// Stats returns a snapshot of the engine's state.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		EntityCount:  len(e.contributions),
		LastComputed: e.lastComputed,
	}
}

// Health reports the engine's cached global aggregate, satisfying
// api/health.Checkable by structural typing.
func (e *Engine) Health(context.Context) (interface{}, error) {
	g := e.GetCachedGlobal()
	return map[string]interface{}{
		"entities":      g.EntityCount,
		"total_e":       g.TotalE,
		"last_computed": g.LastComputed,
	}, nil
}
