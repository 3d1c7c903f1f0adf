// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package formula

import (
	"context"
	"testing"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func testEngine() *Engine {
	return New(config.Mainnet().Formula, log.NewNoOpLogger())
}

func identity(name string) xid.ID {
	return xid.New(xid.KindIdentity, []byte(name))
}

func TestUpdateContribution_IncrementalCacheMatchesComputeGlobal(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	e.UpdateContribution(Contribution{Identity: identity("alice"), Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1, HumanLevel: Full}, 1)
	e.UpdateContribution(Contribution{Identity: identity("bob"), Activity: 20, TrustNorm: 0.4, CausalHistorySize: 3, Surprisal: 1}, 1)

	cached := e.GetCachedGlobal()
	computed := e.ComputeGlobal(100)

	require.InDelta(cached.TotalE, computed.TotalE, 1e-9)
	require.InDelta(cached.AvgActivity, computed.AvgActivity, 1e-9)
	require.InDelta(cached.AvgTrustNorm, computed.AvgTrustNorm, 1e-9)
	require.Equal(cached.HumanRatio, computed.HumanRatio)
}

func TestUpdateContribution_OverwriteAdjustsCacheCorrectly(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	alice := identity("alice")
	e.UpdateContribution(Contribution{Identity: alice, Activity: 10, TrustNorm: 0.5, CausalHistorySize: 2, Surprisal: 1}, 1)
	e.UpdateContribution(Contribution{Identity: alice, Activity: 30, TrustNorm: 0.9, CausalHistorySize: 4, Surprisal: 1}, 2)

	g := e.GetCachedGlobal()
	require.Equal(1, g.EntityCount)
	require.InDelta(30, g.AvgActivity, 1e-9)
	require.InDelta(0.9, g.AvgTrustNorm, 1e-9)
}

// TestScenarioS7_WorldFormulaO1Read mirrors spec.md scenario S7: seed the
// cache with compute_global, update one contribution, and require the O(1)
// cached read to match a fresh authoritative recomputation to 1e-9.
func TestScenarioS7_WorldFormulaO1Read(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	alice := identity("alice")
	bob := identity("bob")
	e.UpdateContribution(Contribution{Identity: alice, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1.5, HumanLevel: Full}, 1)
	e.UpdateContribution(Contribution{Identity: bob, Activity: 3, TrustNorm: 0.4, CausalHistorySize: 2, Surprisal: 0.5}, 1)

	e.ComputeGlobal(2)

	e.UpdateContribution(Contribution{Identity: alice, Activity: 12, TrustNorm: 0.85, CausalHistorySize: 6, Surprisal: 1.6, HumanLevel: Full}, 3)

	cached := e.GetCachedGlobal()
	fresh := e.ComputeGlobal(4)
	require.InDelta(fresh.TotalE, cached.TotalE, 1e-9)
}

func TestComputeIndividual_NotFound(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	_, err := e.ComputeIndividual(identity("ghost"), 0)
	require.ErrorIs(err, errkind.ErrNotFound)
}

func TestComputeIndividual_HumanVerifiedScoresHigher(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	verified := identity("verified")
	unverified := identity("unverified")
	e.UpdateContribution(Contribution{Identity: verified, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1, HumanLevel: Full}, 0)
	e.UpdateContribution(Contribution{Identity: unverified, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1, HumanLevel: NotVerified}, 0)

	vScore, err := e.ComputeIndividual(verified, 0)
	require.NoError(err)
	uScore, err := e.ComputeIndividual(unverified, 0)
	require.NoError(err)
	require.Greater(vScore, uScore)
}

func TestComputeIndividual_LongerCausalHistoryScoresHigher(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	shallow := identity("shallow")
	deep := identity("deep")
	e.UpdateContribution(Contribution{Identity: shallow, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 2, Surprisal: 1}, 0)
	e.UpdateContribution(Contribution{Identity: deep, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 500, Surprisal: 1}, 0)

	shallowScore, err := e.ComputeIndividual(shallow, 0)
	require.NoError(err)
	deepScore, err := e.ComputeIndividual(deep, 0)
	require.NoError(err)
	require.Greater(deepScore, shallowScore)
}

func TestComputeIndividual_ZeroOrOneHistorySizeTreatedAsNoCompounding(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	a := identity("a")
	b := identity("b")
	e.UpdateContribution(Contribution{Identity: a, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 0, Surprisal: 2}, 0)
	e.UpdateContribution(Contribution{Identity: b, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 1, Surprisal: 2}, 0)

	aScore, err := e.ComputeIndividual(a, 0)
	require.NoError(err)
	bScore, err := e.ComputeIndividual(b, 0)
	require.NoError(err)
	require.InDelta(aScore, bScore, 1e-9)
}

func TestActivityScore_LinearThenSaturates(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	kappa := config.Mainnet().Formula.ActivityThreshold
	require.Equal(0.0, e.ActivityScore(0))
	require.InDelta(0.5, e.ActivityScore(kappa/2), 1e-9)
	require.Equal(1.0, e.ActivityScore(kappa))
	require.Equal(1.0, e.ActivityScore(kappa*10))
}

func TestTemporalWeight_DecaysWithInactivity(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	fresh := e.TemporalWeight(0)
	stale := e.TemporalWeight(30)
	require.Equal(1.0, fresh)
	require.Less(stale, fresh)
}

func TestComputeIndividual_DecaysWithElapsedClock(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	id := identity("idle")
	e.UpdateContribution(Contribution{Identity: id, Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1}, 100)

	fresh, err := e.ComputeIndividual(id, 100)
	require.NoError(err)
	later, err := e.ComputeIndividual(id, 200)
	require.NoError(err)
	require.Less(later, fresh)
}

func TestTopContributorsWithCtx_RanksDescending(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	low := identity("low")
	high := identity("high")
	e.UpdateContribution(Contribution{Identity: low, Activity: 1, TrustNorm: 0.1, CausalHistorySize: 2, Surprisal: 1}, 0)
	e.UpdateContribution(Contribution{Identity: high, Activity: 100, TrustNorm: 0.9, CausalHistorySize: 10, Surprisal: 1}, 0)

	ctx := execctx.New(1000, "", "")
	top, err := e.TopContributorsWithCtx(ctx, 2, 0)
	require.NoError(err)
	require.Len(top, 2)
	require.Equal(high, top[0])
}

func TestTopContributorsWithCtx_CapsToAffordableBudget(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	ids := make([]xid.ID, 5)
	for i := 0; i < 5; i++ {
		ids[i] = identity(string(rune('a' + i)))
		e.UpdateContribution(Contribution{Identity: ids[i], Activity: float64(i + 1), TrustNorm: 0.5, CausalHistorySize: 2, Surprisal: 1}, 0)
	}

	ctx := execctx.New(e.params.SurprisalGas*2, "", "")
	top, err := e.TopContributorsWithCtx(ctx, 5, 0)
	require.NoError(err)
	require.Len(top, 2)
	// The budget caps the returned count, never the candidate set: the two
	// highest-activity identities must come back even though three others
	// were scored along the way.
	require.Equal(ids[4], top[0])
	require.Equal(ids[3], top[1])
	require.EqualValues(0, ctx.GasRemaining(), "exactly two items' worth of gas is charged")
}

func TestComputeForRealm_FiltersByRealm(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	realmA := xid.New(xid.KindRealm, []byte("a"))
	realmB := xid.New(xid.KindRealm, []byte("b"))
	e.UpdateContribution(Contribution{Identity: identity("in-a"), Realm: realmA, Activity: 10, TrustNorm: 0.5, CausalHistorySize: 2, Surprisal: 1}, 0)
	e.UpdateContribution(Contribution{Identity: identity("in-b"), Realm: realmB, Activity: 99, TrustNorm: 0.5, CausalHistorySize: 2, Surprisal: 1}, 0)

	g := e.ComputeForRealm(realmA)
	require.Equal(1, g.EntityCount)
	require.InDelta(10, g.AvgActivity, 1e-9)
}

func TestSnapshotGlobal_Delta24hMeasuresGrowthSinceSnapshot(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	e.UpdateContribution(Contribution{Identity: identity("alice"), Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1}, 1)
	e.SnapshotGlobal()
	e.UpdateContribution(Contribution{Identity: identity("bob"), Activity: 20, TrustNorm: 0.4, CausalHistorySize: 5, Surprisal: 1}, 2)

	g := e.GetCachedGlobal()
	require.Greater(g.Delta24h, 0.0)
}

func TestHealth_ReportsCachedGlobal(t *testing.T) {
	require := require.New(t)

	e := testEngine()
	e.UpdateContribution(Contribution{Identity: identity("alice"), Activity: 10, TrustNorm: 0.8, CausalHistorySize: 5, Surprisal: 1}, 1)

	details, err := e.Health(context.Background())
	require.NoError(err)
	m, ok := details.(map[string]interface{})
	require.True(ok)
	require.Equal(1, m["entities"])
}
