// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package trust

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultVector_IsNeutral(t *testing.T) {
	require := require.New(t)
	v := DefaultVector()
	for i := 0; i < 6; i++ {
		require.Equal(0.5, v[i])
	}
}

func TestWeightedNorm_Uniform(t *testing.T) {
	require := require.New(t)
	v := DefaultVector()
	require.InDelta(0.5, v.WeightedNorm(UniformWeights()), 1e-9)
}

func TestWeightedNorm_ZeroWeights(t *testing.T) {
	require := require.New(t)
	v := DefaultVector()
	require.Equal(0.0, v.WeightedNorm([6]float64{}))
}

func TestCombine_TwoHalves(t *testing.T) {
	require := require.New(t)
	a := Vector6D{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	b := Vector6D{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
	out := Combine(a, b)
	for i := 0; i < 6; i++ {
		require.InDelta(0.75, out[i], 1e-9)
	}
}

func TestCombine_NeverDecreasesBelowMax(t *testing.T) {
	require := require.New(t)
	a := Vector6D{0.9, 0, 0, 0, 0, 0}
	b := Vector6D{0.1, 0, 0, 0, 0, 0}
	out := Combine(a, b)
	require.GreaterOrEqual(out[0], 0.9)
}

// TestScenarioS1_CombineScalars mirrors spec.md scenario S1.
func TestScenarioS1_CombineScalars(t *testing.T) {
	require := require.New(t)
	require.InDelta(0.976, CombineScalars([]float64{0.8, 0.7, 0.6}), 1e-3)
}

func TestCombineScalars_Laws(t *testing.T) {
	require := require.New(t)

	require.Equal(0.0, CombineScalars(nil))
	require.InDelta(0.42, CombineScalars([]float64{0.42}), 1e-9)
	require.InDelta(1.0, CombineScalars([]float64{0.3, 1.0}), 1e-9)

	// Adding a source never decreases the result.
	base := CombineScalars([]float64{0.5, 0.2})
	more := CombineScalars([]float64{0.5, 0.2, 0.1})
	require.GreaterOrEqual(more, base)
}

func TestChainTrust_SingleHopIsIdentity(t *testing.T) {
	require := require.New(t)
	require.InDelta(0.8, ChainTrust([]float64{0.8}), 1e-9)
}

func TestChainTrust_BrokenHopCollapsesToZero(t *testing.T) {
	require := require.New(t)
	require.Equal(0.0, ChainTrust([]float64{0.9, 0, 0.9}))
}

func TestChainTrust_EmptyIsZero(t *testing.T) {
	require := require.New(t)
	require.Equal(0.0, ChainTrust(nil))
}

func TestClamp_BoundsToUnitInterval(t *testing.T) {
	require := require.New(t)
	v := Vector6D{1.5, -0.5, 0.5, 0.5, 0.5, 0.5}.Clamp()
	require.Equal(1.0, v[0])
	require.Equal(0.0, v[1])
}
