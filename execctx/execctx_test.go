// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package execctx

import (
	"errors"
	"testing"

	"github.com/erynoa/core/errkind"
	"github.com/stretchr/testify/require"
)

func TestConsumeGas_ChargesLayerAndBudget(t *testing.T) {
	require := require.New(t)

	ctx := New(100, "realm-1", "did:erynoa:self:alice")
	require.NoError(ctx.ConsumeGas(LayerCompute, 10))
	require.EqualValues(90, ctx.GasRemaining())
	require.EqualValues(10, ctx.LayerUsed(LayerCompute))
}

func TestConsumeGas_Exhausted(t *testing.T) {
	require := require.New(t)

	ctx := New(5, "", "")
	err := ctx.ConsumeGas(LayerCompute, 10)
	require.Error(err)
	require.True(errors.Is(err, errkind.ErrGasExhausted))
	// Failed charge must not mutate the budget.
	require.EqualValues(5, ctx.GasRemaining())
}

func TestEmitRaw_PreservesOrder(t *testing.T) {
	require := require.New(t)

	ctx := New(100, "", "")
	ctx.EmitRaw("trust.initialized", []byte("a"))
	ctx.EmitRaw("trust.updated", []byte("b"))

	events := ctx.EmittedEvents()
	require.Len(events, 2)
	require.Equal("trust.initialized", events[0].Kind)
	require.Equal("trust.updated", events[1].Kind)
}

func TestTick_MonotonicallyIncreases(t *testing.T) {
	require := require.New(t)

	ctx := New(100, "", "")
	require.EqualValues(1, ctx.Tick())
	require.EqualValues(2, ctx.Tick())
	require.EqualValues(2, ctx.Clock())
}

func TestTrackCost_Accumulates(t *testing.T) {
	require := require.New(t)

	ctx := New(100, "", "")
	ctx.TrackCost(Cost{Gas: 5, Storage: 1, Bandwidth: 0.5})
	ctx.TrackCost(Cost{Gas: 3, Storage: 2, Bandwidth: 0.25})

	total := ctx.TotalCost()
	require.EqualValues(8, total.Gas)
	require.EqualValues(3, total.Storage)
	require.InDelta(0.75, total.Bandwidth, 1e-9)
}
