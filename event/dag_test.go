// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package event

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

func testDAG() *DAG {
	return New(config.Mainnet().Event, log.NewNoOpLogger())
}

func mkCreator(name string) xid.ID {
	return xid.New(xid.KindIdentity, []byte(name))
}

func TestAddEvent_GenesisHasNoParents(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	g := NewEvent(alice, nil, Custom("test", []byte("genesis")), 0)

	require.NoError(d.AddEvent(g))
	stats := d.Stats()
	require.Equal(1, stats.EventCount)
	require.Equal(1, stats.GenesisCount)
}

func TestAddEvent_ParentNotFound(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	missing := xid.New(xid.KindEvent, []byte("ghost"))
	child := NewEvent(alice, []xid.ID{missing}, Custom("test", []byte("child")), 1)

	err := d.AddEvent(child)
	require.ErrorIs(err, errkind.ErrParentNotFound)
}

func TestAddEvent_DuplicateRejected(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	g := NewEvent(alice, nil, Custom("test", []byte("genesis")), 0)
	require.NoError(d.AddEvent(g))

	err := d.AddEvent(g)
	require.ErrorIs(err, errkind.ErrDuplicateEvent)
}

func TestAddEvent_TooManyParentsRejected(t *testing.T) {
	require := require.New(t)

	p := config.Mainnet().Event
	p.MaxParents = 1
	d := New(p, log.NewNoOpLogger())
	alice := mkCreator("alice")

	g1 := NewEvent(alice, nil, Custom("test", []byte("g1")), 0)
	g2 := NewEvent(alice, nil, Custom("test", []byte("g2")), 0)
	require.NoError(d.AddEvent(g1))
	require.NoError(d.AddEvent(g2))

	child := NewEvent(alice, []xid.ID{g1.ID, g2.ID}, Custom("test", []byte("child")), 1)
	err := d.AddEvent(child)
	require.ErrorIs(err, errkind.ErrInvalidInput)
}

func TestUpdateFinality_MonotonicAdvance(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	g := NewEvent(alice, nil, Custom("test", []byte("genesis")), 0)
	require.NoError(d.AddEvent(g))

	require.NoError(d.UpdateFinality(g.ID, Validated))
	require.NoError(d.UpdateFinality(g.ID, Witnessed))
}

func TestUpdateFinality_RegressionIsFatal(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	g := NewEvent(alice, nil, Custom("test", []byte("genesis")), 0)
	require.NoError(d.AddEvent(g))
	require.NoError(d.UpdateFinality(g.ID, Witnessed))

	err := d.UpdateFinality(g.ID, Validated)
	require.Error(err)
	require.True(errkind.IsFatal(err))
}

// TestScenarioS3_FinalityRegression mirrors spec.md scenario S3: an event at
// Witnessed refuses a Nascent proposal with FinalityRegression{old:2, new:0}.
func TestScenarioS3_FinalityRegression(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	g := NewEvent(mkCreator("alice"), nil, Custom("test", []byte("genesis")), 0)
	require.NoError(d.AddEvent(g))
	require.NoError(d.UpdateFinality(g.ID, Witnessed))

	err := d.UpdateFinality(g.ID, Nascent)
	var regression *errkind.FinalityRegression
	require.ErrorAs(err, &regression)
	require.EqualValues(2, regression.Old)
	require.EqualValues(0, regression.New)
}

func TestTopologicalOrder_ParentsBeforeChildren(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	g := NewEvent(alice, nil, Custom("test", []byte("genesis")), 0)
	require.NoError(d.AddEvent(g))
	child := NewEvent(alice, []xid.ID{g.ID}, Custom("test", []byte("child")), 1)
	require.NoError(d.AddEvent(child))

	order, err := d.TopologicalOrder()
	require.NoError(err)
	require.Len(order, 2)

	pos := map[xid.ID]int{}
	for i, id := range order {
		pos[id] = i
	}
	require.Less(pos[g.ID], pos[child.ID])
}

func TestProcessBatchWithCtx_StopsCleanlyOnGasExhaustion(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	alice := mkCreator("alice")
	events := make([]*Event, 5)
	for i := range events {
		events[i] = NewEvent(alice, nil, Custom("test", []byte{byte(i)}), uint64(i))
	}

	costPerEvent := d.params.ValidateGas + d.params.AddToDAGGas
	ctx := execctx.New(costPerEvent*2, "", "")

	processed, err := d.ProcessBatchWithCtx(ctx, events)
	require.NoError(err)
	require.Equal(2, processed)
	require.Equal(2, d.Stats().EventCount)
}

func TestAddEventWithCtx_EmitsEvent(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	ctx := execctx.New(1000, "", "")
	alice := mkCreator("alice")
	g := NewEvent(alice, nil, Custom("test", []byte("genesis")), 0)

	require.NoError(d.AddEventWithCtx(ctx, g))
	events := ctx.EmittedEvents()
	require.Len(events, 1)
	require.Equal("event.added", events[0].Kind)
}

func TestHealth_ReportsCounters(t *testing.T) {
	require := require.New(t)

	d := testDAG()
	g := NewEvent(mkCreator("alice"), nil, Custom("test", []byte("genesis")), 0)
	require.NoError(d.AddEvent(g))

	details, err := d.Health(context.Background())
	require.NoError(err)
	m, ok := details.(map[string]interface{})
	require.True(ok)
	require.Equal(1, m["events"])
}
