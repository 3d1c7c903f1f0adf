// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/event"
	"github.com/erynoa/core/formula"
	"github.com/erynoa/core/xid"
	"github.com/luxfi/log"
)

func TestMountQueries_FormulaGlobalReturnsCachedAggregate(t *testing.T) {
	require := require.New(t)

	f := formula.New(config.Mainnet().Formula, log.NewNoOpLogger())
	alice := xid.New(xid.KindIdentity, []byte("alice"))
	f.UpdateContribution(formula.Contribution{Identity: alice, Activity: 1, CausalHistorySize: 5, Surprisal: 1, TrustNorm: 0.8}, 1)

	s := NewServer()
	s.MountQueries(nil, f)

	req := httptest.NewRequest(http.MethodGet, "/formula/global", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	var resp Response
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(resp.Success)
}

func TestMountQueries_FormulaTopRanksContributors(t *testing.T) {
	require := require.New(t)

	f := formula.New(config.Mainnet().Formula, log.NewNoOpLogger())
	alice := xid.New(xid.KindIdentity, []byte("alice"))
	bob := xid.New(xid.KindIdentity, []byte("bob"))
	f.UpdateContribution(formula.Contribution{Identity: alice, Activity: 5, CausalHistorySize: 10, Surprisal: 1, TrustNorm: 0.9}, 1)
	f.UpdateContribution(formula.Contribution{Identity: bob, Activity: 1, CausalHistorySize: 2, Surprisal: 0.1, TrustNorm: 0.2}, 1)

	s := NewServer()
	s.MountQueries(nil, f)

	req := httptest.NewRequest(http.MethodGet, "/formula/top?n=1", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	var resp Response
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(resp.Success)
	require.Equal([]interface{}{alice.String()}, resp.Result)
}

func TestMountQueries_FormulaRoutesWithNilEngineReturn503(t *testing.T) {
	require := require.New(t)

	s := NewServer()
	s.MountQueries(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/formula/global", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestMountQueries_EventLookupReturnsFinality(t *testing.T) {
	require := require.New(t)

	dag := event.New(config.Mainnet().Event, log.NewNoOpLogger())
	creator := xid.New(xid.KindIdentity, []byte("alice"))
	ev := event.NewEvent(creator, nil, event.Custom("test", []byte("payload")), 1)
	require.NoError(dag.AddEvent(ev))

	s := NewServer()
	s.MountQueries(dag, nil)

	req := httptest.NewRequest(http.MethodGet, "/events/"+ev.ID.String(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	var resp Response
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(resp.Success)
	result, ok := resp.Result.(map[string]interface{})
	require.True(ok)
	require.Equal("nascent", result["finality"])
}

func TestMountQueries_EventLookupUnknownIDReturns404(t *testing.T) {
	require := require.New(t)

	dag := event.New(config.Mainnet().Event, log.NewNoOpLogger())
	s := NewServer()
	s.MountQueries(dag, nil)

	unknown := xid.New(xid.KindEvent, []byte("nope"))
	req := httptest.NewRequest(http.MethodGet, "/events/"+unknown.String(), nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	require.Equal(http.StatusNotFound, rec.Code)
}
