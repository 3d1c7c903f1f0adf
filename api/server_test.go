// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/erynoa/core/api/health"
	"github.com/erynoa/core/api/metrics"
)

func TestServer_HealthzReportsAggregatedStatus(t *testing.T) {
	require := require.New(t)

	s := NewServer()
	s.Health.Register("trust", health.CheckableFunc(func(context.Context) (interface{}, error) {
		return map[string]interface{}{"relationships": 2}, nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
	var report health.Report
	require.NoError(json.Unmarshal(rec.Body.Bytes(), &report))
	require.True(report.Healthy)
	require.Len(report.Checks, 1)
}

func TestServer_HealthzReturns503WhenUnhealthy(t *testing.T) {
	require := require.New(t)

	s := NewServer()
	s.Health.Register("broken", health.CheckableFunc(func(context.Context) (interface{}, error) {
		return nil, context.DeadlineExceeded
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestServer_MetricsServesRegisteredGatherer(t *testing.T) {
	require := require.New(t)

	s := NewServer()
	gatherer := metrics.NewPrefixGatherer()
	require.NoError(s.Metrics.Register("test", gatherer))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	require.Equal(http.StatusOK, rec.Code)
}
