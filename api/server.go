// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package api implements the read-only HTTP status surface named in §6
// External Interfaces: health, metrics, and point-in-time engine stats.
// Erynoa's engines have no network transport of their own (§1 Non-goals
// excludes a wire protocol) — this package is the one place a host process
// exposes them over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/erynoa/core/api/health"
	"github.com/erynoa/core/api/metrics"
)

// Server wires the health Registry and metrics MultiGatherer into a
// chi.Router. It holds no engine state directly — callers register each
// engine's Checkable (for /healthz) and named prometheus.Gatherer (for
// /metrics) once at startup.
type Server struct {
	Health  *health.Registry
	Metrics metrics.MultiGatherer

	router chi.Router
}

// NewServer constructs a Server with fresh Health and Metrics registries.
func NewServer() *Server {
	s := &Server{
		Health:  health.NewRegistry(),
		Metrics: metrics.NewMultiGatherer(),
	}
	s.router = s.newRouter()
	return s
}

func (s *Server) newRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.Metrics, promhttp.HandlerOpts{}))
	return r
}

// ServeHTTP implements http.Handler, dispatching through the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.Health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(report)
}
