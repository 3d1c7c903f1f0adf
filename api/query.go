// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/erynoa/core/event"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/formula"
	"github.com/erynoa/core/xid"
)

// MountQueries adds the read-only query surface named in §6 External
// Interfaces on top of the health/metrics routes already registered by
// NewServer: the cached global formula status, its top contributors, and an
// event's finality lookup. events and formulaEngine may be nil, in which
// case the corresponding routes respond 503 rather than panicking — a host
// that only wants health/metrics can skip this call entirely.
func (s *Server) MountQueries(events *event.DAG, formulaEngine *formula.Engine) {
	s.router.Get("/formula/global", s.handleFormulaGlobal(formulaEngine))
	s.router.Get("/formula/top", s.handleFormulaTop(formulaEngine))
	s.router.Get("/events/{id}", s.handleEventByID(events))
}

func (s *Server) handleFormulaGlobal(formulaEngine *formula.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if formulaEngine == nil {
			_ = WriteError(w, http.StatusServiceUnavailable, ErrNotFound)
			return
		}
		_ = WriteSuccess(w, formulaEngine.GetCachedGlobal())
	}
}

func (s *Server) handleFormulaTop(formulaEngine *formula.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if formulaEngine == nil {
			_ = WriteError(w, http.StatusServiceUnavailable, ErrNotFound)
			return
		}
		n := 10
		if raw := r.URL.Query().Get("n"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				_ = WriteError(w, http.StatusBadRequest, ErrBadRequest)
				return
			}
			n = parsed
		}
		var clock uint64
		if raw := r.URL.Query().Get("clock"); raw != "" {
			parsed, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				_ = WriteError(w, http.StatusBadRequest, ErrBadRequest)
				return
			}
			clock = parsed
		}

		// A query-path context is given a generous, request-scoped gas budget;
		// it is never persisted and never competes with engine-internal metering.
		ctx := execctx.New(1<<32, "", "api-query")
		ids, err := formulaEngine.TopContributorsWithCtx(ctx, n, clock)
		if err != nil {
			_ = WriteError(w, http.StatusInternalServerError, err)
			return
		}
		rendered := make([]string, len(ids))
		for i, id := range ids {
			rendered[i] = id.String()
		}
		_ = WriteSuccess(w, rendered)
	}
}

func (s *Server) handleEventByID(events *event.DAG) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if events == nil {
			_ = WriteError(w, http.StatusServiceUnavailable, ErrNotFound)
			return
		}
		id, err := xid.ParseString(chi.URLParam(r, "id"))
		if err != nil {
			_ = WriteError(w, http.StatusBadRequest, ErrBadRequest)
			return
		}
		ev, err := events.Get(id)
		if err != nil {
			_ = WriteError(w, http.StatusNotFound, ErrNotFound)
			return
		}
		_ = WriteSuccess(w, struct {
			ID       string `json:"id"`
			Parents  int    `json:"parent_count"`
			Finality string `json:"finality"`
		}{ID: ev.ID.String(), Parents: len(ev.Parents), Finality: ev.Finality.String()})
	}
}
