// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics exposes Erynoa engine activity as Prometheus collectors,
// following the teacher's api/metrics.MultiGatherer shape (a named-gatherer
// registry implementing prometheus.Gatherer itself).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	luxmetric "github.com/luxfi/metric"
)

// Registerer is an interface for registering prometheus metrics.
type Registerer interface {
	prometheus.Registerer
}

// Registry is an interface for a prometheus registry.
type Registry interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry creates a new prometheus registry.
func NewRegistry() Registry {
	return prometheus.NewRegistry()
}

// MultiGatherer is a prometheus gatherer that can gather metrics from
// multiple namespaced sources — one per engine (trust/event/consensus/vm/
// formula) — under a single HTTP scrape endpoint.
type MultiGatherer interface {
	prometheus.Gatherer

	// Register adds a new gatherer under namespace.
	Register(namespace string, gatherer prometheus.Gatherer) error
}

// multiGatherer implements MultiGatherer.
type multiGatherer struct {
	gatherers map[string]prometheus.Gatherer
}

// NewMultiGatherer creates a new multi-gatherer.
func NewMultiGatherer() MultiGatherer {
	return &multiGatherer{
		gatherers: make(map[string]prometheus.Gatherer),
	}
}

// Register adds a new gatherer.
func (mg *multiGatherer) Register(name string, gatherer prometheus.Gatherer) error {
	mg.gatherers[name] = gatherer
	return nil
}

// Gather implements prometheus.Gatherer.
func (mg *multiGatherer) Gather() ([]*dto.MetricFamily, error) {
	var result []*dto.MetricFamily
	for _, g := range mg.gatherers {
		families, err := g.Gather()
		if err != nil {
			return nil, err
		}
		result = append(result, families...)
	}
	return result, nil
}

// EngineStats supplies point-in-time readings for the per-engine collector
// family. The engines themselves stay free of any metrics dependency (§9
// "engines are pure, side-effect-free besides their own state"): a node
// hands in closures over each engine's read-only Stats()/GetCachedGlobal()
// accessors, and the registered collectors evaluate them at scrape time, so
// /metrics always reports the engines' live counters.
type EngineStats struct {
	// EventsAdmitted reads event.DAG.Stats().AddedCount.
	EventsAdmitted func() float64

	// FinalityTransitions reads event.DAG.Stats().FinalityCount.
	FinalityTransitions func() float64

	// AttestationsRecorded reads consensus.Engine.Stats().AttestationCount.
	AttestationsRecorded func() float64

	// GlobalContribution reads the World-Formula Engine's cached Σ𝔼(s).
	GlobalContribution func() float64
}

// RegisterEngineMetrics registers the collector family under namespace on
// registerer. Nil readers are skipped so a node hosting only a subset of the
// engines registers only the series it can answer for.
func RegisterEngineMetrics(namespace string, registerer prometheus.Registerer, stats EngineStats) error {
	if stats.EventsAdmitted != nil {
		if err := registerer.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_admitted_total",
			Help:      "Number of events admitted into the causal DAG.",
		}, stats.EventsAdmitted)); err != nil {
			return err
		}
	}
	if stats.FinalityTransitions != nil {
		if err := registerer.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finality_transitions_total",
			Help:      "Number of event finality-level advances.",
		}, stats.FinalityTransitions)); err != nil {
			return err
		}
	}
	if stats.AttestationsRecorded != nil {
		if err := registerer.Register(prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attestations_recorded_total",
			Help:      "Number of witness attestations recorded.",
		}, stats.AttestationsRecorded)); err != nil {
			return err
		}
	}
	if stats.GlobalContribution != nil {
		if err := registerer.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "global_contribution",
			Help:      "Cached Σ𝔼(s) from the World-Formula Engine.",
		}, stats.GlobalContribution)); err != nil {
			return err
		}
	}
	return nil
}

// ExternalRegistry names the host-provided github.com/luxfi/metric registry
// type (the teacher's own runtime.Metrics contract: "metric.Gatherer +
// Register(name, gatherer)", see runtime.go in the teacher repo). It is a
// type alias only: no function or field in this module accepts one, so
// Erynoa's own MultiGatherer and RegisterEngineMetrics are the only metrics
// wiring.
type ExternalRegistry = luxmetric.Registry
