// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NewPrefixGatherer returns a bare prometheus.Gatherer suitable as one
// namespaced source registered into a MultiGatherer.
func NewPrefixGatherer() prometheus.Gatherer {
	return prometheus.NewRegistry()
}