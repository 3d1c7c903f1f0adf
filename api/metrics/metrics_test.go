// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func familyValue(t *testing.T, families []*dto.MetricFamily, name string) float64 {
	t.Helper()
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		require.Len(t, f.GetMetric(), 1)
		m := f.GetMetric()[0]
		if c := m.GetCounter(); c != nil {
			return c.GetValue()
		}
		return m.GetGauge().GetValue()
	}
	t.Fatalf("metric family %q not found", name)
	return 0
}

func TestRegisterEngineMetrics_ReadsLiveValuesAtScrape(t *testing.T) {
	require := require.New(t)

	admitted := 3.0
	totalE := 1.5

	reg := prometheus.NewRegistry()
	require.NoError(RegisterEngineMetrics("erynoa", reg, EngineStats{
		EventsAdmitted:     func() float64 { return admitted },
		GlobalContribution: func() float64 { return totalE },
	}))

	families, err := reg.Gather()
	require.NoError(err)
	require.Equal(3.0, familyValue(t, families, "erynoa_events_admitted_total"))
	require.Equal(1.5, familyValue(t, families, "erynoa_global_contribution"))

	// The collectors hold no state of their own: a later scrape sees the
	// engines' new readings without anyone calling a setter.
	admitted = 4.0
	totalE = 2.25
	families, err = reg.Gather()
	require.NoError(err)
	require.Equal(4.0, familyValue(t, families, "erynoa_events_admitted_total"))
	require.Equal(2.25, familyValue(t, families, "erynoa_global_contribution"))
}

func TestRegisterEngineMetrics_SkipsNilReaders(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	require.NoError(RegisterEngineMetrics("erynoa", reg, EngineStats{
		AttestationsRecorded: func() float64 { return 7 },
	}))

	families, err := reg.Gather()
	require.NoError(err)
	require.Len(families, 1)
	require.Equal(7.0, familyValue(t, families, "erynoa_attestations_recorded_total"))
}
