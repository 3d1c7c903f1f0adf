// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/erynoa/core/api"
	"github.com/erynoa/core/api/metrics"
	"github.com/erynoa/core/consensus"
	"github.com/erynoa/core/event"
	"github.com/erynoa/core/formula"
	"github.com/erynoa/core/trust"
	"github.com/luxfi/log"
)

func serveCmd() *cobra.Command {
	var addr, preset string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP status API and World-Formula drift-correction scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, addr, preset)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&preset, "preset", "mainnet", "configuration preset (mainnet, testnet, local)")
	return cmd
}

func runServe(cmd *cobra.Command, addr, preset string) error {
	params, err := resolvePreset(preset)
	if err != nil {
		return err
	}
	if err := params.Valid(); err != nil {
		return fmt.Errorf("erynoad: preset %q failed validation: %w", preset, err)
	}

	logger := log.New("erynoad")

	trustEngine := trust.New(params.Trust, logger)
	consensusEngine := consensus.New(params.Consensus, logger)
	formulaEngine := formula.New(params.Formula, logger)
	dag := event.New(params.Event, logger)

	server := api.NewServer()
	server.Health.Register("trust", trustEngine)
	server.Health.Register("event", dag)
	server.Health.Register("consensus", consensusEngine)
	server.Health.Register("formula", formulaEngine)
	server.MountQueries(dag, formulaEngine)

	reg := prometheus.NewRegistry()
	err = metrics.RegisterEngineMetrics("erynoa", reg, metrics.EngineStats{
		EventsAdmitted:       func() float64 { return float64(dag.Stats().AddedCount) },
		FinalityTransitions:  func() float64 { return float64(dag.Stats().FinalityCount) },
		AttestationsRecorded: func() float64 { return float64(consensusEngine.Stats().AttestationCount) },
		GlobalContribution:   func() float64 { return formulaEngine.GetCachedGlobal().TotalE },
	})
	if err != nil {
		return fmt.Errorf("erynoad: registering metrics: %w", err)
	}
	if err := server.Metrics.Register("erynoa", reg); err != nil {
		return fmt.Errorf("erynoad: registering gatherer: %w", err)
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(params.Formula.DriftCorrectionInterval, func() {
		clock := uint64(time.Now().Unix())
		g := formulaEngine.ComputeGlobal(clock)
		logger.Info("formula.drift_correction", "entities", g.EntityCount, "total_e", g.TotalE)
	}); err != nil {
		return fmt.Errorf("erynoad: scheduling drift correction: %w", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	httpServer := &http.Server{Addr: addr, Handler: server}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("erynoad.listening", "addr", addr, "preset", preset)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}
