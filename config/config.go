// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config holds the tunable parameter surface for every Erynoa
// engine (§6 "Configuration surface"): one struct per engine concern, bundled
// into Parameters, with preset constructors (Default/Mainnet/Testnet/Local)
// and a Valid() method on every level, in the style of the teacher's
// DefaultParams/MainnetParams/TestnetParams/LocalParams family.
package config

import "fmt"

// TrustParams configures the Trust Kernel (C1).
type TrustParams struct {
	// PositiveRate is the baseline Κ4 magnitude for favorable events.
	PositiveRate float64
	// NegativeRate is the Κ4 magnitude for unfavorable events, pre-amplification.
	NegativeRate float64
	// NegativeAmplification scales NegativeRate (>= 1.0): trust takes longer
	// to earn than to lose.
	NegativeAmplification float64
	// DefaultTrust is the fallback direct-trust scalar Τ1 chain-trust lookups
	// use for a hop with no recorded relationship.
	DefaultTrust float64

	LookupGas         uint64
	UpdateGas         uint64
	CombineGasBase    uint64
	ChainTrustGasBase uint64
}

func (p TrustParams) Valid() error {
	if p.PositiveRate <= 0 || p.PositiveRate > 1 {
		return fmt.Errorf("trust: positive_rate must be in (0,1], got %v", p.PositiveRate)
	}
	if p.NegativeRate <= 0 || p.NegativeRate > 1 {
		return fmt.Errorf("trust: negative_rate must be in (0,1], got %v", p.NegativeRate)
	}
	if p.NegativeAmplification < 1.0 {
		return fmt.Errorf("trust: negative_amplification must be >= 1.0, got %v", p.NegativeAmplification)
	}
	if p.DefaultTrust < 0 || p.DefaultTrust > 1 {
		return fmt.Errorf("trust: default_trust must be in [0,1], got %v", p.DefaultTrust)
	}
	return nil
}

// EventParams configures the Event Engine (C2).
type EventParams struct {
	MaxParents int

	ValidateGas       uint64
	ParentLookupGas   uint64
	CycleCheckGas     uint64
	AddToDAGGas       uint64
	FinalityUpdateGas uint64
}

func (p EventParams) Valid() error {
	if p.MaxParents < 1 {
		return fmt.Errorf("event: max_parents must be >= 1, got %d", p.MaxParents)
	}
	return nil
}

// ConsensusParams configures the Consensus Engine (C3).
type ConsensusParams struct {
	MinWitnesses      int
	FinalityThreshold float64
	// MinWitnessTrust gates witness registration and attestation (the
	// weighted-norm floor a witness identity must clear).
	MinWitnessTrust      float64
	MaxRevertProbability float64
	// AnchoredRevertThreshold is the revert-probability ceiling below which a
	// reached finality check is recommended at Anchored rather than Witnessed.
	AnchoredRevertThreshold float64
	SecurityFactor          float64

	AttestationGas   uint64
	FinalityCheckGas uint64
	PerWitnessGas    uint64
}

func (p ConsensusParams) Valid() error {
	if p.MinWitnesses < 1 {
		return fmt.Errorf("consensus: min_witnesses must be >= 1, got %d", p.MinWitnesses)
	}
	if p.FinalityThreshold <= 0 || p.FinalityThreshold > 1 {
		return fmt.Errorf("consensus: finality_threshold must be in (0,1], got %v", p.FinalityThreshold)
	}
	if p.SecurityFactor <= 0 {
		return fmt.Errorf("consensus: security_factor must be > 0, got %v", p.SecurityFactor)
	}
	return nil
}

// VMParams configures the Execution VM (C4).
type VMParams struct {
	MaxStackDepth int
}

func (p VMParams) Valid() error {
	if p.MaxStackDepth < 1 {
		return fmt.Errorf("vm: max_stack_depth must be >= 1, got %d", p.MaxStackDepth)
	}
	return nil
}

// FormulaParams configures the World-Formula Engine (C5).
type FormulaParams struct {
	ActivityWindowDays uint64
	ActivityThreshold  uint64
	TemporalDecayRate  float64

	// BasicHumanFactor and FullHumanFactor are the Ĥ(s) multipliers applied
	// for Basic- and Full-tier human verification; NotVerified is always 1.0.
	BasicHumanFactor float64
	FullHumanFactor  float64

	ContributionGas  uint64
	GlobalComputeGas uint64
	SurprisalGas     uint64

	// DriftCorrectionInterval is a cron expression for the periodic
	// compute_global sweep (§4.5).
	DriftCorrectionInterval string
}

func (p FormulaParams) Valid() error {
	if p.TemporalDecayRate <= 0 || p.TemporalDecayRate > 1 {
		return fmt.Errorf("formula: temporal_decay_rate must be in (0,1], got %v", p.TemporalDecayRate)
	}
	if p.ActivityWindowDays == 0 {
		return fmt.Errorf("formula: activity_window_days must be > 0")
	}
	if p.BasicHumanFactor < 1.0 {
		return fmt.Errorf("formula: basic_human_factor must be >= 1.0, got %v", p.BasicHumanFactor)
	}
	if p.FullHumanFactor <= p.BasicHumanFactor {
		return fmt.Errorf("formula: full_human_factor must be > basic_human_factor, got %v <= %v", p.FullHumanFactor, p.BasicHumanFactor)
	}
	return nil
}

// Parameters bundles every engine's configuration.
type Parameters struct {
	Trust     TrustParams
	Event     EventParams
	Consensus ConsensusParams
	VM        VMParams
	Formula   FormulaParams
}

// Valid validates every sub-struct.
func (p Parameters) Valid() error {
	if err := p.Trust.Valid(); err != nil {
		return err
	}
	if err := p.Event.Valid(); err != nil {
		return err
	}
	if err := p.Consensus.Valid(); err != nil {
		return err
	}
	if err := p.VM.Valid(); err != nil {
		return err
	}
	if err := p.Formula.Valid(); err != nil {
		return err
	}
	return nil
}

// Default is an alias for Mainnet, kept separate so callers can write
// config.Default() without committing to a network tier in the name.
func Default() Parameters {
	return Mainnet()
}

// Mainnet matches the defaults stated throughout spec.md §4 and §6.
func Mainnet() Parameters {
	return Parameters{
		Trust: TrustParams{
			PositiveRate:          0.1,
			NegativeRate:          0.2,
			NegativeAmplification: 1.5,
			DefaultTrust:          0.5,
			LookupGas:             5,
			UpdateGas:             10,
			CombineGasBase:        5,
			ChainTrustGasBase:     8,
		},
		Event: EventParams{
			MaxParents:        10,
			ValidateGas:       10,
			ParentLookupGas:   5,
			CycleCheckGas:     15,
			AddToDAGGas:       10,
			FinalityUpdateGas: 8,
		},
		Consensus: ConsensusParams{
			MinWitnesses:            3,
			FinalityThreshold:       0.67,
			MinWitnessTrust:         0.5,
			MaxRevertProbability:    1e-50,
			AnchoredRevertThreshold: 1e-30,
			SecurityFactor:          10,
			AttestationGas:          100,
			FinalityCheckGas:        50,
			PerWitnessGas:           20,
		},
		VM: VMParams{
			MaxStackDepth: 1024,
		},
		Formula: FormulaParams{
			ActivityWindowDays:      90,
			ActivityThreshold:       10,
			TemporalDecayRate:       0.99,
			BasicHumanFactor:        1.1,
			FullHumanFactor:         1.25,
			ContributionGas:         5,
			GlobalComputeGas:        20,
			SurprisalGas:            8,
			DriftCorrectionInterval: "@every 1h",
		},
	}
}

// Testnet relaxes consensus floors so a smaller validator set can still
// reach finality, while keeping Mainnet's gas schedule.
func Testnet() Parameters {
	p := Mainnet()
	p.Consensus.MinWitnesses = 2
	p.Consensus.FinalityThreshold = 0.51
	p.Consensus.MinWitnessTrust = 0.3
	return p
}

// Local is tuned for fast single-process tests: minimal witness floors and
// frequent drift correction, while keeping Mainnet's gas schedule.
func Local() Parameters {
	p := Mainnet()
	p.Consensus.MinWitnesses = 1
	p.Consensus.FinalityThreshold = 0.5
	p.Consensus.MinWitnessTrust = 0.0
	p.Formula.DriftCorrectionInterval = "@every 1s"
	return p
}
