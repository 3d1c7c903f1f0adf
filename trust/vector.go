// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package trust implements the Trust Kernel (C1): six-dimensional trust
// vectors, asymmetric directional updates, probabilistic combination, and
// chain-trust damping over a path of intermediate trust scalars.
package trust

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Dim indexes one of the six trust dimensions.
type Dim int

const (
	DimReliability Dim = iota // R
	DimIntegrity              // I
	DimCompetence             // C
	DimPrestige               // P
	DimVigilance              // V
	DimAlignment              // Ω
	numDims
)

func (d Dim) String() string {
	switch d {
	case DimReliability:
		return "reliability"
	case DimIntegrity:
		return "integrity"
	case DimCompetence:
		return "competence"
	case DimPrestige:
		return "prestige"
	case DimVigilance:
		return "vigilance"
	case DimAlignment:
		return "alignment"
	default:
		return "unknown"
	}
}

// Vector6D is the six-dimensional trust vector (§3 TrustVector6D). Each
// component lies in [0,1].
type Vector6D [6]float64

// DefaultVector is the neutral prior assigned to a newly initialized
// relationship: 0.5 on every dimension.
func DefaultVector() Vector6D {
	return Vector6D{0.5, 0.5, 0.5, 0.5, 0.5, 0.5}
}

// NewcomerVector is the conservative prior assigned to an identity with no
// established relationship (§4.1 host fallback rule, mirrored for C4's
// StubHost in the vm package).
func NewcomerVector() Vector6D {
	return Vector6D{0.1, 0.1, 0.1, 0.1, 0.1, 0.1}
}

// Get returns the value on dimension d.
func (v Vector6D) Get(d Dim) float64 {
	return v[d]
}

// Clamp returns v with every component clamped to [0,1].
func (v Vector6D) Clamp() Vector6D {
	out := v
	for i := range out {
		out[i] = clamp01(out[i])
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// WeightedNorm computes the context-weighted inner-product norm of v against
// weights, normalized by the sum of weights so the result stays in [0,1]
// for non-negative weights that sum to > 0 (§4.1 "contextual trust norm").
func (v Vector6D) WeightedNorm(weights [6]float64) float64 {
	wsum := floats.Sum(weights[:])
	if wsum <= 0 {
		return 0
	}
	dot := floats.Dot(v[:], weights[:])
	return dot / wsum
}

// UniformWeights is the all-ones weighting used when no realm-specific
// context is supplied.
func UniformWeights() [6]float64 {
	return [6]float64{1, 1, 1, 1, 1, 1}
}

// Combine implements Κ5, the probabilistic combination of two or more
// independent trust vectors: componentwise 1 - Π(1 - t_i). Combining
// evidence can only raise or hold confidence, never lower it below any
// single input.
func Combine(vectors ...Vector6D) Vector6D {
	var out Vector6D
	for d := 0; d < 6; d++ {
		complement := 1.0
		for _, v := range vectors {
			complement *= 1 - v[d]
		}
		out[d] = 1 - complement
	}
	return out.Clamp()
}

// CombineScalars is Κ5 over scalar trust estimates: 1 - Π(1 - t_i), the
// noisy-OR of independent evidence. An empty input combines to 0; a single
// input is returned unchanged; any input of 1.0 saturates the result at 1.0.
func CombineScalars(estimates []float64) float64 {
	complement := 1.0
	for _, t := range estimates {
		complement *= 1 - clamp01(t)
	}
	return 1 - complement
}

// ChainTrust implements Τ1: the geometric-mean-like damping of trust along a
// path of k intermediate relationship scalars, attenuated by √k so longer
// chains are trusted less even when every hop is individually strong.
// scalars must be non-empty; any scalar <= 0 collapses the whole chain to 0
// (a single broken hop breaks the chain).
func ChainTrust(scalars []float64) float64 {
	k := len(scalars)
	if k == 0 {
		return 0
	}
	sumLn := 0.0
	for _, s := range scalars {
		if s <= 0 {
			return 0
		}
		sumLn += math.Log(s)
	}
	return math.Exp(sumLn / math.Sqrt(float64(k)))
}
