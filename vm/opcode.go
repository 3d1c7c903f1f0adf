// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import "github.com/erynoa/core/execctx"

// Op identifies a single VM instruction.
type Op uint8

const (
	// Stack
	OpPushConst Op = iota
	OpPop
	OpDup
	OpSwap
	OpPick

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpMin
	OpMax

	// Compare
	OpEq
	OpNeq
	OpGt
	OpGte
	OpLt
	OpLte

	// Logic
	OpAnd
	OpOr
	OpNot

	// Control
	OpJump
	OpJumpIfFalse
	OpJumpIfTrue
	OpCall
	OpReturn
	OpHalt
	OpAbort

	// Trust
	OpTrustDim
	OpTrustNorm
	OpTrustCombine
	OpTrustCreate

	// Host
	OpLoadTrust
	OpHasCredential
	OpResolveDID
	OpGetBalance
	OpGetTimestamp
	OpLog

	// Assert
	OpAssert
	OpRequire

	// Extended (trust analytics)
	OpSurprisal
	OpTrustAboveThreshold
	OpTrustWeightedAvg
	OpTrustDistance

	// String
	OpStrLen
	OpStrEqIgnoreCase
	OpStrContains

	// Math
	OpMathAbs
	OpMathSqrt
	OpMathFloor
	OpMathCeil
	OpMathRound
	OpClamp
	OpLerp

	// Time
	OpTimeSince

	// Array
	OpContains
	OpArrayLen
	OpArrayGet
)

// Instruction is one bytecode entry: an opcode plus its immediate operands.
// PushConst carries its pushed value in Const; Jump/Call carry their target
// in Target; Pick carries its stack offset in Arg.
type Instruction struct {
	Op     Op
	Const  Value
	Target int
	Arg    uint8
}

// gasCost is the flat per-opcode gas cost (§4.4 gas schedule), grounded on
// the per-opcode cost table from the original bytecode definition.
func gasCost(op Op) uint64 {
	switch op {
	case OpPushConst, OpPop, OpDup, OpSwap, OpPick:
		return 1
	case OpAdd, OpSub, OpNeg, OpMin, OpMax:
		return 2
	case OpMul:
		return 3
	case OpDiv, OpMod:
		return 4
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
		return 2
	case OpAnd, OpOr, OpNot:
		return 1
	case OpJump, OpJumpIfFalse, OpJumpIfTrue:
		return 2
	case OpCall:
		return 10
	case OpReturn, OpHalt, OpAbort:
		return 1
	case OpTrustDim:
		return 2
	case OpTrustNorm:
		return 5
	case OpTrustCombine:
		return 8
	case OpTrustCreate:
		return 3
	case OpLoadTrust:
		return 20
	case OpHasCredential:
		return 15
	case OpResolveDID:
		return 20
	case OpGetBalance:
		return 15
	case OpGetTimestamp:
		return 3
	case OpLog:
		return 10
	case OpAssert, OpRequire:
		return 2
	case OpSurprisal:
		return 6
	case OpTrustAboveThreshold:
		return 5
	case OpTrustWeightedAvg:
		return 6
	case OpTrustDistance:
		return 6
	case OpStrLen:
		return 2
	case OpStrEqIgnoreCase:
		return 3
	case OpStrContains:
		return 5
	case OpMathAbs, OpMathFloor, OpMathCeil, OpMathRound:
		return 2
	case OpMathSqrt:
		return 4
	case OpClamp, OpLerp:
		return 3
	case OpTimeSince:
		return 3
	case OpContains, OpArrayLen:
		return 3
	case OpArrayGet:
		return 2
	default:
		return 1
	}
}

// gasLayer maps an opcode to the GasLayer its cost is charged against
// (§4.4): pure-compute opcodes charge Compute, host lookups that leave the
// sandbox charge Network, and Log charges Storage.
func gasLayer(op Op) execctx.GasLayer {
	switch op {
	case OpLoadTrust, OpHasCredential, OpResolveDID, OpGetBalance:
		return execctx.LayerNetwork
	case OpLog:
		return execctx.LayerStorage
	default:
		return execctx.LayerCompute
	}
}
