// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vm implements the Execution VM (C4): a deterministic,
// gas-metered stack machine with a sandboxed host interface, generalizing
// the stack-dispatch idiom from a register-based VM in the example pack to
// the stack-and-opcode model this system's bytecode uses.
package vm

import (
	"fmt"

	"github.com/erynoa/core/trust"
)

// ValueKind tags a Value's runtime type.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindBool
	KindNumber
	KindString
	KindDID
	KindTrustVector
	KindArray
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindDID:
		return "did"
	case KindTrustVector:
		return "trust_vector"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is the VM's tagged-union runtime value (§3).
type Value struct {
	Kind   ValueKind
	Bool   bool
	Number float64
	Str    string // also backs DID
	Vector trust.Vector6D
	Array  []Value
}

func Null() Value                    { return Value{Kind: KindNull} }
func Bool(b bool) Value              { return Value{Kind: KindBool, Bool: b} }
func Number(n float64) Value         { return Value{Kind: KindNumber, Number: n} }
func String(s string) Value          { return Value{Kind: KindString, Str: s} }
func DID(s string) Value             { return Value{Kind: KindDID, Str: s} }
func TrustVector(v trust.Vector6D) Value { return Value{Kind: KindTrustVector, Vector: v} }
func Array(items []Value) Value      { return Value{Kind: KindArray, Array: items} }

// IsTruthy implements the VM's truthiness rule: Null and false-Bool are
// falsy, zero numbers and empty strings/arrays are falsy, everything else
// (including any TrustVector or DID) is truthy.
func (v Value) IsTruthy() bool {
	switch v.Kind {
	case KindNull:
		return false
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number != 0
	case KindString, KindDID:
		return v.Str != ""
	case KindArray:
		return len(v.Array) > 0
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindNumber:
		return fmt.Sprintf("%g", v.Number)
	case KindString:
		return v.Str
	case KindDID:
		return v.Str
	case KindTrustVector:
		return fmt.Sprintf("%v", v.Vector)
	case KindArray:
		return fmt.Sprintf("%v", v.Array)
	default:
		return "?"
	}
}
