// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"encoding/json"
	"fmt"

	"github.com/erynoa/core/trust"
)

// opNames maps every Op to its textual bytecode-format name (§6 "Policy
// bytecode format"). Kept as a single table; an opcode missing from it
// compiles silently, renders as "Op(n)" and cannot be parsed back.
var opNames = map[Op]string{
	OpPushConst: "PushConst", OpPop: "Pop", OpDup: "Dup", OpSwap: "Swap", OpPick: "Pick",
	OpAdd: "Add", OpSub: "Sub", OpMul: "Mul", OpDiv: "Div", OpMod: "Mod",
	OpNeg: "Neg", OpMin: "Min", OpMax: "Max",
	OpEq: "Eq", OpNeq: "Neq", OpGt: "Gt", OpGte: "Gte", OpLt: "Lt", OpLte: "Lte",
	OpAnd: "And", OpOr: "Or", OpNot: "Not",
	OpJump: "Jump", OpJumpIfFalse: "JumpIfFalse", OpJumpIfTrue: "JumpIfTrue",
	OpCall: "Call", OpReturn: "Return", OpHalt: "Halt", OpAbort: "Abort",
	OpTrustDim: "TrustDim", OpTrustNorm: "TrustNorm", OpTrustCombine: "TrustCombine", OpTrustCreate: "TrustCreate",
	OpLoadTrust: "LoadTrust", OpHasCredential: "HasCredential", OpResolveDID: "ResolveDID",
	OpGetBalance: "GetBalance", OpGetTimestamp: "GetTimestamp", OpLog: "Log",
	OpAssert: "Assert", OpRequire: "Require",
	OpSurprisal: "Surprisal", OpTrustAboveThreshold: "TrustAboveThreshold",
	OpTrustWeightedAvg: "TrustWeightedAvg", OpTrustDistance: "TrustDistance",
	OpStrLen: "StrLen", OpStrEqIgnoreCase: "StrEqIgnoreCase", OpStrContains: "StrContains",
	OpMathAbs: "MathAbs", OpMathSqrt: "MathSqrt", OpMathFloor: "MathFloor",
	OpMathCeil: "MathCeil", OpMathRound: "MathRound", OpClamp: "Clamp", OpLerp: "Lerp",
	OpTimeSince: "TimeSince",
	OpContains:  "Contains", OpArrayLen: "ArrayLen", OpArrayGet: "ArrayGet",
}

var namesToOp = func() map[string]Op {
	m := make(map[string]Op, len(opNames))
	for op, name := range opNames {
		m[name] = op
	}
	return m
}()

// String renders op's bytecode-format name, or a numeric placeholder for an
// opcode value with no registered name.
func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", uint8(op))
}

// ParseOp resolves a bytecode-format opcode name back to its Op value.
func ParseOp(name string) (Op, error) {
	op, ok := namesToOp[name]
	if !ok {
		return 0, fmt.Errorf("vm: unknown opcode %q", name)
	}
	return op, nil
}

// MarshalJSON renders op by name.
func (op Op) MarshalJSON() ([]byte, error) {
	return json.Marshal(op.String())
}

// UnmarshalJSON resolves op from its name.
func (op *Op) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseOp(name)
	if err != nil {
		return err
	}
	*op = parsed
	return nil
}

// jsonValue is Value's wire shape for the policy bytecode format (§6):
// tagged by a textual kind rather than Value's internal numeric ValueKind.
// Vector is ordered [R, I, C, P, V, Ω], matching trust.Vector6D's own
// component order.
type jsonValue struct {
	Kind   string      `json:"kind"`
	Bool   bool        `json:"bool,omitempty"`
	Number float64     `json:"number,omitempty"`
	Str    string      `json:"str,omitempty"`
	Vector *[6]float64 `json:"vector,omitempty"`
	Array  []jsonValue `json:"array,omitempty"`
}

// MarshalJSON renders v in the bytecode format's tagged-value shape.
func (v Value) MarshalJSON() ([]byte, error) {
	jv := jsonValue{Kind: v.Kind.String()}
	switch v.Kind {
	case KindBool:
		jv.Bool = v.Bool
	case KindNumber:
		jv.Number = v.Number
	case KindString, KindDID:
		jv.Str = v.Str
	case KindTrustVector:
		arr := [6]float64(v.Vector)
		jv.Vector = &arr
	case KindArray:
		jv.Array = make([]jsonValue, len(v.Array))
		for i, item := range v.Array {
			raw, err := item.MarshalJSON()
			if err != nil {
				return nil, err
			}
			if err := json.Unmarshal(raw, &jv.Array[i]); err != nil {
				return nil, err
			}
		}
	}
	return json.Marshal(jv)
}

// UnmarshalJSON parses v from the bytecode format's tagged-value shape.
func (v *Value) UnmarshalJSON(data []byte) error {
	var jv jsonValue
	if err := json.Unmarshal(data, &jv); err != nil {
		return err
	}
	switch jv.Kind {
	case "null", "":
		*v = Null()
	case "bool":
		*v = Bool(jv.Bool)
	case "number":
		*v = Number(jv.Number)
	case "string":
		*v = String(jv.Str)
	case "did":
		*v = DID(jv.Str)
	case "trust_vector":
		if jv.Vector == nil {
			return fmt.Errorf("vm: trust_vector value missing its vector field")
		}
		*v = TrustVector(trust.Vector6D(*jv.Vector))
	case "array":
		items := make([]Value, len(jv.Array))
		for i, raw := range jv.Array {
			encoded, err := json.Marshal(raw)
			if err != nil {
				return err
			}
			if err := json.Unmarshal(encoded, &items[i]); err != nil {
				return err
			}
		}
		*v = Array(items)
	default:
		return fmt.Errorf("vm: unknown value kind %q", jv.Kind)
	}
	return nil
}

// jsonInstruction is Instruction's wire shape: Const is only meaningful for
// PushConst, Target only for Jump/JumpIfFalse/JumpIfTrue/Call, Arg only for
// Pick.
type jsonInstruction struct {
	Op     Op     `json:"op"`
	Const  *Value `json:"const,omitempty"`
	Target int    `json:"target,omitempty"`
	Arg    uint8  `json:"arg,omitempty"`
}

// Program is a flat, JSON-serializable instruction sequence: the wire
// representation of "compiled policy bytecode" named in §6. No relocatable
// code, no imports — a Program is self-contained.
type Program []Instruction

// MarshalJSON renders the program as an array of tagged instructions.
func (p Program) MarshalJSON() ([]byte, error) {
	out := make([]jsonInstruction, len(p))
	for i, instr := range p {
		ji := jsonInstruction{Op: instr.Op, Target: instr.Target, Arg: instr.Arg}
		if instr.Op == OpPushConst {
			c := instr.Const
			ji.Const = &c
		}
		out[i] = ji
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses a program from its JSON instruction array.
func (p *Program) UnmarshalJSON(data []byte) error {
	var raw []jsonInstruction
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Program, len(raw))
	for i, ji := range raw {
		instr := Instruction{Op: ji.Op, Target: ji.Target, Arg: ji.Arg}
		if ji.Const != nil {
			instr.Const = *ji.Const
		}
		out[i] = instr
	}
	*p = out
	return nil
}
