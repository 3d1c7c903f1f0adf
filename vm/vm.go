// Copyright (C) 2026, Erynoa Project Contributors. All rights reserved.
// See the file LICENSE for licensing terms.

package vm

import (
	"fmt"
	"math"
	"strings"

	"github.com/erynoa/core/config"
	"github.com/erynoa/core/errkind"
	"github.com/erynoa/core/execctx"
	"github.com/erynoa/core/trust"
	"github.com/luxfi/log"
)

// Result is the outcome of a completed program run.
type Result struct {
	Value   Value
	GasUsed uint64
	Logs    []string
}

// VM is a deterministic, gas-metered stack machine. One VM instance
// executes exactly one program; construct a new VM per run.
type VM struct {
	stack     []Value
	program   []Instruction
	ip        int
	callStack []int
	host      HostInterface
	params    config.VMParams
	ctx       *execctx.Context
	logs      []string
	log       log.Logger
}

// New constructs a VM bound to ctx's gas budget, executing program against
// host. logger receives Debug-level host-call dispatch tracing, distinct
// from the policy's own Log opcode output (which is a Result field, not a
// log line).
func New(program []Instruction, host HostInterface, ctx *execctx.Context, params config.VMParams, logger log.Logger) *VM {
	if logger == nil {
		logger = log.NewNoOpLogger()
	}
	return &VM{
		program: program,
		host:    host,
		ctx:     ctx,
		params:  params,
		log:     logger,
	}
}

// Run executes the program from instruction 0 until Halt, Abort, falling
// off the end, or an error.
func (m *VM) Run() (Result, error) {
	gasBefore := m.ctx.GasRemaining()

	for m.ip < len(m.program) {
		instr := m.program[m.ip]

		if err := m.ctx.ConsumeGas(gasLayer(instr.Op), gasCost(instr.Op)); err != nil {
			return Result{}, err
		}
		if len(m.stack) > m.params.MaxStackDepth {
			return Result{}, &errkind.Internal{Detail: fmt.Sprintf("stack depth exceeds %d", m.params.MaxStackDepth)}
		}

		halted, err := m.step(instr)
		if err != nil {
			return Result{}, err
		}
		if halted {
			break
		}
	}

	var top Value
	if len(m.stack) > 0 {
		top = m.stack[len(m.stack)-1]
	}
	return Result{
		Value:   top,
		GasUsed: gasBefore - m.ctx.GasRemaining(),
		Logs:    m.logs,
	}, nil
}

// step executes a single instruction, advancing m.ip unless the instruction
// itself set it (jumps, calls, returns). Returns halted=true for Halt/Abort.
func (m *VM) step(instr Instruction) (halted bool, err error) {
	nextIP := m.ip + 1

	switch instr.Op {
	case OpPushConst:
		m.push(instr.Const)
	case OpPop:
		_, err = m.pop()
	case OpDup:
		v, e := m.peek()
		if e != nil {
			return false, e
		}
		m.push(v)
	case OpSwap:
		if len(m.stack) < 2 {
			return false, stackUnderflow()
		}
		n := len(m.stack)
		m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]
	case OpPick:
		idx := len(m.stack) - 1 - int(instr.Arg)
		if idx < 0 || idx >= len(m.stack) {
			return false, stackUnderflow()
		}
		m.push(m.stack[idx])

	case OpAdd:
		err = m.binaryNumeric(func(a, b float64) float64 { return a + b })
	case OpSub:
		err = m.binaryNumeric(func(a, b float64) float64 { return a - b })
	case OpMul:
		err = m.binaryNumeric(func(a, b float64) float64 { return a * b })
	case OpDiv:
		err = m.divOrMod(false)
	case OpMod:
		err = m.divOrMod(true)
	case OpNeg:
		var a float64
		a, err = m.popNumber()
		if err == nil {
			m.push(Number(-a))
		}
	case OpMin:
		err = m.binaryNumeric(math.Min)
	case OpMax:
		err = m.binaryNumeric(math.Max)

	case OpEq:
		err = m.equality(true)
	case OpNeq:
		err = m.equality(false)
	case OpGt:
		err = m.compare(func(a, b float64) bool { return a > b })
	case OpGte:
		err = m.compare(func(a, b float64) bool { return a >= b })
	case OpLt:
		err = m.compare(func(a, b float64) bool { return a < b })
	case OpLte:
		err = m.compare(func(a, b float64) bool { return a <= b })

	case OpAnd:
		err = m.binaryBool(func(a, b bool) bool { return a && b })
	case OpOr:
		err = m.binaryBool(func(a, b bool) bool { return a || b })
	case OpNot:
		var v Value
		v, err = m.pop()
		if err == nil {
			m.push(Bool(!v.IsTruthy()))
		}

	case OpJump:
		nextIP = instr.Target
	case OpJumpIfFalse:
		var v Value
		v, err = m.pop()
		if err == nil && !v.IsTruthy() {
			nextIP = instr.Target
		}
	case OpJumpIfTrue:
		var v Value
		v, err = m.pop()
		if err == nil && v.IsTruthy() {
			nextIP = instr.Target
		}
	case OpCall:
		m.callStack = append(m.callStack, nextIP)
		nextIP = instr.Target
	case OpReturn:
		if len(m.callStack) == 0 {
			return true, nil
		}
		nextIP = m.callStack[len(m.callStack)-1]
		m.callStack = m.callStack[:len(m.callStack)-1]
	case OpHalt:
		return true, nil
	case OpAbort:
		var v Value
		if len(m.stack) > 0 {
			v, _ = m.pop()
		}
		err := fmt.Errorf("%w: aborted: %s", errkind.ErrInvalidInput, v)
		m.log.Warn("vm.aborted", "ip", m.ip, "err", err)
		return false, err

	case OpTrustDim:
		err = m.execTrustDim()
	case OpTrustNorm:
		err = m.execTrustNorm()
	case OpTrustCombine:
		err = m.execTrustCombine()
	case OpTrustCreate:
		err = m.execTrustCreate()

	case OpLoadTrust:
		err = m.execLoadTrust()
	case OpHasCredential:
		err = m.execHasCredential()
	case OpResolveDID:
		err = m.execResolveDID()
	case OpGetBalance:
		err = m.execGetBalance()
	case OpGetTimestamp:
		err = m.execGetTimestamp()
	case OpLog:
		err = m.execLog()

	case OpAssert:
		var v Value
		v, err = m.pop()
		if err == nil && !v.IsTruthy() {
			err = fmt.Errorf("%w: assertion failed", errkind.ErrInvalidInput)
		}
	case OpRequire:
		err = m.execRequire()

	case OpSurprisal:
		err = m.execSurprisal()
	case OpTrustAboveThreshold:
		err = m.execTrustAboveThreshold()
	case OpTrustWeightedAvg:
		err = m.execTrustWeightedAvg()
	case OpTrustDistance:
		err = m.execTrustDistance()

	case OpStrLen:
		var s string
		s, err = m.popString()
		if err == nil {
			m.push(Number(float64(len(s))))
		}
	case OpStrEqIgnoreCase:
		err = m.execStrEqIgnoreCase()
	case OpStrContains:
		err = m.execStrContains()

	case OpMathAbs:
		var a float64
		a, err = m.popNumber()
		if err == nil {
			m.push(Number(math.Abs(a)))
		}
	case OpMathSqrt:
		var a float64
		a, err = m.popNumber()
		if err == nil {
			m.push(Number(math.Sqrt(a)))
		}
	case OpMathFloor:
		var a float64
		a, err = m.popNumber()
		if err == nil {
			m.push(Number(math.Floor(a)))
		}
	case OpMathCeil:
		var a float64
		a, err = m.popNumber()
		if err == nil {
			m.push(Number(math.Ceil(a)))
		}
	case OpMathRound:
		var a float64
		a, err = m.popNumber()
		if err == nil {
			m.push(Number(math.Round(a)))
		}
	case OpClamp:
		err = m.execClamp()
	case OpLerp:
		err = m.execLerp()

	case OpTimeSince:
		err = m.execTimeSince()

	case OpContains:
		err = m.execContains()
	case OpArrayLen:
		var arr []Value
		arr, err = m.popArray()
		if err == nil {
			m.push(Number(float64(len(arr))))
		}
	case OpArrayGet:
		err = m.execArrayGet()

	default:
		err = fmt.Errorf("%w: unknown opcode %d", errkind.ErrInvalidInput, instr.Op)
	}

	if err != nil {
		return false, err
	}
	m.ip = nextIP
	return false, nil
}

func (m *VM) push(v Value) { m.stack = append(m.stack, v) }

func (m *VM) pop() (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, stackUnderflow()
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v, nil
}

func (m *VM) peek() (Value, error) {
	if len(m.stack) == 0 {
		return Value{}, stackUnderflow()
	}
	return m.stack[len(m.stack)-1], nil
}

func stackUnderflow() error {
	return fmt.Errorf("%w: stack underflow", errkind.ErrInvalidInput)
}

func (m *VM) popNumber() (float64, error) {
	v, err := m.pop()
	if err != nil {
		return 0, err
	}
	if v.Kind != KindNumber {
		return 0, fmt.Errorf("%w: expected number, got %s", errkind.ErrInvalidInput, v.Kind)
	}
	return v.Number, nil
}

func (m *VM) popBool() (bool, error) {
	v, err := m.pop()
	if err != nil {
		return false, err
	}
	return v.IsTruthy(), nil
}

func (m *VM) popString() (string, error) {
	v, err := m.pop()
	if err != nil {
		return "", err
	}
	if v.Kind != KindString && v.Kind != KindDID {
		return "", fmt.Errorf("%w: expected string, got %s", errkind.ErrInvalidInput, v.Kind)
	}
	return v.Str, nil
}

func (m *VM) popDID() (string, error) {
	return m.popString()
}

func (m *VM) popTrustVector() (trust.Vector6D, error) {
	v, err := m.pop()
	if err != nil {
		return trust.Vector6D{}, err
	}
	if v.Kind != KindTrustVector {
		return trust.Vector6D{}, fmt.Errorf("%w: expected trust vector, got %s", errkind.ErrInvalidInput, v.Kind)
	}
	return v.Vector, nil
}

func (m *VM) popArray() ([]Value, error) {
	v, err := m.pop()
	if err != nil {
		return nil, err
	}
	if v.Kind != KindArray {
		return nil, fmt.Errorf("%w: expected array, got %s", errkind.ErrInvalidInput, v.Kind)
	}
	return v.Array, nil
}

func (m *VM) binaryNumeric(f func(a, b float64) float64) error {
	b, err := m.popNumber()
	if err != nil {
		return err
	}
	a, err := m.popNumber()
	if err != nil {
		return err
	}
	m.push(Number(f(a, b)))
	return nil
}

func (m *VM) binaryBool(f func(a, b bool) bool) error {
	b, err := m.popBool()
	if err != nil {
		return err
	}
	a, err := m.popBool()
	if err != nil {
		return err
	}
	m.push(Bool(f(a, b)))
	return nil
}

// equality implements Eq/Neq, which (unlike the other comparisons) accept
// any two values rather than requiring both to be numbers.
func (m *VM) equality(wantEqual bool) error {
	b, err := m.pop()
	if err != nil {
		return err
	}
	a, err := m.pop()
	if err != nil {
		return err
	}
	eq := valuesEqual(a, b)
	m.push(Bool(eq == wantEqual))
	return nil
}

func (m *VM) compare(f func(a, b float64) bool) error {
	b, err := m.popNumber()
	if err != nil {
		return err
	}
	a, err := m.popNumber()
	if err != nil {
		return err
	}
	m.push(Bool(f(a, b)))
	return nil
}

func (m *VM) divOrMod(mod bool) error {
	b, err := m.popNumber()
	if err != nil {
		return err
	}
	a, err := m.popNumber()
	if err != nil {
		return err
	}
	if b == 0 {
		return fmt.Errorf("%w: division by zero", errkind.ErrInvalidInput)
	}
	if mod {
		m.push(Number(math.Mod(a, b)))
	} else {
		m.push(Number(a / b))
	}
	return nil
}

// execTrustDim pops a trust vector and a dimension index, pushes the scalar
// on that dimension.
func (m *VM) execTrustDim() error {
	idx, err := m.popNumber()
	if err != nil {
		return err
	}
	v, err := m.popTrustVector()
	if err != nil {
		return err
	}
	d := int(idx)
	if d < 0 || d > 5 {
		return fmt.Errorf("%w: trust dimension index %d out of range", errkind.ErrInvalidInput, d)
	}
	m.push(Number(v[d]))
	return nil
}

// execTrustNorm pops a trust vector, pushes its uniform-weighted norm.
func (m *VM) execTrustNorm() error {
	v, err := m.popTrustVector()
	if err != nil {
		return err
	}
	m.push(Number(v.WeightedNorm(trust.UniformWeights())))
	return nil
}

// execTrustCombine implements Κ5 for two vectors already on the stack.
func (m *VM) execTrustCombine() error {
	b, err := m.popTrustVector()
	if err != nil {
		return err
	}
	a, err := m.popTrustVector()
	if err != nil {
		return err
	}
	m.push(TrustVector(trust.Combine(a, b)))
	return nil
}

// execTrustCreate pops six numbers in omega,v,p,c,i,r order (reverse of
// construction order) and assembles a Vector6D.
func (m *VM) execTrustCreate() error {
	var vals [6]float64
	for i := 5; i >= 0; i-- {
		n, err := m.popNumber()
		if err != nil {
			return err
		}
		vals[i] = n
	}
	m.push(TrustVector(trust.Vector6D(vals).Clamp()))
	return nil
}

func (m *VM) execLoadTrust() error {
	did, err := m.popDID()
	if err != nil {
		return err
	}
	m.log.Debug("vm.host_call", "call", "GetTrustVector", "did", did)
	v, err := m.host.GetTrustVector(did)
	if err != nil {
		return err
	}
	m.push(TrustVector(v))
	return nil
}

func (m *VM) execHasCredential() error {
	cred, err := m.popString()
	if err != nil {
		return err
	}
	did, err := m.popDID()
	if err != nil {
		return err
	}
	m.log.Debug("vm.host_call", "call", "HasCredential", "did", did, "credential", cred)
	ok, err := m.host.HasCredential(did, cred)
	if err != nil {
		return err
	}
	m.push(Bool(ok))
	return nil
}

func (m *VM) execResolveDID() error {
	did, err := m.popDID()
	if err != nil {
		return err
	}
	m.log.Debug("vm.host_call", "call", "ResolveDID", "did", did)
	ok, err := m.host.ResolveDID(did)
	if err != nil {
		return err
	}
	m.push(Bool(ok))
	return nil
}

func (m *VM) execGetBalance() error {
	did, err := m.popDID()
	if err != nil {
		return err
	}
	m.log.Debug("vm.host_call", "call", "GetBalance", "did", did)
	bal, err := m.host.GetBalance(did)
	if err != nil {
		return err
	}
	m.push(Number(bal))
	return nil
}

func (m *VM) execGetTimestamp() error {
	m.log.Debug("vm.host_call", "call", "GetTimestamp")
	ts, err := m.host.GetTimestamp()
	if err != nil {
		return err
	}
	m.push(Number(float64(ts)))
	return nil
}

func (m *VM) execLog() error {
	s, err := m.popString()
	if err != nil {
		return err
	}
	if err := m.host.Log(s); err != nil {
		return err
	}
	m.logs = append(m.logs, s)
	return nil
}

// execRequire pops a message (top of stack) then a condition, and fails
// with that message when the condition is falsy — Assert's labeled form for
// policy-authored preconditions.
func (m *VM) execRequire() error {
	msg, err := m.popString()
	if err != nil {
		return err
	}
	v, err := m.pop()
	if err != nil {
		return err
	}
	if !v.IsTruthy() {
		return fmt.Errorf("%w: require failed: %s", errkind.ErrInvalidInput, msg)
	}
	return nil
}

// execSurprisal requires p in (0,1] and pushes -log2(p), the information
// content of an event with that probability.
func (m *VM) execSurprisal() error {
	p, err := m.popNumber()
	if err != nil {
		return err
	}
	if p <= 0 || p > 1 {
		// A probability outside (0,1] reaching Surprisal means the program or
		// its inputs are corrupt, not that the caller made a recoverable
		// mistake — fatal by §7's taxonomy.
		return &errkind.Internal{Detail: fmt.Sprintf("surprisal requires probability in (0,1], got %v", p)}
	}
	m.push(Number(-math.Log2(p)))
	return nil
}

func (m *VM) execTrustAboveThreshold() error {
	threshold, err := m.popNumber()
	if err != nil {
		return err
	}
	v, err := m.popTrustVector()
	if err != nil {
		return err
	}
	m.push(Bool(v.WeightedNorm(trust.UniformWeights()) >= threshold))
	return nil
}

// execTrustWeightedAvg pops an array of exactly six numeric weights and a
// trust vector (in that order, weights on top), and pushes the weighted
// average of the vector's components under those weights.
func (m *VM) execTrustWeightedAvg() error {
	weights, err := m.popArray()
	if err != nil {
		return err
	}
	if len(weights) != 6 {
		return fmt.Errorf("%w: trust_weighted_avg requires exactly 6 weights, got %d", errkind.ErrInvalidInput, len(weights))
	}
	v, err := m.popTrustVector()
	if err != nil {
		return err
	}
	var w [6]float64
	for i, wv := range weights {
		if wv.Kind != KindNumber {
			return fmt.Errorf("%w: trust_weighted_avg weight %d is not a number", errkind.ErrInvalidInput, i)
		}
		w[i] = wv.Number
	}
	m.push(Number(v.WeightedNorm(w)))
	return nil
}

func (m *VM) execTrustDistance() error {
	b, err := m.popTrustVector()
	if err != nil {
		return err
	}
	a, err := m.popTrustVector()
	if err != nil {
		return err
	}
	sumSq := 0.0
	for i := 0; i < 6; i++ {
		d := a[i] - b[i]
		sumSq += d * d
	}
	m.push(Number(math.Sqrt(sumSq)))
	return nil
}

func (m *VM) execStrEqIgnoreCase() error {
	b, err := m.popString()
	if err != nil {
		return err
	}
	a, err := m.popString()
	if err != nil {
		return err
	}
	m.push(Bool(strings.EqualFold(a, b)))
	return nil
}

func (m *VM) execStrContains() error {
	needle, err := m.popString()
	if err != nil {
		return err
	}
	haystack, err := m.popString()
	if err != nil {
		return err
	}
	m.push(Bool(strings.Contains(haystack, needle)))
	return nil
}

// execClamp pops max, min, value in that order and pushes value clamped to
// [min, max].
func (m *VM) execClamp() error {
	maxV, err := m.popNumber()
	if err != nil {
		return err
	}
	minV, err := m.popNumber()
	if err != nil {
		return err
	}
	v, err := m.popNumber()
	if err != nil {
		return err
	}
	if v < minV {
		v = minV
	}
	if v > maxV {
		v = maxV
	}
	m.push(Number(v))
	return nil
}

// execLerp pops b, a, t in that order and pushes a + t*(b-a).
func (m *VM) execLerp() error {
	b, err := m.popNumber()
	if err != nil {
		return err
	}
	a, err := m.popNumber()
	if err != nil {
		return err
	}
	tParam, err := m.popNumber()
	if err != nil {
		return err
	}
	m.push(Number(a + tParam*(b-a)))
	return nil
}

func (m *VM) execTimeSince() error {
	past, err := m.popNumber()
	if err != nil {
		return err
	}
	now, err := m.host.GetTimestamp()
	if err != nil {
		return err
	}
	m.push(Number(float64(now) - past))
	return nil
}

func (m *VM) execContains() error {
	needle, err := m.pop()
	if err != nil {
		return err
	}
	arr, err := m.popArray()
	if err != nil {
		return err
	}
	for _, v := range arr {
		if valuesEqual(v, needle) {
			m.push(Bool(true))
			return nil
		}
	}
	m.push(Bool(false))
	return nil
}

func (m *VM) execArrayGet() error {
	idxF, err := m.popNumber()
	if err != nil {
		return err
	}
	arr, err := m.popArray()
	if err != nil {
		return err
	}
	idx := int(idxF)
	if idx < 0 || idx >= len(arr) {
		return fmt.Errorf("%w: array index %d out of bounds (len %d)", errkind.ErrInvalidInput, idx, len(arr))
	}
	m.push(arr[idx])
	return nil
}

func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Number == b.Number
	case KindString, KindDID:
		return a.Str == b.Str
	case KindTrustVector:
		return a.Vector == b.Vector
	default:
		return false
	}
}
