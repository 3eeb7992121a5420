// Package interpreter is WhitVM's execution engine (spec §4.4): a program
// counter over an immutable ast.Program, a flat variable store, and the
// dispatch loop for the five opcodes.
package interpreter

import (
	"bufio"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/FireShade3DS/whitvm/pkg/ast"
	"github.com/FireShade3DS/whitvm/pkg/expr"
	"github.com/FireShade3DS/whitvm/pkg/value"
	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// VarStore is the flat key-value variable store of spec §3 ("DMEM").
type VarStore struct {
	vars map[string]value.Value
}

// NewVarStore returns an empty variable store.
func NewVarStore() *VarStore {
	return &VarStore{vars: make(map[string]value.Value)}
}

// Get implements expr.Store.
func (s *VarStore) Get(name string) (value.Value, bool) {
	v, ok := s.vars[name]
	return v, ok
}

// Set writes a binding, overwriting any prior value.
func (s *VarStore) Set(name string, v value.Value) {
	s.vars[name] = v
}

// randRNG adapts math/rand.Rand to expr.RNG.
type randRNG struct{ r *rand.Rand }

func (rr *randRNG) Intn(min, max int64) int64 {
	return min + rr.r.Int63n(max-min+1)
}

// Interpreter is the WhitVM virtual machine: owns the program, the
// variable store, the program counter, and an input/output pair. Mirrors
// the teacher's Interpreter shape (a plain exported-field struct built by
// New() and mutated directly by callers — Stack/Dictionary/flags there,
// pc/dmem here) and the teacher's Step-dispatch-loop style from
// pkg/micro/vm.go, generalized to WhitVM's five opcodes.
type Interpreter struct {
	Program *ast.Program
	Vars    *VarStore
	PC      int

	Input  *bufio.Reader
	Output io.Writer

	rng *randRNG

	// Logger traces instruction dispatch at debug level when non-nil and
	// enabled (SPEC_FULL.md §A.1). Nil by default.
	Logger *zerolog.Logger

	// StepCount and OpCounts are the profiler counters of SPEC_FULL.md
	// §C.2: plain instrumentation an external profiler collaborator can
	// read. WhitVM itself never formats or prints them.
	StepCount int
	OpCounts  map[ast.Opcode]int
}

// New creates an Interpreter for prog, with stdin/stdout as the default
// input/output pair and an entropy-seeded PRNG.
func New(prog *ast.Program) *Interpreter {
	return &Interpreter{
		Program:  prog,
		Vars:     NewVarStore(),
		Input:    bufio.NewReader(os.Stdin),
		Output:   os.Stdout,
		rng:      &randRNG{r: rand.New(rand.NewSource(time.Now().UnixNano()))},
		OpCounts: make(map[ast.Opcode]int),
	}
}

// Seed fixes the PRNG seed for deterministic replay (spec §3 "Lifecycle").
func (it *Interpreter) Seed(seed int64) {
	it.rng = &randRNG{r: rand.New(rand.NewSource(seed))}
}

// SetInput replaces the input reader (e.g. to feed `ask` from a string in
// tests).
func (it *Interpreter) SetInput(r io.Reader) {
	it.Input = bufio.NewReader(r)
}

func (it *Interpreter) log() *zerolog.Logger {
	if it.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return it.Logger
}

// Run executes the loaded program to completion: while pc < len(instructions),
// dispatch the instruction at pc; unless the handler sets pc itself,
// advance by one. Returns nil on normal halt (pc reaching the end or an
// explicit `halt`), or the first fatal error encountered.
func (it *Interpreter) Run() error {
	instrs := it.Program.Instructions
	for it.PC < len(instrs) {
		in := instrs[it.PC]
		it.StepCount++
		it.OpCounts[in.Op]++
		it.log().Debug().Int("pc", it.PC).Str("op", in.Op.String()).Msg("dispatch")

		advanced, err := it.dispatch(in)
		if err != nil {
			return err
		}
		if !advanced {
			it.PC++
		}
	}
	return nil
}

// dispatch executes one instruction. It returns advanced=true when it has
// already updated PC itself (ask, a taken jmp, or a taken halt reaching
// the end-of-program sentinel), signaling Run not to apply the default
// +1 step.
func (it *Interpreter) dispatch(in ast.Instruction) (advanced bool, err error) {
	switch in.Op {
	case ast.OpSet:
		return false, it.execSet(in)
	case ast.OpSay:
		return false, it.execSay(in)
	case ast.OpJmp:
		return it.execJmp(in)
	case ast.OpHalt:
		return it.execHalt(in)
	case ast.OpAsk:
		return true, it.execAsk(in)
	default:
		return false, werr.New(werr.SyntaxError, in.Line, "unknown opcode")
	}
}

func (it *Interpreter) evalOperand(op ast.Operand, line int) (value.Value, error) {
	switch op.Kind {
	case ast.Literal:
		return op.Literal, nil
	case ast.VarRef:
		v, ok := it.Vars.Get(op.Name)
		if !ok {
			return value.Value{}, werr.WithName(werr.UndefinedVar, line, op.Name, "undefined variable")
		}
		return v, nil
	case ast.Expr:
		return expr.Eval(op.Expr, line, it.Vars, it.rng)
	default:
		return value.Value{}, werr.New(werr.SyntaxError, line, "operand is not a value")
	}
}

func (it *Interpreter) evalCondition(op ast.Operand, line int) (bool, error) {
	v, err := it.evalOperand(op, line)
	if err != nil {
		return false, err
	}
	return v.Truthy(), nil
}

// execSet implements `set *v* value` — always executes, no condition.
func (it *Interpreter) execSet(in ast.Instruction) error {
	v, err := it.evalOperand(in.SetValue(), in.Line)
	if err != nil {
		return err
	}
	it.Vars.Set(in.SetDest().Name, v)
	return nil
}

// execSay implements `say val [nl] [cond]`.
func (it *Interpreter) execSay(in ast.Instruction) error {
	cond, err := it.evalCondition(in.SayCondition(), in.Line)
	if err != nil {
		return err
	}
	if !cond {
		return nil
	}

	val, err := it.evalOperand(in.SayValue(), in.Line)
	if err != nil {
		return err
	}
	nlv, err := it.evalOperand(in.SayNewlines(), in.Line)
	if err != nil {
		return err
	}
	nl, ok := nlv.AsInt()
	if !ok {
		return werr.New(werr.TypeError, in.Line, "nl_qty must be an integer")
	}
	if nl < 0 {
		return werr.New(werr.RangeError, in.Line, "nl_qty must be non-negative, got %d", nl)
	}

	if _, err := io.WriteString(it.Output, val.String()); err != nil {
		return werr.Wrap(werr.SyntaxError, in.Line, err, "write failed")
	}
	if nl > 0 {
		if _, err := io.WriteString(it.Output, strings.Repeat("\n", int(nl))); err != nil {
			return werr.Wrap(werr.SyntaxError, in.Line, err, "write failed")
		}
	}
	return nil
}

// execJmp implements `jmp :L: [cond]`.
func (it *Interpreter) execJmp(in ast.Instruction) (bool, error) {
	cond, err := it.evalCondition(in.JmpCondition(), in.Line)
	if err != nil {
		return false, err
	}
	if !cond {
		return false, nil
	}
	target := in.JmpLabel().Name
	idx, ok := it.Program.Resolve(target)
	if !ok {
		return false, werr.WithName(werr.LabelError, in.Line, target, "undefined label")
	}
	it.PC = idx
	return true, nil
}

// execHalt implements `halt [cond]`.
func (it *Interpreter) execHalt(in ast.Instruction) (bool, error) {
	cond, err := it.evalCondition(in.HaltCondition(), in.Line)
	if err != nil {
		return false, err
	}
	if !cond {
		return false, nil
	}
	it.PC = len(it.Program.Instructions)
	return true, nil
}

// execAsk implements `ask n [cond]`, the dispatch instruction of spec
// §4.4. It always sets PC itself (Run never applies the default +1 after
// an ask).
func (it *Interpreter) execAsk(in ast.Instruction) error {
	cond, err := it.evalCondition(in.AskCondition(), in.Line)
	if err != nil {
		return err
	}
	nv, err := it.evalOperand(in.AskN(), in.Line)
	if err != nil {
		return err
	}
	n, ok := nv.AsInt()
	if !ok {
		return werr.New(werr.TypeError, in.Line, "ask n must be an integer")
	}
	if n < 1 {
		return werr.New(werr.RangeError, in.Line, "ask n must be >= 1, got %d", n)
	}

	if !cond {
		// Disabled: skip past ask and its n option instructions.
		it.PC = it.PC + 1 + int(n)
		return nil
	}

	line, err := it.Input.ReadString('\n')
	if err != nil && line == "" {
		return werr.Wrap(werr.InputError, in.Line, err, "failed to read ask input")
	}
	line = strings.TrimSpace(line)
	k, perr := strconv.ParseInt(line, 10, 64)
	if perr != nil {
		return werr.Wrap(werr.InputError, in.Line, perr, "ask input %q is not an integer", line)
	}

	if k >= 1 && k <= n {
		it.PC = it.PC + 1 + int(k-1)
	} else {
		// Out-of-range: documented "default to option 1" fallthrough.
		it.PC = it.PC + 1
	}
	return nil
}
