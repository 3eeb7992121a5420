// Package ast defines WhitVM's parsed program representation: Operand,
// Instruction, and Program, per spec §3.
package ast

import (
	"fmt"

	"github.com/FireShade3DS/whitvm/pkg/expr"
	"github.com/FireShade3DS/whitvm/pkg/value"
)

// OperandKind discriminates the four Operand variants of spec §3.
type OperandKind int

const (
	// Literal is a numeric or string literal.
	Literal OperandKind = iota
	// VarRef is a reference to a variable, resolved at runtime.
	VarRef
	// Expr is a parsed expression AST.
	Expr
	// LabelRef is a label reference (only valid as jmp's first argument).
	LabelRef
)

// Operand is the parsed form of one instruction argument.
type Operand struct {
	Kind    OperandKind
	Literal value.Value
	Name    string          // VarRef / LabelRef target name
	Expr    *expr.Comparison // Expr AST
	Raw     string          // original source text, for diagnostics and minification
}

func (o Operand) String() string {
	switch o.Kind {
	case Literal:
		if o.Literal.IsText() {
			return "#" + o.Literal.RawText() + "#"
		}
		return o.Literal.String()
	case VarRef:
		return "*" + o.Name + "*"
	case LabelRef:
		return ":" + o.Name + ":"
	case Expr:
		return o.Raw
	default:
		return "<invalid operand>"
	}
}

// LitInt builds an integer-literal Operand — used for defaults (nl_qty=1,
// condition=1) that spec §3 says are implied when a source line omits
// them.
func LitInt(i int64) Operand {
	return Operand{Kind: Literal, Literal: value.Int(i), Raw: fmt.Sprintf("%d", i)}
}

// DefaultCondition is the implied condition operand (Literal(Integer(1))).
func DefaultCondition() Operand { return LitInt(1) }

// DefaultNewlines is the implied nl_qty operand for `say`.
func DefaultNewlines() Operand { return LitInt(1) }

// IsDefaultLiteral reports whether o is the literal integer n — used by
// the minifier's default-elision pass.
func (o Operand) IsDefaultLiteral(n int64) bool {
	return o.Kind == Literal && o.Literal.IsInt() && o.Literal.Int64() == n
}

// Opcode enumerates the five WhitVM instructions of spec §4.4.
type Opcode int

const (
	OpSay Opcode = iota
	OpAsk
	OpJmp
	OpSet
	OpHalt
)

func (op Opcode) String() string {
	switch op {
	case OpSay:
		return "say"
	case OpAsk:
		return "ask"
	case OpJmp:
		return "jmp"
	case OpSet:
		return "set"
	case OpHalt:
		return "halt"
	default:
		return "?"
	}
}

// Instruction is one parsed line of code, tagged with its opcode,
// operands, and source line for diagnostics.
type Instruction struct {
	Op       Opcode
	Operands []Operand
	Line     int
}

// Dest returns the destination VarRef name of a `set` instruction.
func (in Instruction) Dest() string { return in.Operands[0].Name }

// SayValue, SayNewlines, and SayCondition read `say`'s up-to-three
// operands, applying the spec §4.2 defaults when omitted.
func (in Instruction) SayValue() Operand { return in.Operands[0] }

func (in Instruction) SayNewlines() Operand {
	if len(in.Operands) > 1 {
		return in.Operands[1]
	}
	return DefaultNewlines()
}

func (in Instruction) SayCondition() Operand {
	if len(in.Operands) > 2 {
		return in.Operands[2]
	}
	return DefaultCondition()
}

// AskN and AskCondition read `ask`'s operands.
func (in Instruction) AskN() Operand { return in.Operands[0] }

func (in Instruction) AskCondition() Operand {
	if len(in.Operands) > 1 {
		return in.Operands[1]
	}
	return DefaultCondition()
}

// JmpLabel and JmpCondition read `jmp`'s operands.
func (in Instruction) JmpLabel() Operand { return in.Operands[0] }

func (in Instruction) JmpCondition() Operand {
	if len(in.Operands) > 1 {
		return in.Operands[1]
	}
	return DefaultCondition()
}

// HaltCondition reads `halt`'s optional operand.
func (in Instruction) HaltCondition() Operand {
	if len(in.Operands) > 0 {
		return in.Operands[0]
	}
	return DefaultCondition()
}

// SetDest and SetValue read `set`'s two operands.
func (in Instruction) SetDest() Operand  { return in.Operands[0] }
func (in Instruction) SetValue() Operand { return in.Operands[1] }

// Program is the parser's output: an ordered instruction sequence plus a
// label-name-to-index map. Immutable after construction.
type Program struct {
	Instructions []Instruction
	Labels       map[string]int
}

// Resolve returns the instruction index a label is bound to.
func (p *Program) Resolve(label string) (int, bool) {
	idx, ok := p.Labels[label]
	return idx, ok
}
