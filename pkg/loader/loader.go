// Package loader implements the parser passes of spec §4.2: line
// classification, label resolution, and operand typing, producing an
// ast.Program. It also implements the file-resolution convenience of
// _examples/original_source/src/whitvm/loader.py (SPEC_FULL.md §C.1).
package loader

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/FireShade3DS/whitvm/pkg/ast"
	"github.com/FireShade3DS/whitvm/pkg/expr"
	"github.com/FireShade3DS/whitvm/pkg/token"
	"github.com/FireShade3DS/whitvm/pkg/value"
	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// operandSpec describes one opcode's arity range and per-position kind
// constraints, the table of spec §4.2 pass 3.
type operandKindSet int

const (
	kAny operandKindSet = 1 << iota // Literal | VarRef | Expr
	kLabel
	kVar
)

type operandSpec struct {
	min, max int
	kinds    []operandKindSet // len == max; positions beyond min are optional
}

var opcodeSpecs = map[string]operandSpec{
	"set":  {min: 2, max: 2, kinds: []operandKindSet{kVar, kAny}},
	"say":  {min: 1, max: 3, kinds: []operandKindSet{kAny, kAny, kAny}},
	"ask":  {min: 1, max: 2, kinds: []operandKindSet{kAny, kAny}},
	"jmp":  {min: 1, max: 2, kinds: []operandKindSet{kLabel, kAny}},
	"halt": {min: 0, max: 1, kinds: []operandKindSet{kAny}},
}

var opcodeByName = map[string]ast.Opcode{
	"set":  ast.OpSet,
	"say":  ast.OpSay,
	"ask":  ast.OpAsk,
	"jmp":  ast.OpJmp,
	"halt": ast.OpHalt,
}

// Load runs all three parser passes over source text and returns a fully
// validated Program.
func Load(source string) (*ast.Program, error) {
	return LoadWithLogger(source, nil)
}

// LoadWithLogger is Load with per-pass debug tracing (SPEC_FULL.md §A.1).
// A nil logger disables tracing.
func LoadWithLogger(source string, log *zerolog.Logger) (*ast.Program, error) {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	lines := strings.Split(source, "\n")
	prog := &ast.Program{Labels: make(map[string]int)}

	for lineNo, raw := range lines {
		ln := lineNo + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		toks, err := token.Tokenize(trimmed, ln)
		if err != nil {
			return nil, err
		}
		if len(toks) == 0 {
			continue
		}

		// Pass 1(b): a lone Label token is a label declaration.
		if len(toks) == 1 && toks[0].Kind == token.Label {
			name := toks[0].Text
			if _, dup := prog.Labels[name]; dup {
				return nil, werr.WithName(werr.LabelError, ln, name, "duplicate label declaration")
			}
			prog.Labels[name] = len(prog.Instructions)
			log.Debug().Int("line", ln).Str("label", name).Int("index", len(prog.Instructions)).Msg("label bound")
			continue
		}

		// Pass 1(c) + Pass 3: an instruction line.
		instr, err := parseInstruction(toks, ln)
		if err != nil {
			return nil, err
		}
		prog.Instructions = append(prog.Instructions, instr)
		log.Debug().Int("line", ln).Str("op", instr.Op.String()).Int("operands", len(instr.Operands)).Msg("instruction parsed")
	}

	// Pass 2 label-resolution totality check: every LabelRef must resolve.
	for _, in := range prog.Instructions {
		if in.Op != ast.OpJmp {
			continue
		}
		target := in.JmpLabel().Name
		if _, ok := prog.Labels[target]; !ok {
			return nil, werr.WithName(werr.LabelError, in.Line, target, "jump to undeclared label")
		}
	}

	log.Debug().Int("instructions", len(prog.Instructions)).Int("labels", len(prog.Labels)).Msg("load complete")
	return prog, nil
}

func parseInstruction(toks []token.Token, ln int) (ast.Instruction, error) {
	first := toks[0]
	if first.Kind != token.Word {
		return ast.Instruction{}, werr.New(werr.SyntaxError, ln, "expected an opcode, got %q", first.Text)
	}
	opName := first.Text
	spec, ok := opcodeSpecs[opName]
	if !ok {
		return ast.Instruction{}, werr.New(werr.SyntaxError, ln, "unrecognized opcode %q", opName)
	}

	argToks := toks[1:]
	if len(argToks) < spec.min || len(argToks) > spec.max {
		return ast.Instruction{}, werr.New(werr.ArityError, ln, "%s expects %s, got %d", opName, arityDesc(spec), len(argToks))
	}

	operands := make([]ast.Operand, len(argToks))
	for i, t := range argToks {
		op, err := parseOperand(t, spec.kinds[i], ln)
		if err != nil {
			return ast.Instruction{}, err
		}
		operands[i] = op
	}

	instr := ast.Instruction{Op: opcodeByName[opName], Operands: operands, Line: ln}

	if instr.Op == ast.OpAsk {
		if n := instr.AskN(); n.Kind == ast.Literal && n.Literal.IsInt() && n.Literal.Int64() == 0 {
			return ast.Instruction{}, werr.New(werr.ArityError, ln, "ask 0 is not a valid dispatch arity")
		}
	}

	return instr, nil
}

func arityDesc(spec operandSpec) string {
	if spec.min == spec.max {
		return fmt.Sprintf("%d operand(s)", spec.min)
	}
	return fmt.Sprintf("%d-%d operands", spec.min, spec.max)
}

func parseOperand(t token.Token, allowed operandKindSet, ln int) (ast.Operand, error) {
	switch t.Kind {
	case token.Label:
		if allowed&kLabel == 0 {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "label reference %q not valid here", t.Text)
		}
		return ast.Operand{Kind: ast.LabelRef, Name: t.Text, Raw: ":" + t.Text + ":"}, nil

	case token.VarOrExpr:
		if allowed == kLabel {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "variable reference not valid here, expected a label")
		}
		if allowed&kVar == 0 && allowed&kAny == 0 {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "variable reference not valid here")
		}
		return ast.Operand{Kind: ast.VarRef, Name: t.Text, Raw: "*" + t.Text + "*"}, nil

	case token.String:
		if allowed == kVar || allowed == kLabel {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "string literal not valid here")
		}
		return ast.Operand{Kind: ast.Literal, Literal: value.Str(t.Text), Raw: "#" + t.Text + "#"}, nil

	case token.Expr:
		if allowed == kVar || allowed == kLabel {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "expression not valid here")
		}
		tree, err := expr.ParseParenthesized(t.Text, ln)
		if err != nil {
			return ast.Operand{}, err
		}
		return ast.Operand{Kind: ast.Expr, Expr: tree, Raw: t.Text}, nil

	case token.Word:
		if allowed == kVar {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "expected a variable reference, got %q", t.Text)
		}
		if allowed == kLabel {
			return ast.Operand{}, werr.New(werr.SyntaxError, ln, "expected a label reference, got %q", t.Text)
		}
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return ast.Operand{}, werr.Wrap(werr.SyntaxError, ln, err, "invalid integer literal %q", t.Text)
		}
		return ast.Operand{Kind: ast.Literal, Literal: value.Int(n), Raw: t.Text}, nil
	}

	return ast.Operand{}, werr.New(werr.SyntaxError, ln, "unrecognized token %q", t.Text)
}

// LoadFile loads and validates a program from disk, trying the path as
// given and then the path with a .whitvm suffix appended — the same
// candidate-search behavior as the Python original's WhitVMLoader.load_file
// (SPEC_FULL.md §C.1).
func LoadFile(path string) (*ast.Program, error) {
	return LoadFileWithLogger(path, nil)
}

// LoadFileWithLogger is LoadFile with per-pass debug tracing.
func LoadFileWithLogger(path string, log *zerolog.Logger) (*ast.Program, error) {
	source, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadWithLogger(source, log)
}

// ReadFile resolves and reads a program's source text without parsing it —
// used by cmd/whitvm's minify command, which needs the raw text.
func ReadFile(path string) (string, error) {
	candidates := []string{path}
	if !strings.HasSuffix(path, ".whitvm") {
		candidates = append(candidates, path+".whitvm")
	}

	var lastErr error
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return string(data), nil
		}
		lastErr = err
	}
	return "", werr.Wrap(werr.SyntaxError, 0, lastErr, "could not find source file, tried %s", strings.Join(candidates, ", "))
}
