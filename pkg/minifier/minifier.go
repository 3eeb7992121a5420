// Package minifier implements the pass pipeline of spec §4.5: three
// always-on passes (comment removal, default elision, whitespace
// normalization) plus five opt-in, semantics-reasoning passes. Grounded on
// _examples/original_source/src/whitvm/minifier_core.py (the always-on
// pipeline shape: strip/split/rejoin over lines) and minifier.py (the
// opt-in passes), rewritten here to operate on parsed elements rather than
// raw token slices, and reparsed via pkg/loader after every pass to
// satisfy the "must reparse" requirement of spec §4.5.
package minifier

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/FireShade3DS/whitvm/pkg/ast"
	"github.com/FireShade3DS/whitvm/pkg/expr"
	"github.com/FireShade3DS/whitvm/pkg/loader"
	"github.com/FireShade3DS/whitvm/pkg/value"
	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// Options selects which opt-in passes run. The three always-on passes of
// spec §4.5 run unconditionally.
type Options struct {
	NameShrink    bool
	ConstantFold  bool
	StringPool    bool
	DeadStore     bool
	Unreachable   bool

	// StringPoolThreshold: a string literal is pooled into a variable only
	// when its use count is greater than this value. Zero selects the spec
	// default of 2.
	StringPoolThreshold int
}

// Stats reports the byte-size delta the CLI's minify report needs
// (SPEC_FULL.md §C.4).
type Stats struct {
	OriginalBytes int
	MinifiedBytes int
}

func (s Stats) Delta() int { return s.OriginalBytes - s.MinifiedBytes }

// element is one source line: either a label declaration or an
// instruction, kept in original order so name-shrinking and unreachable-
// code elimination can reason about declaration position.
type element struct {
	isLabel   bool
	labelName string
	instr     ast.Instruction
}

// Minify runs the full pipeline over source and returns the minified
// text and a byte-size report. It returns an error if the input fails to
// parse, or if any pass produces a program that fails to reparse.
func Minify(source string, opts Options) (string, Stats, error) {
	if opts.StringPoolThreshold <= 0 {
		opts.StringPoolThreshold = 2
	}

	if _, err := loader.Load(source); err != nil {
		return "", Stats{}, err
	}

	elems, err := parseElements(source)
	if err != nil {
		return "", Stats{}, err
	}

	// Always-on passes.
	elems = passCommentRemoval(elems)
	elems = passDefaultElision(elems)
	if err := reparseCheck(elems); err != nil {
		return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "always-on passes produced an unparseable program")
	}

	// Opt-in passes, reordered per spec §9: constant folding exposes more
	// dead stores, so it runs before dead-store elimination; dead-store
	// elimination removes variable uses, so it runs before both name
	// shrinking and string pooling (a pooled-then-dead-store-eliminated
	// string is strictly worse than leaving it alone).
	if opts.ConstantFold {
		elems = passConstantFold(elems)
		if err := reparseCheck(elems); err != nil {
			return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "constant folding produced an unparseable program")
		}
	}
	if opts.DeadStore {
		elems = passDeadStore(elems)
		if err := reparseCheck(elems); err != nil {
			return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "dead-store elimination produced an unparseable program")
		}
	}
	if opts.NameShrink {
		elems = passNameShrink(elems)
		if err := reparseCheck(elems); err != nil {
			return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "name shrinking produced an unparseable program")
		}
	}
	if opts.StringPool {
		elems = passStringPool(elems, opts.StringPoolThreshold)
		if err := reparseCheck(elems); err != nil {
			return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "string pooling produced an unparseable program")
		}
	}
	if opts.Unreachable {
		elems = passUnreachable(elems)
		if err := reparseCheck(elems); err != nil {
			return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "unreachable-code elimination produced an unparseable program")
		}
	}

	out := render(elems) // whitespace normalization happens implicitly: render always emits canonical spacing
	if _, err := loader.Load(out); err != nil {
		return "", Stats{}, werr.Wrap(werr.SyntaxError, 0, err, "minified program failed to reparse")
	}

	return out, Stats{OriginalBytes: len(source), MinifiedBytes: len(out)}, nil
}

func reparseCheck(elems []element) error {
	_, err := loader.Load(render(elems))
	return err
}

// parseElements re-derives the element list (instructions in source
// order, interleaved with label declarations) from a validated program.
// pkg/loader's Program only records label-to-index bindings, so labels
// bound to the same index are grouped and re-emitted (alphabetically,
// for determinism) immediately before that index's instruction.
func parseElements(source string) ([]element, error) {
	prog, err := loader.Load(source)
	if err != nil {
		return nil, err
	}

	byIndex := make(map[int][]string, len(prog.Labels))
	for name, idx := range prog.Labels {
		byIndex[idx] = append(byIndex[idx], name)
	}
	for _, names := range byIndex {
		sort.Strings(names)
	}

	var elems []element
	for i, in := range prog.Instructions {
		for _, name := range byIndex[i] {
			elems = append(elems, element{isLabel: true, labelName: name})
		}
		elems = append(elems, element{instr: in})
	}
	for _, name := range byIndex[len(prog.Instructions)] {
		elems = append(elems, element{isLabel: true, labelName: name})
	}
	return elems, nil
}

// render renders elements back to canonical WhitVM source text: one
// instruction or label per line, single spaces between tokens, no
// indentation, no trailing blank lines — satisfying whitespace
// normalization (pass 3) as a property of rendering rather than a
// separate rewrite step.
func render(elems []element) string {
	var b strings.Builder
	for _, e := range elems {
		if e.isLabel {
			fmt.Fprintf(&b, ":%s:\n", e.labelName)
			continue
		}
		b.WriteString(renderInstr(e.instr))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderInstr(in ast.Instruction) string {
	parts := make([]string, 0, len(in.Operands)+1)
	parts = append(parts, in.Op.String())
	for _, op := range in.Operands {
		parts = append(parts, op.String())
	}
	return strings.Join(parts, " ")
}

// passCommentRemoval implements spec §4.5 pass 1: delete `say <anything>
// _ 0` instructions (condition literal zero), unreachable by construction.
func passCommentRemoval(elems []element) []element {
	out := elems[:0:0]
	for _, e := range elems {
		if !e.isLabel && e.instr.Op == ast.OpSay && e.instr.SayCondition().IsDefaultLiteral(0) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// passDefaultElision implements spec §4.5 pass 2: omit trailing operands
// equal to their default, from the tail inward.
func passDefaultElision(elems []element) []element {
	out := make([]element, len(elems))
	for i, e := range elems {
		if e.isLabel {
			out[i] = e
			continue
		}
		e.instr.Operands = elideDefaults(e.instr)
		out[i] = e
	}
	return out
}

func elideDefaults(in ast.Instruction) []ast.Operand {
	ops := in.Operands
	switch in.Op {
	case ast.OpSay:
		if len(ops) == 3 && ops[2].IsDefaultLiteral(1) {
			ops = ops[:2]
		}
		if len(ops) == 2 && ops[1].IsDefaultLiteral(1) {
			ops = ops[:1]
		}
	case ast.OpJmp, ast.OpAsk:
		if len(ops) == 2 && ops[1].IsDefaultLiteral(1) {
			ops = ops[:1]
		}
	case ast.OpHalt:
		if len(ops) == 1 && ops[0].IsDefaultLiteral(1) {
			ops = ops[:0]
		}
	}
	return ops
}

// passConstantFold implements spec §4.5 pass 5: evaluate any Expr operand
// with no variable reference and no rng call, replacing it with its
// literal result.
func passConstantFold(elems []element) []element {
	out := make([]element, len(elems))
	for i, e := range elems {
		if e.isLabel {
			out[i] = e
			continue
		}
		operands := make([]ast.Operand, len(e.instr.Operands))
		for j, op := range e.instr.Operands {
			operands[j] = foldOperand(op)
		}
		e.instr.Operands = operands
		out[i] = e
	}
	return out
}

func foldOperand(op ast.Operand) ast.Operand {
	if op.Kind != ast.Expr || !expr.IsConstant(op.Expr) {
		return op
	}
	v, err := expr.Eval(op.Expr, 0, expr.EmptyStore(), panicRNG{})
	if err != nil {
		// A constant expression cannot hit an undefined variable or an rng
		// call, but arithmetic errors are still possible (e.g. a literal
		// division by zero); the operand is then left unfolded for the
		// interpreter to report at run time.
		return op
	}
	return ast.Operand{Kind: ast.Literal, Literal: v, Raw: v.String()}
}

// panicRNG must never be called: foldOperand only evaluates expressions
// expr.IsConstant has already confirmed contain no rng call.
type panicRNG struct{}

func (panicRNG) Intn(int64, int64) int64 { panic("minifier: rng called on a constant expression") }

// passDeadStore implements spec §4.5 pass 7: remove a `set *v* …` when,
// along every control-flow path leaving it, v is overwritten by another
// `set *v*` before it is ever read. This follows the program's actual
// successor edges (the same ones passUnreachable computes) rather than
// textual order, so a store guarded behind a jmp/label that skips its
// "next" same-variable store is correctly kept.
func passDeadStore(elems []element) []element {
	c := buildCFG(elems)
	n := len(c.instrs)
	keep := make([]bool, n)
	for i := range keep {
		keep[i] = true
	}

	for i, in := range c.instrs {
		if in.Op != ast.OpSet {
			continue
		}
		name := in.SetDest().Name
		if !storeIsDead(c, i, name) {
			continue
		}
		keep[i] = false
	}

	out := elems[:0:0]
	for i, e := range elems {
		if e.isLabel {
			out = append(out, e)
			continue
		}
		if keep[c.index[i]] {
			out = append(out, e)
		}
	}
	return out
}

// storeIsDead reports whether every forward path from instruction i's
// successors reaches another `set name …` before any read of name. A path
// that falls off the end of the program, or that reads name first, makes
// the store live (not dead).
func storeIsDead(c cfg, i int, name string) bool {
	visited := map[int]bool{}
	live := false

	var walk func(idx int)
	walk = func(idx int) {
		if live || visited[idx] {
			return
		}
		if idx < 0 || idx >= len(c.instrs) {
			live = true
			return
		}
		visited[idx] = true

		in := c.instrs[idx]
		if instrReads(in, name) {
			live = true
			return
		}
		if in.Op == ast.OpSet && in.SetDest().Name == name {
			return // overwritten on this path before any read — resolved
		}

		succ := c.successors(idx)
		if len(succ) == 0 {
			live = true
			return
		}
		for _, s := range succ {
			walk(s)
			if live {
				return
			}
		}
	}

	for _, s := range c.successors(i) {
		walk(s)
		if live {
			break
		}
	}
	return !live
}

func instrReads(in ast.Instruction, name string) bool {
	switch in.Op {
	case ast.OpSet:
		return operandReads(in.SetValue(), name)
	case ast.OpSay:
		return operandReads(in.SayValue(), name) || operandReads(in.SayNewlines(), name) || operandReads(in.SayCondition(), name)
	case ast.OpAsk:
		return operandReads(in.AskN(), name) || operandReads(in.AskCondition(), name)
	case ast.OpJmp:
		return operandReads(in.JmpCondition(), name)
	case ast.OpHalt:
		return operandReads(in.HaltCondition(), name)
	}
	return false
}

func operandReads(op ast.Operand, name string) bool {
	switch op.Kind {
	case ast.VarRef:
		return op.Name == name
	case ast.Expr:
		return exprReads(op.Expr, name)
	}
	return false
}

func exprReads(c *expr.Comparison, name string) bool {
	if additiveReads(c.Left, name) {
		return true
	}
	for _, rhs := range c.Ops {
		if additiveReads(rhs.Right, name) {
			return true
		}
	}
	return false
}

func additiveReads(a *expr.Additive, name string) bool {
	if multiplicativeReads(a.Left, name) {
		return true
	}
	for _, rhs := range a.Ops {
		if multiplicativeReads(rhs.Right, name) {
			return true
		}
	}
	return false
}

func multiplicativeReads(m *expr.Multiplicative, name string) bool {
	if primaryReads(m.Left, name) {
		return true
	}
	for _, rhs := range m.Ops {
		if primaryReads(rhs.Right, name) {
			return true
		}
	}
	return false
}

func primaryReads(p *expr.Primary, name string) bool {
	switch {
	case p.Var != nil:
		return strings.Trim(*p.Var, "*") == name
	case p.Sub != nil:
		return exprReads(p.Sub, name)
	case p.Rng != nil:
		return primaryReads(p.Rng.Min, name) || primaryReads(p.Rng.Max, name)
	}
	return false
}

// passNameShrink implements spec §4.5 pass 4: rename every variable and
// label to a minimal fresh identifier, in order of first appearance,
// preserving semantic identity.
func passNameShrink(elems []element) []element {
	varNames := map[string]string{}
	labelNames := map[string]string{}
	nextVar := freshNameSeq()
	nextLabel := freshNameSeq()

	assign := func(table map[string]string, gen func() string, name string) string {
		if mapped, ok := table[name]; ok {
			return mapped
		}
		mapped := gen()
		table[name] = mapped
		return mapped
	}

	out := make([]element, len(elems))
	for i, e := range elems {
		if e.isLabel {
			e.labelName = assign(labelNames, nextLabel, e.labelName)
			out[i] = e
			continue
		}
		operands := make([]ast.Operand, len(e.instr.Operands))
		for j, op := range e.instr.Operands {
			operands[j] = renameOperand(op, varNames, labelNames, nextVar, nextLabel, assign)
		}
		e.instr.Operands = operands
		out[i] = e
	}
	return out
}

func renameOperand(op ast.Operand, varNames, labelNames map[string]string, nextVar, nextLabel func() string, assign func(map[string]string, func() string, string) string) ast.Operand {
	switch op.Kind {
	case ast.VarRef:
		op.Name = assign(varNames, nextVar, op.Name)
		op.Raw = "*" + op.Name + "*"
	case ast.LabelRef:
		op.Name = assign(labelNames, nextLabel, op.Name)
		op.Raw = ":" + op.Name + ":"
	case ast.Expr:
		renameExpr(op.Expr, varNames, nextVar, assign)
		// Raw is what render emits, so rename its variable references too.
		// String literals are matched first so their contents are left alone.
		varRef := regexp.MustCompile(`#[^#]*#|\*[A-Za-z_][0-9A-Za-z_]*\*`)
		op.Raw = varRef.ReplaceAllStringFunc(op.Raw, func(tok string) string {
			if tok[0] != '*' {
				return tok
			}
			return "*" + assign(varNames, nextVar, tok[1:len(tok)-1]) + "*"
		})
	}
	return op
}

func renameExpr(c *expr.Comparison, varNames map[string]string, nextVar func() string, assign func(map[string]string, func() string, string) string) {
	renameAdditive(c.Left, varNames, nextVar, assign)
	for _, rhs := range c.Ops {
		renameAdditive(rhs.Right, varNames, nextVar, assign)
	}
}

func renameAdditive(a *expr.Additive, varNames map[string]string, nextVar func() string, assign func(map[string]string, func() string, string) string) {
	renameMultiplicative(a.Left, varNames, nextVar, assign)
	for _, rhs := range a.Ops {
		renameMultiplicative(rhs.Right, varNames, nextVar, assign)
	}
}

func renameMultiplicative(m *expr.Multiplicative, varNames map[string]string, nextVar func() string, assign func(map[string]string, func() string, string) string) {
	renamePrimary(m.Left, varNames, nextVar, assign)
	for _, rhs := range m.Ops {
		renamePrimary(rhs.Right, varNames, nextVar, assign)
	}
}

func renamePrimary(p *expr.Primary, varNames map[string]string, nextVar func() string, assign func(map[string]string, func() string, string) string) {
	switch {
	case p.Var != nil:
		old := strings.Trim(*p.Var, "*")
		renamed := assign(varNames, nextVar, old)
		wrapped := "*" + renamed + "*"
		p.Var = &wrapped
	case p.Sub != nil:
		renameExpr(p.Sub, varNames, nextVar, assign)
	case p.Rng != nil:
		renamePrimary(p.Rng.Min, varNames, nextVar, assign)
		renamePrimary(p.Rng.Max, varNames, nextVar, assign)
	}
}

// freshNameSeq returns a generator of minimal fresh identifiers: a, b,
// ..., z, aa, ab, ..., base-26 over lowercase letters.
func freshNameSeq() func() string {
	n := 0
	return func() string {
		name := base26(n)
		n++
		return name
	}
}

func base26(n int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	if n < 26 {
		return string(letters[n])
	}
	return base26(n/26-1) + string(letters[n%26])
}

// passStringPool implements spec §4.5 pass 6: string literals used more
// than threshold times are hoisted into a variable set once at program
// start (which trivially dominates every other position) and usages are
// replaced with a reference to it.
func passStringPool(elems []element, threshold int) []element {
	counts := map[string]int{}
	for _, e := range elems {
		if e.isLabel {
			continue
		}
		for _, op := range e.instr.Operands {
			if op.Kind == ast.Literal && op.Literal.IsText() {
				counts[op.Literal.RawText()]++
			}
		}
	}

	existing := map[string]bool{}
	for _, e := range elems {
		if e.isLabel {
			existing[e.labelName] = true
		} else {
			for _, op := range e.instr.Operands {
				if op.Kind == ast.VarRef || op.Kind == ast.LabelRef {
					existing[op.Name] = true
				}
			}
		}
	}
	freshPoolName := func(base int) string {
		for i := base; ; i++ {
			name := fmt.Sprintf("_s%d", i)
			if !existing[name] {
				existing[name] = true
				return name
			}
		}
	}

	var pooled []string
	for s, c := range counts {
		if c > threshold {
			pooled = append(pooled, s)
		}
	}
	if len(pooled) == 0 {
		return elems
	}
	sort.Strings(pooled) // deterministic insertion order

	varFor := map[string]string{}
	var inserts []element
	for i, s := range pooled {
		name := freshPoolName(i)
		varFor[s] = name
		inserts = append(inserts, element{instr: ast.Instruction{
			Op: ast.OpSet,
			Operands: []ast.Operand{
				{Kind: ast.VarRef, Name: name, Raw: "*" + name + "*"},
				{Kind: ast.Literal, Literal: value.Str(s), Raw: "#" + s + "#"},
			},
		}})
	}

	out := make([]element, 0, len(elems)+len(inserts))
	out = append(out, inserts...)
	for _, e := range elems {
		if e.isLabel {
			out = append(out, e)
			continue
		}
		operands := make([]ast.Operand, len(e.instr.Operands))
		for j, op := range e.instr.Operands {
			if op.Kind == ast.Literal && op.Literal.IsText() {
				if name, ok := varFor[op.Literal.RawText()]; ok {
					operands[j] = ast.Operand{Kind: ast.VarRef, Name: name, Raw: "*" + name + "*"}
					continue
				}
			}
			operands[j] = op
		}
		e.instr.Operands = operands
		out = append(out, e)
	}
	return out
}

// cfg is the flattened control-flow view of a program shared by
// passUnreachable and passDeadStore: instrs holds only the instructions
// (labels stripped out), index maps an element index to its instruction
// index (-1 for labels), and labelIndex maps a label name to the
// instruction index it precedes (len(instrs) if trailing).
type cfg struct {
	instrs     []ast.Instruction
	index      []int
	labelIndex map[string]int
}

func buildCFG(elems []element) cfg {
	n := 0
	index := make([]int, len(elems))
	for i := range index {
		index[i] = -1
	}
	for i, e := range elems {
		if !e.isLabel {
			index[i] = n
			n++
		}
	}

	instrs := make([]ast.Instruction, 0, n)
	for _, e := range elems {
		if !e.isLabel {
			instrs = append(instrs, e.instr)
		}
	}

	labelIndex := map[string]int{}
	pending := n
	for i := len(elems) - 1; i >= 0; i-- {
		e := elems[i]
		if !e.isLabel {
			pending = index[i]
			continue
		}
		labelIndex[e.labelName] = pending
	}

	return cfg{instrs: instrs, index: index, labelIndex: labelIndex}
}

// successors returns the instruction indices i's instruction can transfer
// control to, per spec §4.4's per-opcode pc-update rules. The returned
// slice may contain indices >= len(c.instrs), meaning "falls off the end
// of the program".
func (c cfg) successors(i int) []int {
	in := c.instrs[i]
	switch in.Op {
	case ast.OpAsk:
		nv := in.AskN()
		if nv.Kind == ast.Literal && nv.Literal.IsInt() {
			count := int(nv.Literal.Int64())
			succ := make([]int, 0, count+1)
			for k := 1; k <= count; k++ {
				succ = append(succ, i+k)
			}
			// falsy cond: pc := pc+1+n, a live successor distinct from
			// the dispatch range itself.
			succ = append(succ, i+1+count)
			return succ
		}
		// n isn't known ahead of time (e.g. a VarRef/Expr) — the dispatch
		// range can't be bounded, so conservatively treat everything
		// downstream of this ask as a successor.
		succ := make([]int, 0, len(c.instrs)-i-1)
		for k := i + 1; k < len(c.instrs); k++ {
			succ = append(succ, k)
		}
		return succ

	case ast.OpJmp:
		var succ []int
		if idx, ok := c.labelIndex[in.JmpLabel().Name]; ok {
			succ = append(succ, idx)
		}
		if !isUnconditional(in.JmpCondition()) {
			succ = append(succ, i+1)
		}
		return succ

	case ast.OpHalt:
		if !isUnconditional(in.HaltCondition()) {
			return []int{i + 1}
		}
		return nil

	default:
		return []int{i + 1}
	}
}

// passUnreachable implements spec §4.5 pass 8: remove instructions not
// reachable from instruction 0 under the stated control-flow rules.
func passUnreachable(elems []element) []element {
	c := buildCFG(elems)
	n := len(c.instrs)
	if n == 0 {
		return elems
	}

	reachable := make([]bool, n)
	var roots []int
	roots = append(roots, 0)
	for _, idx := range c.labelIndex {
		roots = append(roots, idx)
	}

	var stack []int
	mark := func(idx int) {
		if idx >= 0 && idx < n && !reachable[idx] {
			reachable[idx] = true
			stack = append(stack, idx)
		}
	}
	for _, r := range roots {
		mark(r)
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, s := range c.successors(i) {
			mark(s)
		}
	}

	out := elems[:0:0]
	for i, e := range elems {
		if e.isLabel {
			out = append(out, e)
			continue
		}
		if reachable[c.index[i]] {
			out = append(out, e)
		}
	}
	return out
}

func isUnconditional(cond ast.Operand) bool {
	return cond.Kind == ast.Literal && cond.Literal.IsInt() && cond.Literal.Int64() == 1
}
