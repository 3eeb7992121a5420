// Package expr implements the parenthesized-expression grammar of spec
// §4.3 using github.com/alecthomas/participle/v2 — the same grammar
// library the teacher repo (oisee-psil) builds its whole language on,
// generalized here from PSIL's flat concatenative grammar to WhitVM's
// infix-precedence one (comparison > additive > multiplicative > primary).
package expr

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// exprLexer tokenizes the inside of a "(...)" expression. Rule order
// resolves the spec §9 Open Question on `*` disambiguation: Variable is
// tried before the bare operator rule, and its pattern only matches when
// the character right after `*` starts an identifier with no intervening
// whitespace — a `*` flanked by whitespace or a non-identifier character
// falls through to the Op1 rule and is read as multiplication.
var exprLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
	{Name: "String", Pattern: `#[^#]*#`},
	{Name: "Variable", Pattern: `\*[A-Za-z_][0-9A-Za-z_]*\*`},
	{Name: "Number", Pattern: `[0-9]+`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "CompOp2", Pattern: `==|!=|<=|>=`},
	{Name: "Op1", Pattern: `[+\-*/%<>]`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
})

// Comparison is the top grammar level: a left Additive followed by zero or
// more (relational-op, Additive) pairs, left-associative.
type Comparison struct {
	Left *Additive    `@@`
	Ops  []*CompRHS   `@@*`
}

type CompRHS struct {
	Op    string    `@("=="|"!="|"<="|">="|"<"|">")`
	Right *Additive `@@`
}

// Additive: Multiplicative (+/- Multiplicative)*
type Additive struct {
	Left *Multiplicative `@@`
	Ops  []*AddRHS       `@@*`
}

type AddRHS struct {
	Op    string          `@("+"|"-")`
	Right *Multiplicative `@@`
}

// Multiplicative: Primary (* / % Primary)*
type Multiplicative struct {
	Left *Primary `@@`
	Ops  []*MulRHS `@@*`
}

type MulRHS struct {
	Op    string   `@("*"|"/"|"%")`
	Right *Primary `@@`
}

// Primary is a term: the rng builtin, a number, a string, a variable
// reference, or a fully parenthesized sub-expression.
type Primary struct {
	Rng    *RngCall    `  @@`
	Number *string     `| @Number`
	Str    *string     `| @String`
	Var    *string     `| @Variable`
	Sub    *Comparison `| "(" @@ ")"`
}

// RngCall: "rng" min max, where min and max are each a Primary term (see
// SPEC_FULL.md §D for why this is tighter than the Python original).
type RngCall struct {
	Keyword string   `"rng"`
	Min     *Primary `@@`
	Max     *Primary `@@`
}

var parser = participle.MustBuild[Comparison](
	participle.Lexer(exprLexer),
	participle.Elide("Whitespace"),
	participle.UseLookahead(2),
)

// Parse parses the interior of a "(...)" expression token (with the outer
// parentheses already stripped) into a Comparison AST.
func Parse(src string, line int) (*Comparison, error) {
	ast, err := parser.ParseString("", src)
	if err != nil {
		return nil, werr.Wrap(werr.SyntaxError, line, err, "invalid expression %q", src)
	}
	return ast, nil
}

// ParseParenthesized strips one layer of outer parens (as captured
// verbatim by pkg/token's Expr token) and parses the interior.
func ParseParenthesized(src string, line int) (*Comparison, error) {
	trimmed := strings.TrimSpace(src)
	if len(trimmed) < 2 || trimmed[0] != '(' || trimmed[len(trimmed)-1] != ')' {
		return nil, werr.New(werr.SyntaxError, line, "expression %q is not parenthesized", src)
	}
	return Parse(trimmed[1:len(trimmed)-1], line)
}

func parseIntLiteral(s string, line int) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, werr.Wrap(werr.SyntaxError, line, err, "invalid integer literal %q", s)
	}
	return n, nil
}

func varName(raw string) string {
	return raw[1 : len(raw)-1]
}

func strLiteral(raw string) string {
	return raw[1 : len(raw)-1]
}
