// Package token splits one logical WhitVM source line into a sequence of
// typed lexemes, per spec §4.1. It disambiguates the four overlapping
// sigils (#…#, *…*, :…:, (…)) by hand — this layer is intentionally not a
// table-driven lexer, because the disambiguation rules are about raw
// delimiter matching and nesting depth, not regex-recognizable patterns.
package token

import (
	"strings"

	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// Kind discriminates the lexeme kinds of spec §4.1.
type Kind int

const (
	// Word is a bare identifier or number.
	Word Kind = iota
	// String is a #…# delimited string literal (delimiters stripped).
	String
	// VarOrExpr is a *…* delimited variable reference (delimiters stripped).
	VarOrExpr
	// Expr is a (…) delimited expression, delimiters included verbatim so
	// pkg/expr can reparse the same text spec §4.3 describes.
	Expr
	// Label is a :…: delimited label reference/declaration (delimiters
	// stripped).
	Label
)

// Token is one lexeme plus its source extent, for diagnostics.
type Token struct {
	Kind Kind
	Text string
	Line int
	Col  int // 1-based column of the token's opening character
}

// Tokenize splits one source line into its top-level tokens. Whitespace
// between tokens is skipped; whitespace inside a delimited token is kept
// verbatim (no escape processing, per spec).
func Tokenize(line string, lineNo int) ([]Token, error) {
	var toks []Token
	r := []rune(line)
	i := 0
	for i < len(r) {
		if isSpace(r[i]) {
			i++
			continue
		}
		col := i + 1
		switch r[i] {
		case '#':
			end := indexFrom(r, i+1, '#')
			if end == -1 {
				return nil, werr.New(werr.SyntaxError, lineNo, "unclosed string literal starting at column %d", col)
			}
			toks = append(toks, Token{Kind: String, Text: string(r[i+1 : end]), Line: lineNo, Col: col})
			i = end + 1

		case '*':
			end := indexFrom(r, i+1, '*')
			if end == -1 {
				return nil, werr.New(werr.SyntaxError, lineNo, "unclosed variable starting at column %d", col)
			}
			toks = append(toks, Token{Kind: VarOrExpr, Text: string(r[i+1 : end]), Line: lineNo, Col: col})
			i = end + 1

		case ':':
			end := indexFrom(r, i+1, ':')
			if end == -1 {
				return nil, werr.New(werr.SyntaxError, lineNo, "unclosed label starting at column %d", col)
			}
			toks = append(toks, Token{Kind: Label, Text: string(r[i+1 : end]), Line: lineNo, Col: col})
			i = end + 1

		case '(':
			depth := 1
			j := i + 1
			for j < len(r) && depth > 0 {
				switch r[j] {
				case '(':
					depth++
				case ')':
					depth--
				}
				j++
			}
			if depth != 0 {
				return nil, werr.New(werr.SyntaxError, lineNo, "unbalanced ( starting at column %d", col)
			}
			toks = append(toks, Token{Kind: Expr, Text: string(r[i:j]), Line: lineNo, Col: col})
			i = j

		case ')':
			return nil, werr.New(werr.SyntaxError, lineNo, "unexpected ) at column %d", col)

		default:
			j := i
			for j < len(r) && !isSpace(r[j]) && !isDelim(r[j]) {
				j++
			}
			toks = append(toks, Token{Kind: Word, Text: string(r[i:j]), Line: lineNo, Col: col})
			i = j
		}
	}
	return toks, nil
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r' || r == '\n' || r == '\v' || r == '\f'
}

func isDelim(r rune) bool {
	return strings.ContainsRune("()#*:", r)
}

func indexFrom(r []rune, start int, target rune) int {
	for i := start; i < len(r); i++ {
		if r[i] == target {
			return i
		}
	}
	return -1
}
