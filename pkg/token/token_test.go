package token

import "testing"

func TestTokenizeInstruction(t *testing.T) {
	toks, err := Tokenize(`say *name* #, welcome# 1 1`, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Token{
		{Kind: Word, Text: "say", Line: 3, Col: 1},
		{Kind: VarOrExpr, Text: "name", Line: 3, Col: 5},
		{Kind: String, Text: ", welcome", Line: 3, Col: 12},
		{Kind: Word, Text: "1", Line: 3, Col: 24},
		{Kind: Word, Text: "1", Line: 3, Col: 26},
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, tok := range toks {
		if tok != want[i] {
			t.Errorf("token %d = %+v, want %+v", i, tok, want[i])
		}
	}
}

func TestTokenizeLabel(t *testing.T) {
	toks, err := Tokenize(":loop:", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 1 || toks[0].Kind != Label || toks[0].Text != "loop" {
		t.Errorf("got %+v", toks)
	}
}

func TestTokenizeNestedExpression(t *testing.T) {
	toks, err := Tokenize(`set *x* ((*a*)+((*b*)*2))`, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 3 {
		t.Fatalf("got %d tokens, want 3: %+v", len(toks), toks)
	}
	if toks[2].Kind != Expr || toks[2].Text != "((*a*)+((*b*)*2))" {
		t.Errorf("expr token = %+v", toks[2])
	}
}

func TestUnclosedString(t *testing.T) {
	if _, err := Tokenize(`say #oops`, 1); err == nil {
		t.Error("expected an error for an unclosed string")
	}
}

func TestUnclosedVariable(t *testing.T) {
	if _, err := Tokenize(`say *oops`, 1); err == nil {
		t.Error("expected an error for an unclosed variable")
	}
}

func TestUnbalancedParen(t *testing.T) {
	if _, err := Tokenize(`say ((1+2)`, 1); err == nil {
		t.Error("expected an error for an unbalanced (")
	}
}

func TestUnexpectedCloseParen(t *testing.T) {
	if _, err := Tokenize(`say 1)`, 1); err == nil {
		t.Error("expected an error for an unexpected )")
	}
}
