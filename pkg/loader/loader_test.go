package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FireShade3DS/whitvm/pkg/ast"
	"github.com/FireShade3DS/whitvm/pkg/werr"
)

func TestLoadCounterLoop(t *testing.T) {
	src := `
set *i* 0
:loop:
say *i* 1 1
set *i* ((*i*)+1)
jmp :loop: ((*i*)<3)
`
	prog, err := Load(src)
	require.NoError(t, err)
	require.Len(t, prog.Instructions, 4)

	idx, ok := prog.Resolve("loop")
	require.True(t, ok)
	require.Equal(t, 1, idx)

	require.Equal(t, ast.OpSet, prog.Instructions[0].Op)
	require.Equal(t, "i", prog.Instructions[0].Dest())
	require.Equal(t, ast.OpJmp, prog.Instructions[3].Op)
	require.Equal(t, "loop", prog.Instructions[3].JmpLabel().Name)
}

func TestLoadRejectsUndeclaredLabel(t *testing.T) {
	_, err := Load("jmp :nowhere:\n")
	assertKind(t, err, werr.LabelError)
}

func TestLoadRejectsDuplicateLabel(t *testing.T) {
	src := ":a:\nhalt\n:a:\nhalt\n"
	assertKind(t, errOf(Load(src)), werr.LabelError)
}

func TestLoadRejectsBadArity(t *testing.T) {
	assertKind(t, errOf(Load("set *v*\n")), werr.ArityError)
	assertKind(t, errOf(Load("jmp :a: 1 1\n:a:\nhalt\n")), werr.ArityError)
}

func TestLoadRejectsAskZero(t *testing.T) {
	assertKind(t, errOf(Load("ask 0\n")), werr.ArityError)
}

func TestLoadRejectsUnknownOpcode(t *testing.T) {
	assertKind(t, errOf(Load("frobnicate 1\n")), werr.SyntaxError)
}

func TestLoadRejectsLiteralAsSetDest(t *testing.T) {
	assertKind(t, errOf(Load("set 1 2\n")), werr.SyntaxError)
}

func TestLoadRejectsVariableAsJmpTarget(t *testing.T) {
	assertKind(t, errOf(Load("set *a* 0\njmp *a*\n")), werr.SyntaxError)
}

func TestLoadParsesExpressionOperand(t *testing.T) {
	prog, err := Load("say ((1+2)) 1 1\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	val := prog.Instructions[0].SayValue()
	if val.Kind != ast.Expr {
		t.Errorf("got Kind %v, want ast.Expr", val.Kind)
	}
}

func TestLoadDefaultsAreApplied(t *testing.T) {
	prog, err := Load("say #hi#\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	in := prog.Instructions[0]
	if !in.SayNewlines().IsDefaultLiteral(1) {
		t.Error("nl_qty should default to 1")
	}
	if !in.SayCondition().IsDefaultLiteral(1) {
		t.Error("condition should default to 1")
	}
}

func TestReadFileTriesWhitvmSuffix(t *testing.T) {
	_, err := ReadFile("/nonexistent/path/to/a/program")
	if err == nil {
		t.Fatal("expected a file-not-found error")
	}
	if !strings.Contains(err.Error(), "/nonexistent/path/to/a/program.whitvm") {
		t.Errorf("expected the .whitvm-suffixed candidate to be tried, got %v", err)
	}
}

func errOf(_ *ast.Program, err error) error { return err }

func assertKind(t *testing.T, err error, want werr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected a %s error, got nil", want)
	}
	werrErr, ok := err.(*werr.Error)
	if !ok {
		t.Fatalf("expected *werr.Error, got %T: %v", err, err)
	}
	if werrErr.Kind != want {
		t.Errorf("got Kind %s, want %s", werrErr.Kind, want)
	}
}
