package interpreter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FireShade3DS/whitvm/pkg/ast"
	"github.com/FireShade3DS/whitvm/pkg/loader"
)

// runWhitVM loads and runs source with the given stdin text, returning
// captured stdout.
func runWhitVM(t *testing.T, source, stdin string) (string, error) {
	t.Helper()
	prog, err := loader.Load(source)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	var out bytes.Buffer
	it := New(prog)
	it.Output = &out
	it.SetInput(strings.NewReader(stdin))
	err = it.Run()
	return out.String(), err
}

func TestCounterLoop(t *testing.T) {
	src := `
set *i* 0
:loop:
say *i* 1 1
set *i* ((*i*)+1)
jmp :loop: ((*i*)<3)
`
	out, err := runWhitVM(t, src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "0\n1\n2\n" {
		t.Errorf("got %q, want %q", out, "0\n1\n2\n")
	}
}

func TestAskDispatch(t *testing.T) {
	src := `
say #a?# 1 1
ask 2
jmp :A:
jmp :B:
:A:
say #A# 1 1
halt
:B:
say #B# 1 1
halt
`
	cases := []struct {
		input string
		want  string
	}{
		{"2\n", "a?\nB\n"},
		{"1\n", "a?\nA\n"},
		{"9\n", "a?\nA\n"},
	}
	for _, c := range cases {
		out, err := runWhitVM(t, src, c.input)
		if err != nil {
			t.Fatalf("input %q: unexpected error: %v", c.input, err)
		}
		if out != c.want {
			t.Errorf("input %q: got %q, want %q", c.input, out, c.want)
		}
	}
}

func TestAskDisabled(t *testing.T) {
	src := `
ask 2 0
jmp :A:
jmp :B:
say #C# 1 1
halt
:A:
:B:
`
	out, err := runWhitVM(t, src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "C\n" {
		t.Errorf("got %q, want %q", out, "C\n")
	}
}

func TestStringComparisonCaseSensitive(t *testing.T) {
	src := `
set *n* #Alice#
say #yes# 1 ((*n*)==#alice#)
halt
`
	out, err := runWhitVM(t, src, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "" {
		t.Errorf("got %q, want empty", out)
	}
}

func TestIntegerDivisionFloors(t *testing.T) {
	out, err := runWhitVM(t, `say ((7/2)) 1 1`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "3\n" {
		t.Errorf("got %q, want %q", out, "3\n")
	}

	out, err = runWhitVM(t, `say ((10%3)) 1 1`, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1\n" {
		t.Errorf("got %q, want %q", out, "1\n")
	}
}

func TestUndefinedVariableFatal(t *testing.T) {
	_, err := runWhitVM(t, `say *x* 1 1`, "")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "x") {
		t.Errorf("expected error to mention %q, got %v", "x", err)
	}
}

func TestAskOutOfRangeInputFallsThroughToOptionOne(t *testing.T) {
	src := `
ask 3
jmp :one:
jmp :two:
jmp :three:
:one:
say #1# 1 1
halt
:two:
say #2# 1 1
halt
:three:
say #3# 1 1
halt
`
	out, err := runWhitVM(t, src, "0\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "1\n" {
		t.Errorf("got %q, want %q", out, "1\n")
	}
}

func TestAskNonIntegerInputIsFatal(t *testing.T) {
	_, err := runWhitVM(t, "ask 2\njmp :a:\njmp :b:\n:a:\nhalt\n:b:\nhalt\n", "nope\n")
	if err == nil {
		t.Fatal("expected InputError")
	}
}

func TestDivisionByZeroIsFatal(t *testing.T) {
	_, err := runWhitVM(t, `say ((1/0)) 1 1`, "")
	if err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestSayNegativeNewlinesIsFatal(t *testing.T) {
	_, err := runWhitVM(t, `set *n* (0-1)
say #x# (*n*)`, "")
	if err == nil {
		t.Fatal("expected a range error")
	}
}

func TestPCInvariantAfterHalt(t *testing.T) {
	prog, err := loader.Load("halt\n")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	it := New(prog)
	it.Output = &bytes.Buffer{}
	if err := it.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.PC != len(prog.Instructions) {
		t.Errorf("pc = %d, want %d", it.PC, len(prog.Instructions))
	}
}

func TestStepCountAndOpCounts(t *testing.T) {
	prog, err := loader.Load("set *i* 0\nsay *i* 1 1\nhalt\n")
	require.NoError(t, err)

	it := New(prog)
	it.Output = &bytes.Buffer{}
	require.NoError(t, it.Run())

	require.Equal(t, 3, it.StepCount)
	require.Equal(t, map[ast.Opcode]int{ast.OpSet: 1, ast.OpSay: 1, ast.OpHalt: 1}, it.OpCounts)
}

func TestSeedDeterminesRNGOutput(t *testing.T) {
	prog, err := loader.Load(`say ((rng 1 100)) 1 1`)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	var out1, out2 bytes.Buffer
	it1 := New(prog)
	it1.Output = &out1
	it1.Seed(42)
	if err := it1.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	it2 := New(prog)
	it2.Output = &out2
	it2.Seed(42)
	if err := it2.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out1.String() != out2.String() {
		t.Errorf("same seed produced different output: %q vs %q", out1.String(), out2.String())
	}
}
