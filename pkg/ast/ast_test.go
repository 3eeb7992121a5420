package ast

import "testing"

func TestSayDefaults(t *testing.T) {
	in := Instruction{Op: OpSay, Operands: []Operand{{Kind: Literal}}}
	if !in.SayNewlines().IsDefaultLiteral(1) {
		t.Error("missing nl_qty should default to 1")
	}
	if !in.SayCondition().IsDefaultLiteral(1) {
		t.Error("missing condition should default to 1")
	}
}

func TestHaltDefaultCondition(t *testing.T) {
	in := Instruction{Op: OpHalt}
	if !in.HaltCondition().IsDefaultLiteral(1) {
		t.Error("missing halt condition should default to 1")
	}
}

func TestOpcodeString(t *testing.T) {
	cases := map[Opcode]string{
		OpSay: "say", OpAsk: "ask", OpJmp: "jmp", OpSet: "set", OpHalt: "halt",
	}
	for op, want := range cases {
		if got := op.String(); got != want {
			t.Errorf("Opcode(%d).String() = %q, want %q", op, got, want)
		}
	}
}

func TestProgramResolve(t *testing.T) {
	p := &Program{Labels: map[string]int{"start": 0, "end": 3}}
	if idx, ok := p.Resolve("start"); !ok || idx != 0 {
		t.Errorf("Resolve(start) = %d, %v", idx, ok)
	}
	if _, ok := p.Resolve("missing"); ok {
		t.Error("Resolve(missing) should report not-found")
	}
}
