package value

import "testing"

func TestStringRendering(t *testing.T) {
	cases := []struct {
		v    Value
		want string
	}{
		{Int(42), "42"},
		{Int(-7), "-7"},
		{Str("hello"), "hello"},
		{Str(""), ""},
	}
	for _, c := range cases {
		if got := c.v.String(); got != c.want {
			t.Errorf("String() = %q, want %q", got, c.want)
		}
	}
}

func TestTruthy(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Int(0), false},
		{Int(1), true},
		{Int(-1), true},
		{Str(""), false},
		{Str("0"), true}, // non-empty string is truthy regardless of content
	}
	for _, c := range cases {
		if got := c.v.Truthy(); got != c.want {
			t.Errorf("%#v.Truthy() = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	if n, ok := Int(5).AsInt(); !ok || n != 5 {
		t.Errorf("Int(5).AsInt() = %d, %v", n, ok)
	}
	if n, ok := Str("12").AsInt(); !ok || n != 12 {
		t.Errorf("Str(\"12\").AsInt() = %d, %v", n, ok)
	}
	if _, ok := Str("abc").AsInt(); ok {
		t.Error("Str(\"abc\").AsInt() should fail")
	}
}

func TestEqualMixedKindAlwaysFalse(t *testing.T) {
	if Int(0).Equal(Str("")) {
		t.Error("Int(0) should never equal Str(\"\"), even though both are falsy")
	}
	if Int(5).Equal(Str("5")) {
		t.Error("Int(5) should never equal Str(\"5\")")
	}
}

func TestEqualSameKind(t *testing.T) {
	if !Int(5).Equal(Int(5)) {
		t.Error("Int(5) should equal Int(5)")
	}
	if Int(5).Equal(Int(6)) {
		t.Error("Int(5) should not equal Int(6)")
	}
	if !Str("alice").Equal(Str("alice")) {
		t.Error("Str(\"alice\") should equal Str(\"alice\")")
	}
	if Str("Alice").Equal(Str("alice")) {
		t.Error("string comparison must be case-sensitive")
	}
}

func TestLess(t *testing.T) {
	if !Int(1).Less(Int(2)) {
		t.Error("1 < 2")
	}
	if !Str("a").Less(Str("b")) {
		t.Error("\"a\" < \"b\" lexicographically")
	}
}

func TestBool(t *testing.T) {
	if !Bool(true).Equal(Int(1)) {
		t.Error("Bool(true) should equal Int(1)")
	}
	if !Bool(false).Equal(Int(0)) {
		t.Error("Bool(false) should equal Int(0)")
	}
}
