// Package value defines the tagged scalar that flows through every WhitVM
// subsystem: the loader, the expression evaluator, the variable store,
// and say's rendering to output.
package value

import (
	"fmt"
	"strconv"
)

// Kind discriminates the two Value variants.
type Kind int

const (
	// Integer holds a signed 64-bit number.
	Integer Kind = iota
	// Text holds an opaque byte sequence (no escape processing).
	Text
)

// Value is a tagged scalar: Integer(i64) or Text(string). Booleans are not
// a distinct variant — they are encoded as the integers 1 (true) and 0
// (false), per spec.
type Value struct {
	kind Kind
	i    int64
	s    string
}

// Int constructs an Integer value.
func Int(i int64) Value { return Value{kind: Integer, i: i} }

// Str constructs a Text value.
func Str(s string) Value { return Value{kind: Text, s: s} }

// Bool encodes a boolean as the integer 1 (true) or 0 (false).
func Bool(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

// Kind reports which variant v holds.
func (v Value) Kind() Kind { return v.kind }

// IsInt reports whether v holds an Integer.
func (v Value) IsInt() bool { return v.kind == Integer }

// IsText reports whether v holds Text.
func (v Value) IsText() bool { return v.kind == Text }

// Int64 returns the integer payload. Only meaningful when IsInt() is true.
func (v Value) Int64() int64 { return v.i }

// RawText returns the string payload. Only meaningful when IsText() is true.
func (v Value) RawText() string { return v.s }

// String renders v the way `say` does: decimal for integers, raw bytes for
// text.
func (v Value) String() string {
	switch v.kind {
	case Integer:
		return strconv.FormatInt(v.i, 10)
	case Text:
		return v.s
	default:
		return ""
	}
}

// GoString supports %#v / debug printing without exposing internal fields.
func (v Value) GoString() string {
	switch v.kind {
	case Integer:
		return fmt.Sprintf("value.Int(%d)", v.i)
	case Text:
		return fmt.Sprintf("value.Str(%q)", v.s)
	default:
		return "value.Value{}"
	}
}

// Truthy implements the boolean-context rule of spec §4.3: an integer is
// truthy iff non-zero; a string is truthy iff non-empty.
func (v Value) Truthy() bool {
	switch v.kind {
	case Integer:
		return v.i != 0
	case Text:
		return v.s != ""
	default:
		return false
	}
}

// AsInt coerces v to an integer per the arithmetic-context coercion rule:
// an Integer value returns as-is; a Text value that parses as a base-10
// integer is coerced; any other Text is not representable (ok=false).
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case Integer:
		return v.i, true
	case Text:
		n, err := strconv.ParseInt(v.s, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Equal implements == / != semantics: same-kind values compare by value;
// mixed-kind equality is always false (never true), per spec §4.3.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case Integer:
		return v.i == other.i
	case Text:
		return v.s == other.s
	default:
		return false
	}
}

// Less implements < for ordering: integers compare numerically, strings
// lexicographically. Callers must ensure both operands share a kind —
// mixed-kind ordering is fatal at the evaluator layer, not handled here.
func (v Value) Less(other Value) bool {
	if v.kind == Integer {
		return v.i < other.i
	}
	return v.s < other.s
}
