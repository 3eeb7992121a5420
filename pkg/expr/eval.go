package expr

import (
	"github.com/FireShade3DS/whitvm/pkg/value"
	"github.com/FireShade3DS/whitvm/pkg/werr"
)

// Store resolves variable reads for evaluation. pkg/interpreter's variable
// store and pkg/minifier's constant-environment (always empty) both
// implement it.
type Store interface {
	Get(name string) (value.Value, bool)
}

// RNG produces the uniformly distributed integer `rng min max` needs.
// Evaluation is deterministic for everything except this call, which is
// why constant folding (pkg/minifier) refuses to fold any expression
// containing it.
type RNG interface {
	Intn(min, max int64) int64
}

// Line is attached to evaluation errors; callers without instruction-line
// context may pass 0.
func Eval(c *Comparison, line int, store Store, rng RNG) (value.Value, error) {
	return evalComparison(c, line, store, rng)
}

func evalComparison(c *Comparison, line int, store Store, rng RNG) (value.Value, error) {
	left, err := evalAdditive(c.Left, line, store, rng)
	if err != nil {
		return value.Value{}, err
	}
	for _, rhs := range c.Ops {
		right, err := evalAdditive(rhs.Right, line, store, rng)
		if err != nil {
			return value.Value{}, err
		}
		left, err = applyCompare(rhs.Op, left, right, line)
		if err != nil {
			return value.Value{}, err
		}
	}
	return left, nil
}

func applyCompare(op string, l, r value.Value, line int) (value.Value, error) {
	switch op {
	case "==":
		return value.Bool(l.Equal(r)), nil
	case "!=":
		return value.Bool(!l.Equal(r)), nil
	}
	// Ordering: both must share a kind.
	if l.Kind() != r.Kind() {
		return value.Value{}, werr.New(werr.TypeError, line, "cannot order %s against %s", kindName(l), kindName(r))
	}
	switch op {
	case "<":
		return value.Bool(l.Less(r)), nil
	case ">":
		return value.Bool(r.Less(l)), nil
	case "<=":
		return value.Bool(!r.Less(l)), nil
	case ">=":
		return value.Bool(!l.Less(r)), nil
	}
	return value.Value{}, werr.New(werr.SyntaxError, line, "unknown comparison operator %q", op)
}

func evalAdditive(a *Additive, line int, store Store, rng RNG) (value.Value, error) {
	left, err := evalMultiplicative(a.Left, line, store, rng)
	if err != nil {
		return value.Value{}, err
	}
	for _, rhs := range a.Ops {
		right, err := evalMultiplicative(rhs.Right, line, store, rng)
		if err != nil {
			return value.Value{}, err
		}
		li, ok1 := left.AsInt()
		ri, ok2 := right.AsInt()
		if !ok1 || !ok2 {
			return value.Value{}, werr.New(werr.TypeError, line, "arithmetic requires integers, got %s and %s", kindName(left), kindName(right))
		}
		if rhs.Op == "+" {
			left = value.Int(li + ri)
		} else {
			left = value.Int(li - ri)
		}
	}
	return left, nil
}

func evalMultiplicative(m *Multiplicative, line int, store Store, rng RNG) (value.Value, error) {
	left, err := evalPrimary(m.Left, line, store, rng)
	if err != nil {
		return value.Value{}, err
	}
	for _, rhs := range m.Ops {
		right, err := evalPrimary(rhs.Right, line, store, rng)
		if err != nil {
			return value.Value{}, err
		}
		li, ok1 := left.AsInt()
		ri, ok2 := right.AsInt()
		if !ok1 || !ok2 {
			return value.Value{}, werr.New(werr.TypeError, line, "arithmetic requires integers, got %s and %s", kindName(left), kindName(right))
		}
		switch rhs.Op {
		case "*":
			left = value.Int(li * ri)
		case "/":
			if ri == 0 {
				return value.Value{}, werr.New(werr.DivisionByZero, line, "division by zero")
			}
			left = value.Int(li / ri)
		case "%":
			if ri == 0 {
				return value.Value{}, werr.New(werr.DivisionByZero, line, "modulo by zero")
			}
			left = value.Int(li % ri)
		}
	}
	return left, nil
}

func evalPrimary(p *Primary, line int, store Store, rng RNG) (value.Value, error) {
	switch {
	case p.Number != nil:
		n, err := parseIntLiteral(*p.Number, line)
		if err != nil {
			return value.Value{}, err
		}
		return value.Int(n), nil

	case p.Str != nil:
		return value.Str(strLiteral(*p.Str)), nil

	case p.Var != nil:
		name := varName(*p.Var)
		v, ok := store.Get(name)
		if !ok {
			return value.Value{}, werr.WithName(werr.UndefinedVar, line, name, "undefined variable")
		}
		return v, nil

	case p.Rng != nil:
		minV, err := evalPrimary(p.Rng.Min, line, store, rng)
		if err != nil {
			return value.Value{}, err
		}
		maxV, err := evalPrimary(p.Rng.Max, line, store, rng)
		if err != nil {
			return value.Value{}, err
		}
		lo, ok1 := minV.AsInt()
		hi, ok2 := maxV.AsInt()
		if !ok1 || !ok2 {
			return value.Value{}, werr.New(werr.TypeError, line, "rng bounds must be integers")
		}
		if lo > hi {
			return value.Value{}, werr.New(werr.RangeError, line, "rng min %d > max %d", lo, hi)
		}
		return value.Int(rng.Intn(lo, hi)), nil

	case p.Sub != nil:
		return evalComparison(p.Sub, line, store, rng)
	}
	return value.Value{}, werr.New(werr.SyntaxError, line, "empty expression term")
}

func kindName(v value.Value) string {
	if v.IsInt() {
		return "integer"
	}
	return "string"
}

// IsConstant reports whether c contains no variable reference and no rng
// call — such an expression can be constant-folded (spec §4.5 pass 5).
func IsConstant(c *Comparison) bool {
	return comparisonConstant(c)
}

func comparisonConstant(c *Comparison) bool {
	if !additiveConstant(c.Left) {
		return false
	}
	for _, rhs := range c.Ops {
		if !additiveConstant(rhs.Right) {
			return false
		}
	}
	return true
}

func additiveConstant(a *Additive) bool {
	if !multiplicativeConstant(a.Left) {
		return false
	}
	for _, rhs := range a.Ops {
		if !multiplicativeConstant(rhs.Right) {
			return false
		}
	}
	return true
}

func multiplicativeConstant(m *Multiplicative) bool {
	if !primaryConstant(m.Left) {
		return false
	}
	for _, rhs := range m.Ops {
		if !primaryConstant(rhs.Right) {
			return false
		}
	}
	return true
}

func primaryConstant(p *Primary) bool {
	switch {
	case p.Var != nil, p.Rng != nil:
		return false
	case p.Sub != nil:
		return comparisonConstant(p.Sub)
	default:
		return true
	}
}

// emptyStore is a Store with no bindings, used by the minifier's constant
// folder: IsConstant already guarantees no Get call will occur, but a
// Store value is still required by Eval's signature.
type emptyStore struct{}

func (emptyStore) Get(string) (value.Value, bool) { return value.Value{}, false }

// EmptyStore returns a Store with no bindings.
func EmptyStore() Store { return emptyStore{} }
