package core

import (
	"cmp"
	"math"
	"reflect"
	"strings"
)

// =============================================================================
// Arithmetic
// =============================================================================

// Arith applies one of + - * / % to two numeric operands.
//
// Two integers produce an integer, except for a division with a remainder
// which produces a float. Any float operand promotes the result to float.
func Arith(op string, l, r Value) (Value, error) {
	li, lInt := l.(IntValue)
	ri, rInt := r.(IntValue)
	if lInt && rInt {
		return intArith(op, li, ri)
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, NewContextError(ErrUnsupportedType, op,
			"unsupported operand types '%s' and '%s' for operator '%s'", l.Kind(), r.Kind(), op)
	}

	switch op {
	case "+":
		return FloatValue(lf + rf), nil
	case "-":
		return FloatValue(lf - rf), nil
	case "*":
		return FloatValue(lf * rf), nil
	case "/":
		if rf == 0 {
			return nil, divisionByZero(op)
		}
		return FloatValue(lf / rf), nil
	case "%":
		if rf == 0 {
			return nil, divisionByZero(op)
		}
		return FloatValue(math.Mod(lf, rf)), nil
	}
	return nil, NewContextError(ErrUnsupportedType, op, "unknown arithmetic operator '%s'", op)
}

func intArith(op string, l, r IntValue) (Value, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return nil, divisionByZero(op)
		}
		if l%r != 0 {
			return FloatValue(float64(l) / float64(r)), nil
		}
		return l / r, nil
	case "%":
		if r == 0 {
			return nil, divisionByZero(op)
		}
		return l % r, nil
	}
	return nil, NewContextError(ErrUnsupportedType, op, "unknown arithmetic operator '%s'", op)
}

func divisionByZero(op string) error {
	return NewContextError(ErrDivisionByZero, op, "division by zero in operator '%s'", op)
}

func toFloat(v Value) (float64, bool) {
	switch x := v.(type) {
	case IntValue:
		return float64(x), true
	case FloatValue:
		return float64(x), true
	}
	return 0, false
}

// Negate applies unary minus.
func Negate(v Value) (Value, error) {
	switch x := v.(type) {
	case IntValue:
		return -x, nil
	case FloatValue:
		return -x, nil
	}
	return nil, NewContextError(ErrUnsupportedType, "-",
		"unsupported operand type '%s' for unary operator '-'", v.Kind())
}

// =============================================================================
// Comparison
// =============================================================================

// Equal reports value equality. Integers and floats compare numerically,
// lists and maps compare element-wise, values of different kinds are
// unequal.
func Equal(a, b Value) bool {
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}

	switch x := a.(type) {
	case NullValue:
		return b.Kind() == KindNull
	case BoolValue:
		y, ok := b.(BoolValue)
		return ok && x == y
	case StringValue:
		y, ok := b.(StringValue)
		return ok && x == y
	case ListValue:
		y, ok := b.(ListValue)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case MapValue:
		y, ok := b.(MapValue)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	case ObjectValue:
		y, ok := b.(ObjectValue)
		return ok && reflect.DeepEqual(x.Interface(), y.Interface())
	}
	return false
}

// Compare orders two numbers or two strings, returning -1, 0 or 1.
func Compare(op string, a, b Value) (int, error) {
	if ai, ok := a.(IntValue); ok {
		if bi, ok := b.(IntValue); ok {
			return cmp.Compare(ai, bi), nil
		}
	}
	if af, ok := toFloat(a); ok {
		if bf, ok := toFloat(b); ok {
			return cmp.Compare(af, bf), nil
		}
	}
	if as, ok := a.(StringValue); ok {
		if bs, ok := b.(StringValue); ok {
			return strings.Compare(string(as), string(bs)), nil
		}
	}
	return 0, NewContextError(ErrUnsupportedType, op,
		"cannot compare '%s' and '%s' with operator '%s'", a.Kind(), b.Kind(), op)
}

// =============================================================================
// Membership
// =============================================================================

// Contains implements the in operator: membership by value for lists and
// maps, substring search for strings.
func Contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case ListValue:
		for _, e := range c {
			if Equal(e, item) {
				return true, nil
			}
		}
		return false, nil
	case MapValue:
		for _, e := range c {
			if Equal(e, item) {
				return true, nil
			}
		}
		return false, nil
	case StringValue:
		return strings.Contains(string(c), item.String()), nil
	}
	return false, NewContextError(ErrUnsupportedType, "in",
		"unsupported type '%s' for operator 'in'", container.Kind())
}

// Iterate returns the elements a for loop visits: list elements in order,
// map values ordered by key, string characters. Null yields nothing.
func Iterate(v Value) ([]Value, error) {
	switch x := v.(type) {
	case ListValue:
		return x, nil
	case MapValue:
		return x.Values(), nil
	case StringValue:
		runes := []rune(string(x))
		out := make([]Value, len(runes))
		for i, r := range runes {
			out[i] = StringValue(string(r))
		}
		return out, nil
	case NullValue:
		return nil, nil
	}
	return nil, NewContextError(ErrNotIterable, v.Kind().String(),
		"value of type '%s' is not iterable", v.Kind())
}
