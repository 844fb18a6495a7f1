package model

import (
	"fmt"
	"strconv"
)

// Value is a sealed interface over the scalar types a state variable may
// hold. Only String, Number, and Bool implement it. Structured values are
// deliberately excluded: a world variable is a scalar, and keeping the set
// closed makes equality, hashing, and CUE/YAML coercion total.
type Value interface {
	value() // Sealed - only these types implement it

	// Equal reports whether the receiver equals another Value.
	Equal(Value) bool
}

// String is a string-valued state variable.
type String string

func (String) value() {}

// Equal implements Value.
func (s String) Equal(other Value) bool {
	o, ok := other.(String)
	return ok && s == o
}

// Number is a numeric state variable. Stored as float64; integral values
// render without a fractional part so fingerprints stay stable across
// int/float authoring styles.
type Number float64

func (Number) value() {}

// Equal implements Value.
func (n Number) Equal(other Value) bool {
	o, ok := other.(Number)
	return ok && n == o
}

// Bool is a boolean state variable.
type Bool bool

func (Bool) value() {}

// Equal implements Value.
func (b Bool) Equal(other Value) bool {
	o, ok := other.(Bool)
	return ok && b == o
}

// ValueOf coerces a plain Go scalar into a Value. Used at load boundaries
// (YAML problems, CUE catalogs). Returns an error for anything non-scalar;
// nil is rejected rather than mapped to a null variant.
func ValueOf(v any) (Value, error) {
	switch val := v.(type) {
	case Value:
		return val, nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case float64:
		return Number(val), nil
	default:
		return nil, fmt.Errorf("unsupported state value type %T (want string, bool, or number)", v)
	}
}

// Render returns the human-readable form of a Value.
func Render(v Value) string {
	switch val := v.(type) {
	case String:
		return string(val)
	case Number:
		return strconv.FormatFloat(float64(val), 'g', -1, 64)
	case Bool:
		return strconv.FormatBool(bool(val))
	default:
		return fmt.Sprintf("%v", v)
	}
}
