package formula

import (
	"time"

	"github.com/shopspring/decimal"
)

// ValueKind discriminates the types a bound variable may carry.
type ValueKind string

const (
	KindNumber  ValueKind = "number"
	KindText    ValueKind = "text"
	KindBool    ValueKind = "boolean"
	KindDate    ValueKind = "date"
	KindInvalid ValueKind = "invalid"
)

// Value is a typed variable binding. Only numbers participate in
// arithmetic; anything else surfaces as a TypeMismatchError instead of
// being silently coerced.
type Value struct {
	kind ValueKind
	num  decimal.Decimal
	str  string
	b    bool
	t    time.Time
}

// Number creates a numeric value.
func Number(d decimal.Decimal) Value {
	return Value{kind: KindNumber, num: d}
}

// NumberFromInt creates a numeric value from an int64.
func NumberFromInt(n int64) Value {
	return Value{kind: KindNumber, num: decimal.NewFromInt(n)}
}

// NumberFromFloat creates a numeric value from a float64.
func NumberFromFloat(f float64) Value {
	return Value{kind: KindNumber, num: decimal.NewFromFloat(f)}
}

// Text creates a text value (also used for select options).
func Text(s string) Value {
	return Value{kind: KindText, str: s}
}

// Bool creates a boolean value.
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Date creates a date value.
func Date(t time.Time) Value {
	return Value{kind: KindDate, t: t}
}

// Kind returns the value's kind.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Decimal returns the numeric payload; valid only when Kind is number.
func (v Value) Decimal() decimal.Decimal {
	return v.num
}

// Bindings maps variable codes to their bound values.
type Bindings map[string]Value

// number resolves a binding to its decimal, with the typed failures the
// evaluator propagates.
func (b Bindings) number(code string) (decimal.Decimal, error) {
	v, ok := b[code]
	if !ok {
		return decimal.Decimal{}, &UnknownVariableError{Code: code}
	}
	if v.kind != KindNumber {
		return decimal.Decimal{}, &TypeMismatchError{Code: code, Kind: string(v.kind)}
	}
	return v.num, nil
}
