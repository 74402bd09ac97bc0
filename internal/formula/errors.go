package formula

import "fmt"

// ParseError reports malformed syntax with the byte offset it was found at.
type ParseError struct {
	Pos    int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at position %d: %s", e.Pos, e.Reason)
}

// UnknownVariableError reports a variable code absent from the bindings.
type UnknownVariableError struct {
	Code string
}

func (e *UnknownVariableError) Error() string {
	return fmt.Sprintf("unknown variable %q", e.Code)
}

// DivisionByZeroError reports a division whose divisor evaluated to zero.
type DivisionByZeroError struct{}

func (e *DivisionByZeroError) Error() string {
	return "division by zero"
}

// TypeMismatchError reports a non-numeric value used arithmetically.
type TypeMismatchError struct {
	Code string
	Kind string
}

func (e *TypeMismatchError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("variable %q has non-numeric type %s", e.Code, e.Kind)
	}
	return fmt.Sprintf("non-numeric %s value used arithmetically", e.Kind)
}

// ErrorKind classifies an evaluation error for metrics labels.
func ErrorKind(err error) string {
	switch err.(type) {
	case *ParseError:
		return "parse"
	case *UnknownVariableError:
		return "unknown_variable"
	case *DivisionByZeroError:
		return "division_by_zero"
	case *TypeMismatchError:
		return "type_mismatch"
	default:
		return "other"
	}
}
