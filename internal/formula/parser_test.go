package formula

import (
	"reflect"
	"testing"
)

func TestParse_Errors(t *testing.T) {
	cases := []struct {
		expr string
	}{
		{""},
		{"1 +"},
		{"(1 + 2"},
		{"1 ++ 2"},
		{"1 = 2"},
		{"1 ! 2"},
		{"1.2.3"},
		{"foo("},
		{"sqrt(4)"},          // not on the whitelist
		{"min(1)"},           // wrong arity
		{"round(1, 2)"},      // wrong arity
		{"a > b"},            // bare comparison is not a numeric formula
		{"a > b ? 1"},        // missing ':'
		{"a ? 1 : 2"},        // condition must be a comparison
		{"2 @ 3"},            // unknown character
		{"min(1, 2, 3)"},     // too many args
		{"a > b ? 1 : "},     // missing else branch
		{"(a < b ? 1 : 2))"}, // unbalanced
	}

	for _, tc := range cases {
		_, err := Parse(tc.expr)
		if err == nil {
			t.Errorf("Parse(%q) should fail", tc.expr)
			continue
		}
		if _, ok := err.(*ParseError); !ok {
			t.Errorf("Parse(%q): expected *ParseError, got %T: %v", tc.expr, err, err)
		}
	}
}

func TestParseError_Position(t *testing.T) {
	_, err := Parse("1 + $")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Pos != 4 {
		t.Errorf("expected position 4, got %d", pe.Pos)
	}
}

func TestParsed_Variables(t *testing.T) {
	parsed, err := Parse("age < 25 ? prime_base * coef_jeune : prime_base")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"age", "coef_jeune", "prime_base"}
	if got := parsed.Variables(); !reflect.DeepEqual(got, want) {
		t.Errorf("Variables() = %v, want %v", got, want)
	}
}

func TestParsed_ReusableAcrossEvaluations(t *testing.T) {
	parsed, err := Parse("base * 2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := int64(1); i <= 3; i++ {
		got, err := parsed.Eval(Bindings{"base": NumberFromInt(i)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.Equal(NumberFromInt(i * 2).Decimal()) {
			t.Errorf("Eval with base=%d = %s, want %d", i, got, i*2)
		}
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&ParseError{}, "parse"},
		{&UnknownVariableError{}, "unknown_variable"},
		{&DivisionByZeroError{}, "division_by_zero"},
		{&TypeMismatchError{}, "type_mismatch"},
	}
	for _, tc := range cases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Errorf("ErrorKind(%T) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
