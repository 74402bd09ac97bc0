package formula

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestEvaluate_Arithmetic(t *testing.T) {
	bindings := Bindings{
		"base":   NumberFromInt(1000),
		"coef":   NumberFromFloat(1.5),
		"seats":  NumberFromInt(4),
		"rebate": NumberFromInt(50),
	}

	cases := []struct {
		expr string
		want string
	}{
		{"2 + 3 * 4", "14"},
		{"(2 + 3) * 4", "20"},
		{"base * coef", "1500"},
		{"base - rebate * 2", "900"},
		{"base / seats", "250"},
		{"-rebate + 100", "50"},
		{"10 / 4", "2.5"},
		{"0.5 * base", "500"},
		{"min(base, 800)", "800"},
		{"max(base, 800)", "1000"},
		{"round(10.4)", "10"},
		{"round(10.5)", "11"},
		{"seats > 2 ? base * 1.1 : base", "1100"},
		{"seats < 2 ? base * 1.1 : base", "1000"},
		{"seats == 4 ? 1 : 0", "1"},
		{"seats != 4 ? 1 : 0", "0"},
		{"seats >= 4 ? 1 : 0", "1"},
		{"seats <= 3 ? 1 : 0", "0"},
		{"seats > 2 ? (seats > 3 ? 2 : 1) : 0", "2"},
	}

	for _, tc := range cases {
		got, err := Evaluate(tc.expr, bindings)
		if err != nil {
			t.Errorf("Evaluate(%q) returned error: %v", tc.expr, err)
			continue
		}
		want, _ := decimal.NewFromString(tc.want)
		if !got.Equal(want) {
			t.Errorf("Evaluate(%q) = %s, want %s", tc.expr, got, tc.want)
		}
	}
}

func TestEvaluate_UnknownVariable(t *testing.T) {
	_, err := Evaluate("base * taux", Bindings{"base": NumberFromInt(10)})
	if err == nil {
		t.Fatal("expected error for unknown variable")
	}
	uv, ok := err.(*UnknownVariableError)
	if !ok {
		t.Fatalf("expected UnknownVariableError, got %T: %v", err, err)
	}
	if uv.Code != "taux" {
		t.Errorf("expected code 'taux', got %q", uv.Code)
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	bindings := Bindings{"n": NumberFromInt(0)}
	_, err := Evaluate("100 / n", bindings)
	if _, ok := err.(*DivisionByZeroError); !ok {
		t.Fatalf("expected DivisionByZeroError, got %T: %v", err, err)
	}
}

func TestEvaluate_TypeMismatch(t *testing.T) {
	bindings := Bindings{
		"zone": Text("abidjan"),
		"base": NumberFromInt(100),
	}
	_, err := Evaluate("base * zone", bindings)
	tm, ok := err.(*TypeMismatchError)
	if !ok {
		t.Fatalf("expected TypeMismatchError, got %T: %v", err, err)
	}
	if tm.Code != "zone" {
		t.Errorf("expected code 'zone', got %q", tm.Code)
	}
}

func TestEvaluate_NoSilentZeroOnError(t *testing.T) {
	// An error must be terminal for the formula, never a partial result.
	bindings := Bindings{"a": NumberFromInt(5)}
	got, err := Evaluate("a + missing", bindings)
	if err == nil {
		t.Fatalf("expected error, got result %s", got)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	bindings := Bindings{
		"prime": NumberFromFloat(52633.8),
		"coef":  NumberFromFloat(1.08),
	}
	first, err := Evaluate("prime * coef / 12", bindings)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		got, err := Evaluate("prime * coef / 12", bindings)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.String() != first.String() {
			t.Fatalf("evaluation not deterministic: %s vs %s", got, first)
		}
	}
}

func TestEvaluate_DivisionPrecision(t *testing.T) {
	// 1/3 is kept at fixed intermediate scale, not truncated to zero.
	got, err := Evaluate("1 / 3 * 3", Bindings{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := decimal.NewFromInt(1)
	if got.Sub(want).Abs().GreaterThan(decimal.New(1, -9)) {
		t.Errorf("1/3*3 = %s, want ~1", got)
	}
}
