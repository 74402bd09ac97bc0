package engine

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/product"
	"github.com/courtier-app/premiumservice/internal/rules"
)

func testOptions() Options {
	return NewOptions([]string{"Abidjan", "Bouake"}, 50_000_000)
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestCalculate_EndToEndScenario(t *testing.T) {
	p := product.Product{
		ID:          uuid.New(),
		Name:        "Auto Particulier",
		BasePremium: decimal.NewFromInt(50000),
		Coverages: map[string]product.Coverage{
			"responsabilite_civile": {Included: true, Optional: false, PriceModifier: decimal.NewFromInt(5000), Description: "Responsabilite civile"},
			"bris_de_glace":         {Included: false, Optional: true, PriceModifier: decimal.NewFromInt(2000), Description: "Bris de glace"},
		},
	}

	breakdown, err := Calculate(Input{
		Product:           p,
		BasePremium:       decimal.NewFromInt(50000),
		SelectedCoverages: []string{"bris_de_glace"},
		Profile: &RiskProfile{
			Age:               intPtr(35),
			DrivingExperience: intPtr(12),
			Location:          strPtr("Abidjan"),
		},
	}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 57000 * 0.95 = 54150 -> * 0.90 = 48735 -> * 1.08 = 52633.8
	if got := breakdown.MonthlyPremium.String(); got != "52634" {
		t.Errorf("monthly premium = %s, want 52634", got)
	}
	if got := breakdown.AnnualPremium.String(); got != "631606" {
		t.Errorf("annual premium = %s, want 631606", got)
	}
	if len(breakdown.CoverageAdjustments) != 2 {
		t.Errorf("expected 2 coverage lines, got %d", len(breakdown.CoverageAdjustments))
	}
	if len(breakdown.ProfileAdjustments) != 3 {
		t.Fatalf("expected 3 profile lines, got %d", len(breakdown.ProfileAdjustments))
	}
	// order of application must be reconstructable from the lines
	wantOrder := []string{"age", "driving_experience", "location"}
	for i, line := range breakdown.ProfileAdjustments {
		if line.Factor != wantOrder[i] {
			t.Errorf("profile line %d factor = %s, want %s", i, line.Factor, wantOrder[i])
		}
	}
	if breakdown.Clamped {
		t.Error("breakdown should not be clamped")
	}
}

func TestCalculate_ProfileCompoundingOrder(t *testing.T) {
	p := product.Product{ID: uuid.New(), Coverages: map[string]product.Coverage{}}

	breakdown, err := Calculate(Input{
		Product:     p,
		BasePremium: decimal.NewFromInt(100000),
		Profile: &RiskProfile{
			Age:               intPtr(22),
			DrivingExperience: intPtr(1),
		},
	}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 100000 * 1.15 * 1.12 = 128800, not 100000 * 1.27 = 127000
	if got := breakdown.MonthlyPremium.String(); got != "128800" {
		t.Errorf("monthly premium = %s, want 128800 (compounding, not flat summation)", got)
	}
}

func TestCalculate_CoverageAdditivity(t *testing.T) {
	p := product.Product{
		ID:          uuid.New(),
		BasePremium: decimal.NewFromInt(30000),
		Coverages: map[string]product.Coverage{
			"vol": {Included: false, Optional: true, PriceModifier: decimal.NewFromInt(1000), Description: "Vol"},
		},
	}

	with, err := Calculate(Input{Product: p, BasePremium: p.BasePremium, SelectedCoverages: []string{"vol"}}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	without, err := Calculate(Input{Product: p, BasePremium: p.BasePremium}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	diff := with.MonthlyPremium.Sub(without.MonthlyPremium)
	if !diff.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("removing the optional coverage changed the premium by %s, want exactly 1000", diff)
	}
}

func TestCalculate_UnknownCoverageKeyRejected(t *testing.T) {
	p := product.Product{
		ID:          uuid.New(),
		BasePremium: decimal.NewFromInt(30000),
		Coverages:   map[string]product.Coverage{},
	}

	_, err := Calculate(Input{Product: p, BasePremium: p.BasePremium, SelectedCoverages: []string{"inexistante"}}, testOptions())
	if !domain.HasCode(err, domain.ErrCodeUnknownCoverageKey) {
		t.Fatalf("expected UNKNOWN_COVERAGE_KEY, got %v", err)
	}
}

func TestCalculate_MandatoryCoverageAlwaysContributes(t *testing.T) {
	p := product.Product{
		ID:          uuid.New(),
		BasePremium: decimal.NewFromInt(10000),
		Coverages: map[string]product.Coverage{
			"rc":     {Included: true, Optional: false, PriceModifier: decimal.NewFromInt(500)},
			"option": {Included: true, Optional: true, PriceModifier: decimal.NewFromInt(300)},
		},
	}

	// nothing selected: only the mandatory coverage contributes
	breakdown, err := Calculate(Input{Product: p, BasePremium: p.BasePremium}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := breakdown.MonthlyPremium.String(); got != "10500" {
		t.Errorf("monthly premium = %s, want 10500", got)
	}
	if len(breakdown.CoverageAdjustments) != 1 {
		t.Fatalf("expected 1 coverage line, got %d", len(breakdown.CoverageAdjustments))
	}
	// label falls back to the key when there is no description
	if breakdown.CoverageAdjustments[0].Label != "rc" {
		t.Errorf("label = %q, want key fallback 'rc'", breakdown.CoverageAdjustments[0].Label)
	}
}

func TestCalculate_NonNegativityClamp(t *testing.T) {
	p := product.Product{
		ID:          uuid.New(),
		BasePremium: decimal.NewFromInt(1000),
		Coverages: map[string]product.Coverage{
			"remise_flotte": {Included: true, Optional: false, PriceModifier: decimal.NewFromInt(-5000), Description: "Remise flotte"},
		},
	}

	breakdown, err := Calculate(Input{Product: p, BasePremium: p.BasePremium}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if breakdown.MonthlyPremium.IsNegative() {
		t.Errorf("monthly premium went negative: %s", breakdown.MonthlyPremium)
	}
	if !breakdown.MonthlyPremium.IsZero() {
		t.Errorf("monthly premium = %s, want 0", breakdown.MonthlyPremium)
	}
	if !breakdown.Clamped {
		t.Error("breakdown must be flagged when floored at zero")
	}
}

func TestCalculate_AnnualFromUnroundedMonthly(t *testing.T) {
	p := product.Product{ID: uuid.New(), Coverages: map[string]product.Coverage{}}

	breakdown, err := Calculate(Input{
		Product:     p,
		BasePremium: decimal.RequireFromString("10000.4"),
	}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// monthly rounds down to 10000 but annual comes from the unrounded
	// 10000.4 * 12 = 120004.8 -> 120005, not 10000 * 12 = 120000.
	if got := breakdown.MonthlyPremium.String(); got != "10000" {
		t.Errorf("monthly premium = %s, want 10000", got)
	}
	if got := breakdown.AnnualPremium.String(); got != "120005" {
		t.Errorf("annual premium = %s, want 120005", got)
	}
}

func TestCalculate_Deterministic(t *testing.T) {
	p := product.Product{
		ID:          uuid.New(),
		BasePremium: decimal.NewFromInt(50000),
		Coverages: map[string]product.Coverage{
			"a": {Included: true, PriceModifier: decimal.NewFromInt(100)},
			"b": {Included: true, PriceModifier: decimal.NewFromInt(200)},
			"c": {Included: true, PriceModifier: decimal.NewFromInt(300)},
		},
	}
	input := Input{
		Product:     p,
		BasePremium: p.BasePremium,
		Profile:     &RiskProfile{Age: intPtr(40), Location: strPtr("Yamoussoukro")},
	}

	first, err := Calculate(input, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstJSON, _ := json.Marshal(first)

	for i := 0; i < 50; i++ {
		again, err := Calculate(input, testOptions())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		againJSON, _ := json.Marshal(again)
		if string(firstJSON) != string(againJSON) {
			t.Fatalf("breakdown not byte-identical across evaluations:\n%s\n%s", firstJSON, againJSON)
		}
	}
}

func TestCalculate_ProfileFieldsIndependentlyOptional(t *testing.T) {
	p := product.Product{ID: uuid.New(), BasePremium: decimal.NewFromInt(10000), Coverages: map[string]product.Coverage{}}

	// only location present: exactly one adjustment line
	breakdown, err := Calculate(Input{
		Product:     p,
		BasePremium: p.BasePremium,
		Profile:     &RiskProfile{Location: strPtr("Korhogo")},
	}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(breakdown.ProfileAdjustments) != 1 {
		t.Fatalf("expected 1 profile line, got %d", len(breakdown.ProfileAdjustments))
	}
	line := breakdown.ProfileAdjustments[0]
	if line.Factor != "location" {
		t.Errorf("factor = %s, want location", line.Factor)
	}
	// location present but not high-risk: -5%
	if !line.Percentage.Equal(decimal.NewFromInt(-5)) {
		t.Errorf("percentage = %s, want -5", line.Percentage)
	}

	// no profile at all: no lines, no adjustment
	breakdown, err = Calculate(Input{Product: p, BasePremium: p.BasePremium}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(breakdown.ProfileAdjustments) != 0 {
		t.Errorf("expected no profile lines, got %d", len(breakdown.ProfileAdjustments))
	}
	if got := breakdown.MonthlyPremium.String(); got != "10000" {
		t.Errorf("monthly premium = %s, want 10000", got)
	}
}

func TestCalculate_TaxFeeStage(t *testing.T) {
	p := product.Product{ID: uuid.New(), BasePremium: decimal.NewFromInt(100000), Coverages: map[string]product.Coverage{}}

	rule := &rules.RuleDefinition{
		ID:            uuid.New(),
		Name:          "Auto",
		Type:          rules.TypeNonVie,
		UsageCategory: "auto_particulier",
		Taxes: []rules.Tax{
			{Name: "Taxe assurance 10%", Rate: decimal.NewFromFloat(0.10), IsActive: true, Basis: rules.BasisSubtotal},
			{Name: "Taxe inactive", Rate: decimal.NewFromFloat(0.99), IsActive: false, Basis: rules.BasisSubtotal},
		},
		Fees: []rules.Fee{
			// computed on the cumulative premium, so it sees the tax line
			{Name: "Frais 1%", Rate: decimal.NewFromFloat(0.01), IsActive: true, Basis: rules.BasisPremium},
			{Name: "Frais fixes", Amount: decimal.NewFromInt(500), IsActive: true, Basis: rules.BasisSubtotal},
		},
	}

	breakdown, err := Calculate(Input{Product: p, BasePremium: p.BasePremium, Rule: rule}, testOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// subtotal 100000; tax 10% -> 10000; fee 1% of 110000 -> 1100; flat 500
	if got := breakdown.Subtotal.String(); got != "100000" {
		t.Errorf("subtotal = %s, want 100000", got)
	}
	if len(breakdown.TaxFeeAdjustments) != 3 {
		t.Fatalf("expected 3 tax/fee lines (inactive skipped), got %d", len(breakdown.TaxFeeAdjustments))
	}
	if got := breakdown.TaxFeeAdjustments[1].Amount.String(); got != "1100" {
		t.Errorf("premium-basis fee = %s, want 1100", got)
	}
	if got := breakdown.MonthlyPremium.String(); got != "111600" {
		t.Errorf("monthly premium = %s, want 111600", got)
	}
}
