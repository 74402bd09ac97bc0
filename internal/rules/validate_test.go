package rules

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/courtier-app/premiumservice/internal/domain"
)

func validRule() RuleDefinition {
	return RuleDefinition{
		Name:               "Auto particulier",
		Type:               TypeNonVie,
		UsageCategory:      "auto_particulier",
		UsageCategoryLabel: "Auto particulier",
		Parameters: []Parameter{
			{Code: "prime_base", Label: "Prime de base", Required: true},
			{Code: "puissance", Label: "Puissance fiscale", Default: "7"},
		},
		Formulas: []Formula{
			{Code: "coef_puissance", Name: "Coefficient puissance", Expression: "puissance > 10 ? 1.2 : 1.0", AppliesTo: AppliesToCoefficient},
		},
		BaseFormula: "prime_base * (puissance > 10 ? 1.2 : 1.0)",
		Taxes: []Tax{
			{Name: "Taxe assurance", Rate: decimal.NewFromFloat(0.145), IsActive: true, Basis: BasisSubtotal},
		},
		Fees: []Fee{
			{Name: "Frais de dossier", Amount: decimal.NewFromInt(5000), IsActive: true, Basis: BasisPremium},
		},
	}
}

func TestRuleDefinition_Validate_OK(t *testing.T) {
	if err := validRule().Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
}

func TestRuleDefinition_Validate_FormulaMustParse(t *testing.T) {
	r := validRule()
	r.Formulas[0].Expression = "puissance > ? 1.2 : 1.0"
	err := r.Validate()
	if !domain.HasCode(err, domain.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for malformed formula, got %v", err)
	}
}

func TestRuleDefinition_Validate_UndeclaredParameter(t *testing.T) {
	r := validRule()
	r.BaseFormula = "prime_base * coef_inconnu"
	err := r.Validate()
	if !domain.HasCode(err, domain.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for undeclared parameter, got %v", err)
	}
}

func TestRuleDefinition_Validate_DuplicateParameter(t *testing.T) {
	r := validRule()
	r.Parameters = append(r.Parameters, Parameter{Code: "prime_base"})
	if err := r.Validate(); err == nil {
		t.Fatal("duplicate parameter code should be rejected")
	}
}

func TestRuleDefinition_Validate_Levies(t *testing.T) {
	r := validRule()
	r.Taxes = []Tax{{Name: "t", IsActive: true, Basis: BasisSubtotal}}
	if err := r.Validate(); err == nil {
		t.Error("tax with neither rate nor amount should be rejected")
	}

	r = validRule()
	r.Taxes = []Tax{{Name: "t", Rate: decimal.NewFromFloat(0.1), Amount: decimal.NewFromInt(100), IsActive: true, Basis: BasisSubtotal}}
	if err := r.Validate(); err == nil {
		t.Error("tax with both rate and amount should be rejected")
	}

	r = validRule()
	r.Fees = []Fee{{Name: "f", Amount: decimal.NewFromInt(100), IsActive: true, Basis: Basis("total")}}
	if err := r.Validate(); err == nil {
		t.Error("invalid basis should be rejected")
	}

	r = validRule()
	r.Taxes = []Tax{{Name: "t", Rate: decimal.NewFromFloat(-0.1), IsActive: true, Basis: BasisSubtotal}}
	if err := r.Validate(); err == nil {
		t.Error("negative rate should be rejected")
	}
}

func TestRuleDefinition_Validate_BadType(t *testing.T) {
	r := validRule()
	r.Type = RuleType("sante")
	if err := r.Validate(); err == nil {
		t.Fatal("unknown rule type should be rejected")
	}
}

func TestRuleDefinition_ActiveLevies(t *testing.T) {
	r := validRule()
	r.Taxes = append(r.Taxes, Tax{Name: "Suspendue", Rate: decimal.NewFromFloat(0.02), IsActive: false, Basis: BasisSubtotal})

	active := r.ActiveTaxes()
	if len(active) != 1 {
		t.Fatalf("expected 1 active tax, got %d", len(active))
	}
	if active[0].Name != "Taxe assurance" {
		t.Errorf("unexpected active tax %q", active[0].Name)
	}
	// inactive entries are retained on the definition for audit history
	if len(r.Taxes) != 2 {
		t.Errorf("inactive tax must stay on the definition, got %d entries", len(r.Taxes))
	}
}
