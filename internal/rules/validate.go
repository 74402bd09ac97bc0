package rules

import (
	"fmt"

	"github.com/courtier-app/premiumservice/internal/catalog"
	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/formula"
)

// Validate checks a rule definition at save time: structural fields,
// formula syntax, and that every variable referenced by a formula is
// declared in the rule's own parameter list. The same check runs
// defensively when a rule is loaded, since the configuration may have
// been written by a separate admin process.
func (r RuleDefinition) Validate() error {
	if r.Name == "" {
		return domain.NewInvalidInputError("rule name is required", "")
	}
	if r.Type != TypeVie && r.Type != TypeNonVie {
		return domain.NewInvalidInputError("rule type must be vie or non-vie", string(r.Type))
	}
	if r.UsageCategory == "" {
		return domain.NewInvalidInputError("usage category is required", "rule: "+r.Name)
	}

	declared := make(map[string]struct{}, len(r.Parameters))
	for _, p := range r.Parameters {
		code := catalog.NormalizeCode(p.Code)
		if code == "" {
			return domain.NewInvalidInputError("parameter code is required", "rule: "+r.Name)
		}
		if code != p.Code {
			return domain.NewInvalidInputError("parameter code is not normalized", "code: "+p.Code)
		}
		if _, dup := declared[code]; dup {
			return domain.NewInvalidInputError("duplicate parameter code", "code: "+code)
		}
		declared[code] = struct{}{}
	}

	if r.BaseFormula != "" {
		if err := checkFormula("base_formula", r.BaseFormula, declared); err != nil {
			return err
		}
	}

	formulaCodes := make(map[string]struct{}, len(r.Formulas))
	for _, f := range r.Formulas {
		if f.Code == "" {
			return domain.NewInvalidInputError("formula code is required", "rule: "+r.Name)
		}
		if _, dup := formulaCodes[f.Code]; dup {
			return domain.NewInvalidInputError("duplicate formula code", "code: "+f.Code)
		}
		formulaCodes[f.Code] = struct{}{}

		switch f.AppliesTo {
		case AppliesToBase, AppliesToCoefficient, AppliesToTax, AppliesToFee:
		default:
			return domain.NewInvalidInputError("formula applies_to is invalid", fmt.Sprintf("formula %s: %q", f.Code, f.AppliesTo))
		}

		if err := checkFormula(f.Code, f.Expression, declared); err != nil {
			return err
		}
	}

	for _, t := range r.Taxes {
		if err := checkLevy("tax", t.Name, t.Rate.IsZero(), t.Amount.IsZero(), t.Rate.IsNegative() || t.Amount.IsNegative(), t.Basis); err != nil {
			return err
		}
	}
	for _, f := range r.Fees {
		if err := checkLevy("fee", f.Name, f.Rate.IsZero(), f.Amount.IsZero(), f.Rate.IsNegative() || f.Amount.IsNegative(), f.Basis); err != nil {
			return err
		}
	}

	return nil
}

func checkFormula(code, expression string, declared map[string]struct{}) error {
	parsed, err := formula.Parse(expression)
	if err != nil {
		return domain.NewInvalidInputError(
			fmt.Sprintf("formula %s does not parse", code),
			err.Error())
	}
	for _, ref := range parsed.Variables() {
		if _, ok := declared[ref]; !ok {
			return domain.NewInvalidInputError(
				fmt.Sprintf("formula %s references undeclared parameter", code),
				"code: "+ref)
		}
	}
	return nil
}

func checkLevy(kind, name string, rateZero, amountZero, negative bool, basis Basis) error {
	if name == "" {
		return domain.NewInvalidInputError(kind+" name is required", "")
	}
	if rateZero == amountZero {
		return domain.NewInvalidInputError(
			fmt.Sprintf("%s %s must set exactly one of rate and amount", kind, name), "")
	}
	if negative {
		return domain.NewInvalidInputError(
			fmt.Sprintf("%s %s must not be negative", kind, name), "")
	}
	switch basis {
	case BasisSubtotal, BasisPremium:
		return nil
	default:
		return domain.NewInvalidInputError(
			fmt.Sprintf("%s %s has invalid basis", kind, name), string(basis))
	}
}
