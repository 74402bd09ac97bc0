package rules

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleType is the rule family a definition belongs to
type RuleType string

const (
	TypeVie    RuleType = "vie"
	TypeNonVie RuleType = "non-vie"
)

// AppliesTo tags what a formula computes
type AppliesTo string

const (
	AppliesToBase        AppliesTo = "base"
	AppliesToCoefficient AppliesTo = "coefficient"
	AppliesToTax         AppliesTo = "tax"
	AppliesToFee         AppliesTo = "fee"
)

// Basis selects what a tax or fee is computed from: the subtotal after
// the coverage and profile stages, or the cumulative running premium
// including tax/fee lines already applied.
type Basis string

const (
	BasisSubtotal Basis = "subtotal"
	BasisPremium  Basis = "premium"
)

// Parameter is a catalog variable reference scoped to one rule
// definition, optionally with a default value.
type Parameter struct {
	Code     string `json:"code"`
	Label    string `json:"label"`
	Default  string `json:"default,omitempty"`
	Required bool   `json:"required"`
}

// Formula is a named expression evaluated under the rule's parameters.
type Formula struct {
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Expression string    `json:"expression"`
	AppliesTo  AppliesTo `json:"applies_to"`
}

// Tax is a configured tax entry. Exactly one of Rate and Amount is set:
// Rate is a fraction of the basis (0.18 for 18%), Amount a flat charge.
// Inactive entries are skipped by the engine but retained for audit
// history.
type Tax struct {
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	IsActive bool            `json:"is_active"`
	Basis    Basis           `json:"basis"`
}

// Fee is a configured fee entry with the same shape as Tax.
type Fee struct {
	Name     string          `json:"name"`
	Rate     decimal.Decimal `json:"rate"`
	Amount   decimal.Decimal `json:"amount"`
	IsActive bool            `json:"is_active"`
	Basis    Basis           `json:"basis"`
}

// RuleDefinition is a named bundle of parameters, formulas, taxes and
// fees used to price a category of products. There is no immutable
// version history; definitions referenced by a live product link are
// deactivated, never deleted.
type RuleDefinition struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Type               RuleType    `json:"type"`
	UsageCategory      string      `json:"usage_category"`
	UsageCategoryLabel string      `json:"usage_category_label"`
	Parameters         []Parameter `json:"parameters"`
	Formulas           []Formula   `json:"formulas"`
	Taxes              []Tax       `json:"taxes"`
	Fees               []Fee       `json:"fees"`
	BaseFormula        string      `json:"base_formula"`
	IsActive           bool        `json:"is_active"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

// ParameterCodes returns the set of declared parameter codes.
func (r RuleDefinition) ParameterCodes() map[string]struct{} {
	codes := make(map[string]struct{}, len(r.Parameters))
	for _, p := range r.Parameters {
		codes[p.Code] = struct{}{}
	}
	return codes
}

// ActiveTaxes returns the active tax entries in declaration order.
func (r RuleDefinition) ActiveTaxes() []Tax {
	out := make([]Tax, 0, len(r.Taxes))
	for _, t := range r.Taxes {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}

// ActiveFees returns the active fee entries in declaration order.
func (r RuleDefinition) ActiveFees() []Fee {
	out := make([]Fee, 0, len(r.Fees))
	for _, f := range r.Fees {
		if f.IsActive {
			out = append(out, f)
		}
	}
	return out
}
