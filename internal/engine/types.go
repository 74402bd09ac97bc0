package engine

import (
	"github.com/shopspring/decimal"

	"github.com/courtier-app/premiumservice/internal/product"
	"github.com/courtier-app/premiumservice/internal/rules"
)

// RiskProfile carries optional caller-supplied attributes. Every field
// is independently optional; an absent field simply skips the
// corresponding adjustment.
type RiskProfile struct {
	Age               *int             `json:"age,omitempty"`
	DrivingExperience *int             `json:"driving_experience,omitempty"`
	Location          *string          `json:"location,omitempty"`
	FamilySize        *int             `json:"family_size,omitempty"`
	PropertyValue     *decimal.Decimal `json:"property_value,omitempty"`
	HealthHistory     *string          `json:"health_history,omitempty"`
}

// AdjustmentLine is one labeled amount in the breakdown.
type AdjustmentLine struct {
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// ProfileLine records one applied risk adjustment with enough detail to
// reconstruct the percentage and its order of application.
type ProfileLine struct {
	Factor      string          `json:"factor"`
	Percentage  decimal.Decimal `json:"percentage"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
}

// PremiumBreakdown is the itemized result of one calculation. It is
// returned to the caller and never persisted.
type PremiumBreakdown struct {
	BasePremium         decimal.Decimal  `json:"base_premium"`
	CoverageAdjustments []AdjustmentLine `json:"coverage_adjustments"`
	ProfileAdjustments  []ProfileLine    `json:"profile_adjustments"`
	TaxFeeAdjustments   []AdjustmentLine `json:"tax_fee_adjustments"`
	Subtotal            decimal.Decimal  `json:"subtotal"`
	MonthlyPremium      decimal.Decimal  `json:"monthly_premium"`
	AnnualPremium       decimal.Decimal  `json:"annual_premium"`
	// Clamped is set when cumulative negative adjustments would have
	// driven the premium below zero and it was floored instead.
	Clamped bool `json:"clamped,omitempty"`
}

// Input is everything one calculation needs. Rule may be nil when the
// product has no linked rule definition; the tax/fee stage is then
// skipped.
type Input struct {
	Product           product.Product
	BasePremium       decimal.Decimal
	SelectedCoverages []string
	Profile           *RiskProfile
	Rule              *rules.RuleDefinition
}

// Options holds the configured thresholds of the profile stage.
type Options struct {
	HighRiskLocations          map[string]struct{}
	HighPropertyValueThreshold decimal.Decimal
}

// NewOptions builds Options from configuration values.
func NewOptions(highRiskLocations []string, highPropertyValueThreshold int64) Options {
	set := make(map[string]struct{}, len(highRiskLocations))
	for _, loc := range highRiskLocations {
		set[loc] = struct{}{}
	}
	return Options{
		HighRiskLocations:          set,
		HighPropertyValueThreshold: decimal.NewFromInt(highPropertyValueThreshold),
	}
}
