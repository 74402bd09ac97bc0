package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// profileRule is one entry of the ordered risk adjustment table. Match
// returns the percentage to apply (as a signed percent, +15 for +15%)
// and a human-readable description, or ok=false when the rule does not
// apply to the given profile.
type profileRule struct {
	Factor string
	Match  func(p RiskProfile, opts Options) (percent decimal.Decimal, description string, ok bool)
}

func pct(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// profileRules is the fixed, ordered sequence of percentage
// adjustments. Keeping it as a data table rather than inline control
// flow makes the sequence and thresholds reviewable and testable. Each
// rule compounds on the running premium, not on the original base.
var profileRules = []profileRule{
	{
		Factor: "age",
		// Ordered if/else chain: first match wins, the bands are
		// mutually exclusive by construction.
		Match: func(p RiskProfile, _ Options) (decimal.Decimal, string, bool) {
			if p.Age == nil {
				return decimal.Decimal{}, "", false
			}
			age := *p.Age
			switch {
			case age < 25:
				return pct(15), fmt.Sprintf("Conducteur de moins de 25 ans (%d ans)", age), true
			case age >= 30 && age <= 50:
				return pct(-5), fmt.Sprintf("Conducteur entre 30 et 50 ans (%d ans)", age), true
			case age > 60:
				return pct(8), fmt.Sprintf("Conducteur de plus de 60 ans (%d ans)", age), true
			default:
				return decimal.Decimal{}, "", false
			}
		},
	},
	{
		Factor: "driving_experience",
		Match: func(p RiskProfile, _ Options) (decimal.Decimal, string, bool) {
			if p.DrivingExperience == nil {
				return decimal.Decimal{}, "", false
			}
			exp := *p.DrivingExperience
			switch {
			case exp >= 10:
				return pct(-10), fmt.Sprintf("Experience de conduite de %d ans", exp), true
			case exp < 3:
				return pct(12), fmt.Sprintf("Conducteur novice (%d ans d'experience)", exp), true
			default:
				return decimal.Decimal{}, "", false
			}
		},
	},
	{
		Factor: "location",
		Match: func(p RiskProfile, opts Options) (decimal.Decimal, string, bool) {
			if p.Location == nil {
				return decimal.Decimal{}, "", false
			}
			loc := *p.Location
			if _, high := opts.HighRiskLocations[loc]; high {
				return pct(8), fmt.Sprintf("Zone a risque eleve (%s)", loc), true
			}
			return pct(-5), fmt.Sprintf("Zone a risque standard (%s)", loc), true
		},
	},
	{
		Factor: "family_size",
		Match: func(p RiskProfile, _ Options) (decimal.Decimal, string, bool) {
			if p.FamilySize == nil || *p.FamilySize <= 4 {
				return decimal.Decimal{}, "", false
			}
			return pct(-7), fmt.Sprintf("Famille nombreuse (%d personnes)", *p.FamilySize), true
		},
	},
	{
		Factor: "property_value",
		Match: func(p RiskProfile, opts Options) (decimal.Decimal, string, bool) {
			if p.PropertyValue == nil || !p.PropertyValue.GreaterThan(opts.HighPropertyValueThreshold) {
				return decimal.Decimal{}, "", false
			}
			return pct(15), "Bien immobilier de grande valeur", true
		},
	},
	{
		Factor: "health_history",
		Match: func(p RiskProfile, _ Options) (decimal.Decimal, string, bool) {
			if p.HealthHistory == nil || *p.HealthHistory != "excellent" {
				return decimal.Decimal{}, "", false
			}
			return pct(-10), "Excellent historique de sante", true
		},
	},
}

var oneHundred = decimal.NewFromInt(100)

// profileStage applies the ordered adjustment table to the running
// premium. Each applied rule computes its amount against the premium as
// already adjusted by the preceding rules, then adds it: later
// percentages compound. The running premium never goes negative; if an
// adjustment would push it below zero it is floored and the clamped
// flag is reported.
func profileStage(profile *RiskProfile, running decimal.Decimal, opts Options) ([]ProfileLine, decimal.Decimal, bool) {
	lines := []ProfileLine{}
	clamped := false
	if profile == nil {
		return lines, running, false
	}

	for _, rule := range profileRules {
		percent, description, ok := rule.Match(*profile, opts)
		if !ok {
			continue
		}
		amount := running.Mul(percent).Div(oneHundred)
		running = running.Add(amount)
		if running.IsNegative() {
			// Floor at zero; the shortfall stays visible in the line
			// amounts so the audit trail remains reconstructable.
			running = decimal.Zero
			clamped = true
		}
		lines = append(lines, ProfileLine{
			Factor:      rule.Factor,
			Percentage:  percent,
			Amount:      amount,
			Description: description,
		})
	}
	return lines, running, clamped
}
