// Package engine implements the premium calculation pipeline: coverage
// adjustments, ordered profile risk adjustments, taxes and fees from
// the product's primary rule definition, and the final breakdown
// composition. A calculation is a pure function of its inputs with no
// shared mutable state, so concurrent calculations need no
// synchronization.
package engine

import (
	"github.com/shopspring/decimal"
)

var twelve = decimal.NewFromInt(12)

// Calculate runs the full pipeline and composes the breakdown.
//
// The monthly premium is the rounded sum of the base premium and every
// adjustment line in application order. The annual premium is computed
// from the unrounded monthly value before that rounding, so the twelve
// month multiplication does not compound a rounding error.
func Calculate(input Input, opts Options) (PremiumBreakdown, error) {
	running := input.BasePremium

	coverageLines, coverageTotal, err := coverageStage(input.Product, input.SelectedCoverages)
	if err != nil {
		return PremiumBreakdown{}, err
	}
	running = running.Add(coverageTotal)

	profileLines, running, clamped := profileStage(input.Profile, running, opts)

	// Subtotal: premium after coverage and profile stages, before any
	// tax or fee.
	subtotal := running
	if subtotal.IsNegative() {
		subtotal = decimal.Zero
		clamped = true
	}

	taxFeeLines, running := taxFeeStage(input.Rule, subtotal)

	monthlyExact := running
	if monthlyExact.IsNegative() {
		monthlyExact = decimal.Zero
		clamped = true
	}

	return PremiumBreakdown{
		BasePremium:         input.BasePremium,
		CoverageAdjustments: coverageLines,
		ProfileAdjustments:  profileLines,
		TaxFeeAdjustments:   taxFeeLines,
		Subtotal:            subtotal,
		MonthlyPremium:      monthlyExact.Round(0),
		AnnualPremium:       monthlyExact.Mul(twelve).Round(0),
		Clamped:             clamped,
	}, nil
}
