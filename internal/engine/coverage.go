package engine

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/product"
)

// coverageStage walks the product's coverages and sums the price
// modifiers of mandatory coverages plus the caller's selections. The
// selection must be a subset of the product's coverage keys; an unknown
// key is an error, never silently ignored. Pure function of its inputs.
func coverageStage(p product.Product, selected []string) ([]AdjustmentLine, decimal.Decimal, error) {
	selectedSet := make(map[string]struct{}, len(selected))
	for _, key := range selected {
		if _, ok := p.Coverages[key]; !ok {
			return nil, decimal.Decimal{}, domain.NewUnknownCoverageKeyError(key)
		}
		selectedSet[key] = struct{}{}
	}

	// Deterministic order: coverage map keys sorted.
	keys := make([]string, 0, len(p.Coverages))
	for key := range p.Coverages {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]AdjustmentLine, 0, len(keys))
	total := decimal.Zero
	for _, key := range keys {
		cov := p.Coverages[key]
		mandatory := cov.Included && !cov.Optional
		_, picked := selectedSet[key]
		if !mandatory && !picked {
			continue
		}
		if cov.PriceModifier.IsZero() {
			continue
		}
		label := cov.Description
		if label == "" {
			label = key
		}
		lines = append(lines, AdjustmentLine{Label: label, Amount: cov.PriceModifier})
		total = total.Add(cov.PriceModifier)
	}
	return lines, total, nil
}
