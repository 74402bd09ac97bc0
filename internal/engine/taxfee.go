package engine

import (
	"github.com/shopspring/decimal"

	"github.com/courtier-app/premiumservice/internal/rules"
)

// taxFeeStage applies the active taxes then the active fees of the
// linked rule definition, in declaration order, never re-sorted: rule
// authors control dependency chains, such as a fee computed on a
// subtotal that already includes one tax. Each entry draws from either
// the stage subtotal or the cumulative running premium, per its basis.
func taxFeeStage(rule *rules.RuleDefinition, subtotal decimal.Decimal) ([]AdjustmentLine, decimal.Decimal) {
	lines := []AdjustmentLine{}
	running := subtotal
	if rule == nil {
		return lines, running
	}

	apply := func(name string, rate, amount decimal.Decimal, basis rules.Basis) {
		base := subtotal
		if basis == rules.BasisPremium {
			base = running
		}
		contribution := amount
		if !rate.IsZero() {
			contribution = base.Mul(rate)
		}
		lines = append(lines, AdjustmentLine{Label: name, Amount: contribution})
		running = running.Add(contribution)
	}

	for _, tax := range rule.ActiveTaxes() {
		apply(tax.Name, tax.Rate, tax.Amount, tax.Basis)
	}
	for _, fee := range rule.ActiveFees() {
		apply(fee.Name, fee.Rate, fee.Amount, fee.Basis)
	}
	return lines, running
}
