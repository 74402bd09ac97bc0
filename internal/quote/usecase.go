// Package quote composes the full premium calculation: it resolves the
// product, its primary rule definition, the typed parameter bindings
// from the variable catalog, evaluates the rule's formulas and runs the
// breakdown engine over the result.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/courtier-app/premiumservice/internal/catalog"
	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/engine"
	"github.com/courtier-app/premiumservice/internal/formula"
	"github.com/courtier-app/premiumservice/internal/linkage"
	"github.com/courtier-app/premiumservice/internal/metrics"
	"github.com/courtier-app/premiumservice/internal/product"
	"github.com/courtier-app/premiumservice/internal/rules"
	"github.com/courtier-app/premiumservice/internal/shared/cache"
	"github.com/courtier-app/premiumservice/internal/shared/log"
)

// Request is one calculation request. BasePremium overrides the rule's
// base formula and the product's configured base when non-zero.
// Parameters carries raw values for the rule's declared parameters,
// keyed by catalog variable code.
type Request struct {
	ProductID         uuid.UUID           `json:"product_id"`
	BasePremium       decimal.Decimal     `json:"base_premium"`
	SelectedCoverages []string            `json:"selected_coverages"`
	Profile           *engine.RiskProfile `json:"risk_profile"`
	Parameters        map[string]string   `json:"parameters"`
}

// Quote is the calculation result returned to the caller. Nothing here
// is persisted; replaying the same request yields the same quote.
type Quote struct {
	ProductID   uuid.UUID               `json:"product_id"`
	ProductName string                  `json:"product_name"`
	RuleID      *uuid.UUID              `json:"rule_id,omitempty"`
	RuleName    string                  `json:"rule_name,omitempty"`
	Breakdown   engine.PremiumBreakdown `json:"breakdown"`
}

// Service wires the collaborating stores together.
type Service struct {
	products product.Repository
	links    *linkage.Service
	rules    *rules.Service
	catalog  *catalog.Service
	cache    *cache.Cache
	cacheTTL time.Duration
	opts     engine.Options
}

// NewService creates a quote service. The cache may be nil.
func NewService(
	products product.Repository,
	links *linkage.Service,
	ruleSvc *rules.Service,
	catalogSvc *catalog.Service,
	c *cache.Cache,
	cacheTTL time.Duration,
	opts engine.Options,
) *Service {
	return &Service{
		products: products,
		links:    links,
		rules:    ruleSvc,
		catalog:  catalogSvc,
		cache:    c,
		cacheTTL: cacheTTL,
		opts:     opts,
	}
}

// Calculate prices one request end to end.
func (s *Service) Calculate(ctx context.Context, req Request) (Quote, error) {
	start := time.Now()
	ctx = log.WithProductID(ctx, req.ProductID.String())

	q, err := s.calculate(ctx, req)
	if err != nil {
		metrics.RecordCalculation("error", time.Since(start))
		return Quote{}, err
	}

	metrics.RecordCalculation("success", time.Since(start))
	metrics.MonthlyPremiumAmount.Observe(q.Breakdown.MonthlyPremium.InexactFloat64())

	log.Info(ctx, "Premium calculated",
		zap.String("monthly_premium", q.Breakdown.MonthlyPremium.String()),
		zap.String("annual_premium", q.Breakdown.AnnualPremium.String()),
		zap.Bool("clamped", q.Breakdown.Clamped))
	return q, nil
}

func (s *Service) calculate(ctx context.Context, req Request) (Quote, error) {
	if req.BasePremium.IsNegative() {
		return Quote{}, domain.NewInvalidInputError("base premium cannot be negative", "")
	}

	prod, err := s.getProduct(ctx, req.ProductID)
	if err != nil {
		return Quote{}, err
	}

	rule, err := s.primaryRule(ctx, req.ProductID)
	if err != nil {
		return Quote{}, err
	}

	var bindings formula.Bindings
	if rule != nil {
		ctx = log.WithRuleID(ctx, rule.ID.String())
		bindings, err = s.buildBindings(ctx, rule, req.Parameters)
		if err != nil {
			return Quote{}, err
		}
	}

	base, err := s.resolveBase(req, prod, rule, bindings)
	if err != nil {
		return Quote{}, err
	}

	effective, base, err := applyFormulas(rule, bindings, base)
	if err != nil {
		return Quote{}, err
	}

	breakdown, err := engine.Calculate(engine.Input{
		Product:           prod,
		BasePremium:       base,
		SelectedCoverages: req.SelectedCoverages,
		Profile:           req.Profile,
		Rule:              effective,
	}, s.opts)
	if err != nil {
		return Quote{}, err
	}

	q := Quote{
		ProductID:   prod.ID,
		ProductName: prod.Name,
		Breakdown:   breakdown,
	}
	if rule != nil {
		id := rule.ID
		q.RuleID = &id
		q.RuleName = rule.Name
	}
	return q, nil
}

func (s *Service) getProduct(ctx context.Context, id uuid.UUID) (product.Product, error) {
	if s.cache != nil {
		var cached product.Product
		err := s.cache.Get(ctx, cache.ProductKey(id.String()), &cached)
		if err == nil {
			metrics.CacheHit.WithLabelValues("product").Inc()
			return cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			log.Warn(ctx, "Product cache read failed", zap.Error(err))
		}
		metrics.CacheMiss.WithLabelValues("product").Inc()
	}

	prod, err := s.products.Get(ctx, id)
	if err != nil {
		return product.Product{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.ProductKey(id.String()), prod, s.cacheTTL); err != nil {
			log.Warn(ctx, "Product cache write failed", zap.Error(err))
		}
	}
	return prod, nil
}

// primaryRule resolves the product's primary rule definition. A product
// without links is priced from its configured base with no tax or fee
// stage; a primary link pointing at a deactivated rule is a
// configuration fault and fails the request.
func (s *Service) primaryRule(ctx context.Context, productID uuid.UUID) (*rules.RuleDefinition, error) {
	link, ok, err := s.links.Primary(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	rule, err := s.rules.Get(ctx, link.RuleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load primary rule: %w", err)
	}
	if !rule.IsActive {
		return nil, domain.NewInvalidStateError("primary rule is deactivated", rule.ID.String())
	}
	return &rule, nil
}

// buildBindings turns raw request parameters into typed formula values.
// Each rule parameter is typed by its catalog variable; defaults fill
// absent values, and an absent required parameter fails the request.
func (s *Service) buildBindings(ctx context.Context, rule *rules.RuleDefinition, params map[string]string) (formula.Bindings, error) {
	bindings := make(formula.Bindings, len(rule.Parameters))

	for _, p := range rule.Parameters {
		raw, supplied := params[p.Code]
		if !supplied {
			if p.Default != "" {
				raw = p.Default
			} else if p.Required {
				return nil, domain.NewInvalidInputError("missing required parameter", p.Code)
			} else {
				continue
			}
		}

		v, err := s.catalog.Get(ctx, p.Code)
		if err != nil {
			if domain.HasCode(err, domain.ErrCodeNotFound) {
				return nil, domain.NewInvalidStateError("rule references unknown catalog variable", p.Code)
			}
			return nil, err
		}
		if !v.IsActive {
			return nil, domain.NewInvalidStateError("rule references deactivated catalog variable", p.Code)
		}

		value, err := v.BindValue(raw)
		if err != nil {
			return nil, err
		}
		bindings[p.Code] = value
	}
	return bindings, nil
}

// resolveBase picks the base premium source in priority order: caller
// override, the rule's base formula, then the product's configured base.
func (s *Service) resolveBase(req Request, prod product.Product, rule *rules.RuleDefinition, bindings formula.Bindings) (decimal.Decimal, error) {
	if req.BasePremium.IsPositive() {
		return req.BasePremium, nil
	}
	if rule != nil {
		if rule.BaseFormula != "" {
			return evalFormula("base", rule.BaseFormula, bindings)
		}
		for _, f := range rule.Formulas {
			if f.AppliesTo == rules.AppliesToBase {
				return evalFormula(f.Code, f.Expression, bindings)
			}
		}
	}
	if prod.BasePremium.IsPositive() {
		return prod.BasePremium, nil
	}
	return decimal.Zero, domain.NewNoPrimaryRuleError(prod.ID.String())
}

// applyFormulas evaluates the rule's tagged formulas: coefficients
// scale the base, tax and fee formulas become flat entries appended
// after the configured ones. Returns the effective rule the engine sees
// and the adjusted base.
func applyFormulas(rule *rules.RuleDefinition, bindings formula.Bindings, base decimal.Decimal) (*rules.RuleDefinition, decimal.Decimal, error) {
	if rule == nil {
		return nil, base, nil
	}

	effective := *rule
	effective.Taxes = append([]rules.Tax(nil), rule.Taxes...)
	effective.Fees = append([]rules.Fee(nil), rule.Fees...)

	for _, f := range rule.Formulas {
		switch f.AppliesTo {
		case rules.AppliesToBase:
			// The dedicated BaseFormula field wins; base-tagged
			// formulas only apply when it is empty.
			continue
		case rules.AppliesToCoefficient:
			coeff, err := evalFormula(f.Code, f.Expression, bindings)
			if err != nil {
				return nil, decimal.Zero, err
			}
			base = base.Mul(coeff)
		case rules.AppliesToTax:
			amount, err := evalFormula(f.Code, f.Expression, bindings)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if amount.IsZero() {
				continue
			}
			effective.Taxes = append(effective.Taxes, rules.Tax{
				Name:     f.Name,
				Amount:   amount,
				IsActive: true,
				Basis:    rules.BasisSubtotal,
			})
		case rules.AppliesToFee:
			amount, err := evalFormula(f.Code, f.Expression, bindings)
			if err != nil {
				return nil, decimal.Zero, err
			}
			if amount.IsZero() {
				continue
			}
			effective.Fees = append(effective.Fees, rules.Fee{
				Name:     f.Name,
				Amount:   amount,
				IsActive: true,
				Basis:    rules.BasisSubtotal,
			})
		}
	}
	return &effective, base, nil
}

func evalFormula(code, expression string, bindings formula.Bindings) (decimal.Decimal, error) {
	result, err := formula.Evaluate(expression, bindings)
	if err != nil {
		metrics.FormulaEvalErrors.WithLabelValues(formula.ErrorKind(err)).Inc()
		return decimal.Zero, domain.NewFormulaEvalError(code, err)
	}
	return result, nil
}
