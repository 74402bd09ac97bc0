package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/metrics"
	"github.com/courtier-app/premiumservice/internal/rules"
)

// Store is the PostgreSQL implementation of rules.Repository. The
// parameter, formula, tax and fee bundles live in JSONB columns and are
// decoded into typed structs at this boundary; malformed stored config
// is rejected here rather than deep inside evaluation.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a rules store on an existing pool
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	return &Store{db: pool}, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (rules.RuleDefinition, error) {
	defer observe("rule_get", time.Now())

	row := s.db.QueryRow(ctx, `
		SELECT id, name, type, usage_category, usage_category_label,
		       parameters, formulas, taxes, fees, base_formula, is_active,
		       created_at, updated_at
		FROM calculation_rules WHERE id = $1`, id)

	r, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rules.RuleDefinition{}, domain.NewNotFoundError("rule definition", id.String())
		}
		return rules.RuleDefinition{}, fmt.Errorf("failed to get rule definition: %w", err)
	}
	return r, nil
}

func (s *Store) List(ctx context.Context, usageCategory string) ([]rules.RuleDefinition, error) {
	defer observe("rule_list", time.Now())

	query := `
		SELECT id, name, type, usage_category, usage_category_label,
		       parameters, formulas, taxes, fees, base_formula, is_active,
		       created_at, updated_at
		FROM calculation_rules`
	args := []interface{}{}
	if usageCategory != "" {
		query += ` WHERE usage_category = $1`
		args = append(args, usageCategory)
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule definitions: %w", err)
	}
	defer rows.Close()

	var out []rules.RuleDefinition
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule definition: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, r rules.RuleDefinition) (rules.RuleDefinition, error) {
	defer observe("rule_insert", time.Now())

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	params, formulas, taxes, fees, err := encodeBundles(r)
	if err != nil {
		return rules.RuleDefinition{}, err
	}

	row := s.db.QueryRow(ctx, `
		INSERT INTO calculation_rules
			(id, name, type, usage_category, usage_category_label,
			 parameters, formulas, taxes, fees, base_formula, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, name, type, usage_category, usage_category_label,
		          parameters, formulas, taxes, fees, base_formula, is_active,
		          created_at, updated_at`,
		r.ID, r.Name, string(r.Type), r.UsageCategory, r.UsageCategoryLabel,
		params, formulas, taxes, fees, r.BaseFormula, r.IsActive)

	created, err := scanRule(row)
	if err != nil {
		return rules.RuleDefinition{}, fmt.Errorf("failed to insert rule definition: %w", err)
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, r rules.RuleDefinition) (rules.RuleDefinition, error) {
	defer observe("rule_update", time.Now())

	params, formulas, taxes, fees, err := encodeBundles(r)
	if err != nil {
		return rules.RuleDefinition{}, err
	}

	row := s.db.QueryRow(ctx, `
		UPDATE calculation_rules
		SET name = $2, type = $3, usage_category = $4, usage_category_label = $5,
		    parameters = $6, formulas = $7, taxes = $8, fees = $9,
		    base_formula = $10, is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING id, name, type, usage_category, usage_category_label,
		          parameters, formulas, taxes, fees, base_formula, is_active,
		          created_at, updated_at`,
		r.ID, r.Name, string(r.Type), r.UsageCategory, r.UsageCategoryLabel,
		params, formulas, taxes, fees, r.BaseFormula, r.IsActive)

	updated, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rules.RuleDefinition{}, domain.NewNotFoundError("rule definition", r.ID.String())
		}
		return rules.RuleDefinition{}, fmt.Errorf("failed to update rule definition: %w", err)
	}
	return updated, nil
}

func encodeBundles(r rules.RuleDefinition) (params, formulas, taxes, fees []byte, err error) {
	if params, err = json.Marshal(r.Parameters); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to encode parameters: %w", err)
	}
	if formulas, err = json.Marshal(r.Formulas); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to encode formulas: %w", err)
	}
	if taxes, err = json.Marshal(r.Taxes); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to encode taxes: %w", err)
	}
	if fees, err = json.Marshal(r.Fees); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to encode fees: %w", err)
	}
	return params, formulas, taxes, fees, nil
}

func scanRule(row pgx.Row) (rules.RuleDefinition, error) {
	var r rules.RuleDefinition
	var typ string
	var params, formulas, taxes, fees []byte

	if err := row.Scan(&r.ID, &r.Name, &typ, &r.UsageCategory, &r.UsageCategoryLabel,
		&params, &formulas, &taxes, &fees, &r.BaseFormula, &r.IsActive,
		&r.CreatedAt, &r.UpdatedAt); err != nil {
		return rules.RuleDefinition{}, err
	}
	r.Type = rules.RuleType(typ)

	if err := json.Unmarshal(params, &r.Parameters); err != nil {
		return rules.RuleDefinition{}, fmt.Errorf("malformed parameters column: %w", err)
	}
	if err := json.Unmarshal(formulas, &r.Formulas); err != nil {
		return rules.RuleDefinition{}, fmt.Errorf("malformed formulas column: %w", err)
	}
	if err := json.Unmarshal(taxes, &r.Taxes); err != nil {
		return rules.RuleDefinition{}, fmt.Errorf("malformed taxes column: %w", err)
	}
	if err := json.Unmarshal(fees, &r.Fees); err != nil {
		return rules.RuleDefinition{}, fmt.Errorf("malformed fees column: %w", err)
	}
	return r, nil
}

func observe(operation string, start time.Time) {
	metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
