package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtier-app/premiumservice/internal/catalog"
	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/metrics"
)

// Store is the PostgreSQL implementation of catalog.Repository
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a catalog store on an existing pool
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	return &Store{db: pool}, nil
}

func (s *Store) Get(ctx context.Context, code string) (catalog.Variable, error) {
	defer observe("variable_get", time.Now())

	row := s.db.QueryRow(ctx, `
		SELECT code, label, type, options, category, is_active, created_at, updated_at
		FROM variables WHERE code = $1`, code)

	v, err := scanVariable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Variable{}, domain.NewNotFoundError("variable", code)
		}
		return catalog.Variable{}, fmt.Errorf("failed to get variable: %w", err)
	}
	return v, nil
}

func (s *Store) List(ctx context.Context, category string) ([]catalog.Variable, error) {
	defer observe("variable_list", time.Now())

	query := `
		SELECT code, label, type, options, category, is_active, created_at, updated_at
		FROM variables`
	args := []interface{}{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY code`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list variables: %w", err)
	}
	defer rows.Close()

	var out []catalog.Variable
	for rows.Next() {
		v, err := scanVariable(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan variable: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) Insert(ctx context.Context, v catalog.Variable) (catalog.Variable, error) {
	defer observe("variable_insert", time.Now())

	row := s.db.QueryRow(ctx, `
		INSERT INTO variables (code, label, type, options, category, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING code, label, type, options, category, is_active, created_at, updated_at`,
		v.Code, v.Label, string(v.Type), v.Options, v.Category, v.IsActive)

	created, err := scanVariable(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return catalog.Variable{}, domain.NewAlreadyExistsError("variable", v.Code)
		}
		return catalog.Variable{}, fmt.Errorf("failed to insert variable: %w", err)
	}
	return created, nil
}

func (s *Store) Update(ctx context.Context, v catalog.Variable) (catalog.Variable, error) {
	defer observe("variable_update", time.Now())

	row := s.db.QueryRow(ctx, `
		UPDATE variables
		SET label = $2, options = $3, category = $4, is_active = $5, updated_at = now()
		WHERE code = $1
		RETURNING code, label, type, options, category, is_active, created_at, updated_at`,
		v.Code, v.Label, v.Options, v.Category, v.IsActive)

	updated, err := scanVariable(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.Variable{}, domain.NewNotFoundError("variable", v.Code)
		}
		return catalog.Variable{}, fmt.Errorf("failed to update variable: %w", err)
	}
	return updated, nil
}

func scanVariable(row pgx.Row) (catalog.Variable, error) {
	var v catalog.Variable
	var typ string
	if err := row.Scan(&v.Code, &v.Label, &typ, &v.Options, &v.Category, &v.IsActive, &v.CreatedAt, &v.UpdatedAt); err != nil {
		return catalog.Variable{}, err
	}
	v.Type = catalog.VariableType(typ)
	return v, nil
}

func observe(operation string, start time.Time) {
	metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
