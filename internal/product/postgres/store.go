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
	"github.com/courtier-app/premiumservice/internal/product"
)

// Store is the PostgreSQL implementation of product.Repository. The
// coverage map lives in a JSONB column.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a product store on an existing pool
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	return &Store{db: pool}, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (product.Product, error) {
	defer observe("product_get", time.Now())

	row := s.db.QueryRow(ctx, `
		SELECT id, name, base_premium, coverages, created_at, updated_at
		FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return product.Product{}, domain.NewNotFoundError("product", id.String())
		}
		return product.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

func (s *Store) List(ctx context.Context) ([]product.Product, error) {
	defer observe("product_list", time.Now())

	rows, err := s.db.Query(ctx, `
		SELECT id, name, base_premium, coverages, created_at, updated_at
		FROM products ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	var coverages []byte

	// decimal.Decimal implements sql.Scanner, which pgx falls back to
	// for the numeric base_premium column.
	if err := row.Scan(&p.ID, &p.Name, &p.BasePremium, &coverages, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return product.Product{}, err
	}

	if err := json.Unmarshal(coverages, &p.Coverages); err != nil {
		return product.Product{}, fmt.Errorf("malformed coverages column: %w", err)
	}
	return p, nil
}

func observe(operation string, start time.Time) {
	metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
