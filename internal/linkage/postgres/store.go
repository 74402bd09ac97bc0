package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/courtier-app/premiumservice/internal/domain"
	"github.com/courtier-app/premiumservice/internal/linkage"
	"github.com/courtier-app/premiumservice/internal/metrics"
)

// Store is the PostgreSQL implementation of linkage.Repository. Each
// product has a row in link_versions holding its version token; every
// mutation runs in a transaction that bumps the token with a
// WHERE version = expected guard, so stale writers fail with
// linkage.ErrVersionConflict instead of interleaving.
type Store struct {
	db *pgxpool.Pool
}

// NewStore creates a linkage store on an existing pool
func NewStore(pool *pgxpool.Pool) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("database pool cannot be nil")
	}
	return &Store{db: pool}, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (linkage.Link, error) {
	defer observe("link_get", time.Now())

	row := s.db.QueryRow(ctx, `
		SELECT id, product_id, calc_rule_id, is_primary, created_at
		FROM product_rule_links WHERE id = $1`, id)

	l, err := scanLink(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return linkage.Link{}, domain.NewNotFoundError("link", id.String())
		}
		return linkage.Link{}, fmt.Errorf("failed to get link: %w", err)
	}
	return l, nil
}

func (s *Store) ListByProduct(ctx context.Context, productID uuid.UUID) ([]linkage.Link, int64, error) {
	defer observe("link_list", time.Now())

	var version int64
	err := s.db.QueryRow(ctx,
		`SELECT version FROM link_versions WHERE product_id = $1`, productID).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		version = 0
	} else if err != nil {
		return nil, 0, fmt.Errorf("failed to read link version: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT id, product_id, calc_rule_id, is_primary, created_at
		FROM product_rule_links WHERE product_id = $1
		ORDER BY created_at, id`, productID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	var out []linkage.Link
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan link: %w", err)
		}
		out = append(out, l)
	}
	return out, version, rows.Err()
}

func (s *Store) Primary(ctx context.Context, productID uuid.UUID) (linkage.Link, bool, error) {
	defer observe("link_primary", time.Now())

	row := s.db.QueryRow(ctx, `
		SELECT id, product_id, calc_rule_id, is_primary, created_at
		FROM product_rule_links WHERE product_id = $1 AND is_primary`, productID)

	l, err := scanLink(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return linkage.Link{}, false, nil
	}
	if err != nil {
		return linkage.Link{}, false, fmt.Errorf("failed to get primary link: %w", err)
	}
	return l, true, nil
}

func (s *Store) Insert(ctx context.Context, l linkage.Link, expectedVersion int64) (linkage.Link, error) {
	defer observe("link_insert", time.Now())

	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}

	var created linkage.Link
	err := s.withVersion(ctx, l.ProductID, expectedVersion, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO product_rule_links (id, product_id, calc_rule_id, is_primary)
			VALUES ($1, $2, $3, $4)
			RETURNING id, product_id, calc_rule_id, is_primary, created_at`,
			l.ID, l.ProductID, l.RuleID, l.IsPrimary)

		var err error
		created, err = scanLink(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return domain.NewAlreadyExistsError("link", l.RuleID.String())
			}
			return fmt.Errorf("failed to insert link: %w", err)
		}
		return nil
	})
	if err != nil {
		return linkage.Link{}, err
	}
	return created, nil
}

func (s *Store) SwapPrimary(ctx context.Context, productID, linkID uuid.UUID, expectedVersion int64) error {
	defer observe("link_swap_primary", time.Now())

	return s.withVersion(ctx, productID, expectedVersion, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			UPDATE product_rule_links SET is_primary = false
			WHERE product_id = $1 AND is_primary`, productID); err != nil {
			return fmt.Errorf("failed to demote primary link: %w", err)
		}
		tag, err := tx.Exec(ctx, `
			UPDATE product_rule_links SET is_primary = true
			WHERE id = $1 AND product_id = $2`, linkID, productID)
		if err != nil {
			return fmt.Errorf("failed to promote link: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFoundError("link", linkID.String())
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) error {
	defer observe("link_delete", time.Now())

	l, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.withVersion(ctx, l.ProductID, expectedVersion, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM product_rule_links WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete link: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.NewNotFoundError("link", id.String())
		}
		return nil
	})
}

// withVersion runs fn inside a transaction that first bumps the
// product's version token with an optimistic guard. The token row is
// created lazily on the product's first mutation.
func (s *Store) withVersion(ctx context.Context, productID uuid.UUID, expected int64, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var tag pgconn.CommandTag
	if expected == 0 {
		tag, err = tx.Exec(ctx, `
			INSERT INTO link_versions (product_id, version) VALUES ($1, 1)
			ON CONFLICT (product_id) DO NOTHING`, productID)
	} else {
		tag, err = tx.Exec(ctx, `
			UPDATE link_versions SET version = version + 1
			WHERE product_id = $1 AND version = $2`, productID, expected)
	}
	if err != nil {
		return fmt.Errorf("failed to advance link version: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return linkage.ErrVersionConflict
	}

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit link transaction: %w", err)
	}
	return nil
}

func scanLink(row pgx.Row) (linkage.Link, error) {
	var l linkage.Link
	if err := row.Scan(&l.ID, &l.ProductID, &l.RuleID, &l.IsPrimary, &l.CreatedAt); err != nil {
		return linkage.Link{}, err
	}
	return l, nil
}

func observe(operation string, start time.Time) {
	metrics.DatabaseQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
