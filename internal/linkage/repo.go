package linkage

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for product-rule links. Every
// mutation is guarded by a per-product version token: a write whose
// expected version is stale fails with ErrVersionConflict instead of
// interleaving with a concurrent mutation.
type Repository interface {
	// Get retrieves a link by id
	Get(ctx context.Context, id uuid.UUID) (Link, error)

	// ListByProduct returns the product's links and its current version token
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]Link, int64, error)

	// Primary returns the product's primary link, if any
	Primary(ctx context.Context, productID uuid.UUID) (Link, bool, error)

	// Insert creates a link, guarded by the product's version token
	Insert(ctx context.Context, l Link, expectedVersion int64) (Link, error)

	// SwapPrimary atomically demotes the current primary (if any) and
	// promotes the target link, guarded by the version token
	SwapPrimary(ctx context.Context, productID, linkID uuid.UUID, expectedVersion int64) error

	// Delete removes a link, guarded by the version token
	Delete(ctx context.Context, id uuid.UUID, expectedVersion int64) error
}
