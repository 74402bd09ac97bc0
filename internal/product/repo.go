package product

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the read-only persistence boundary for products. The
// catalog owns products; the engine only consumes them.
type Repository interface {
	// Get retrieves a product by id
	Get(ctx context.Context, id uuid.UUID) (Product, error)

	// List retrieves all products
	List(ctx context.Context) ([]Product, error)
}
