package rules

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the persistence boundary for rule definitions.
type Repository interface {
	// Get retrieves a rule definition by id
	Get(ctx context.Context, id uuid.UUID) (RuleDefinition, error)

	// List retrieves rule definitions, optionally filtered by usage category
	List(ctx context.Context, usageCategory string) ([]RuleDefinition, error)

	// Insert creates a new rule definition
	Insert(ctx context.Context, r RuleDefinition) (RuleDefinition, error)

	// Update saves an existing rule definition
	Update(ctx context.Context, r RuleDefinition) (RuleDefinition, error)
}
