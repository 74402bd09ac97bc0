package catalog

import "context"

// Repository is the persistence boundary for the variable catalog.
// There is no Delete: a code is never hard-deleted once referenced, so
// historical quotes stay replayable. Deactivation goes through Update.
type Repository interface {
	// Get retrieves a variable by code
	Get(ctx context.Context, code string) (Variable, error)

	// List retrieves variables, optionally filtered by category
	List(ctx context.Context, category string) ([]Variable, error)

	// Insert creates a new variable
	Insert(ctx context.Context, v Variable) (Variable, error)

	// Update saves the mutable fields of an existing variable
	Update(ctx context.Context, v Variable) (Variable, error)
}
