// Package linkage maintains the many-to-many association between
// products and calculation rule definitions. At most one link per
// product is primary; the primary designation moves between links in a
// single atomic transition, never through an observable
// demote-then-promote window.
package linkage

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrVersionConflict is returned by repositories when the per-product
// version token moved between read and write. Callers retry a bounded
// number of times before surfacing a conflict to the client.
var ErrVersionConflict = errors.New("link version conflict")

// Link associates one calculation rule with one product.
type Link struct {
	ID        uuid.UUID `json:"id"`
	ProductID uuid.UUID `json:"product_id"`
	RuleID    uuid.UUID `json:"calc_rule_id"`
	IsPrimary bool      `json:"is_primary"`
	CreatedAt time.Time `json:"created_at"`
}
