package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Coverage is a benefit attached to a product. Included non-optional
// coverages are mandatory and always priced in; optional ones
// contribute only when the caller selects them.
type Coverage struct {
	Included      bool            `json:"included"`
	Optional      bool            `json:"optional"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	Limit         decimal.Decimal `json:"limit"`
	Description   string          `json:"description"`
}

// Product is the engine's read model of a catalog product.
type Product struct {
	ID          uuid.UUID           `json:"id"`
	Name        string              `json:"name"`
	BasePremium decimal.Decimal     `json:"base_premium"`
	Coverages   map[string]Coverage `json:"coverages"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}
