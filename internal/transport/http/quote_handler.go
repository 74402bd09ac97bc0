package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courtier-app/premiumservice/internal/product"
	"github.com/courtier-app/premiumservice/internal/quote"
)

// QuoteHandler exposes the calculation endpoint and the product read
// model it prices against.
type QuoteHandler struct {
	quotes   *quote.Service
	products product.Repository
}

func NewQuoteHandler(quotes *quote.Service, products product.Repository) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, products: products}
}

// POST /v1/quotes/calculate
func (h *QuoteHandler) Calculate(c *gin.Context) {
	var req quote.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if req.ProductID == uuid.Nil {
		respondBadRequest(c, "product_id is required")
		return
	}

	q, err := h.quotes.Calculate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// GET /v1/products/:id
func (h *QuoteHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid product id")
		return
	}
	p, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /v1/products
func (h *QuoteHandler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}
