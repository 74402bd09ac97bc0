package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courtier-app/premiumservice/internal/linkage"
)

// LinkageHandler exposes product-rule links.
type LinkageHandler struct {
	svc *linkage.Service
}

func NewLinkageHandler(svc *linkage.Service) *LinkageHandler {
	return &LinkageHandler{svc: svc}
}

type linkRequest struct {
	RuleID uuid.UUID `json:"calc_rule_id" binding:"required"`
}

// POST /v1/products/:id/links
func (h *LinkageHandler) Link(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid product id")
		return
	}

	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	l, err := h.svc.Link(c.Request.Context(), productID, req.RuleID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

// GET /v1/products/:id/links
func (h *LinkageHandler) List(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid product id")
		return
	}

	links, err := h.svc.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"links": links})
}

// PUT /v1/links/:id/primary
func (h *LinkageHandler) SetPrimary(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid link id")
		return
	}

	if err := h.svc.SetPrimary(c.Request.Context(), linkID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DELETE /v1/links/:id
func (h *LinkageHandler) Unlink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid link id")
		return
	}

	if err := h.svc.Unlink(c.Request.Context(), linkID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
