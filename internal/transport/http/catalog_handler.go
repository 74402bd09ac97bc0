package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/courtier-app/premiumservice/internal/catalog"
)

// CatalogHandler exposes the variable catalog.
type CatalogHandler struct {
	svc *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{svc: svc}
}

type createVariableRequest struct {
	Code     string   `json:"code" binding:"required"`
	Label    string   `json:"label" binding:"required"`
	Type     string   `json:"type" binding:"required"`
	Options  []string `json:"options"`
	Category string   `json:"category"`
}

// POST /v1/variables
func (h *CatalogHandler) Create(c *gin.Context) {
	var req createVariableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	v, err := h.svc.Create(c.Request.Context(), catalog.Variable{
		Code:     req.Code,
		Label:    req.Label,
		Type:     catalog.VariableType(req.Type),
		Options:  req.Options,
		Category: req.Category,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

// PATCH /v1/variables/:code
func (h *CatalogHandler) Update(c *gin.Context) {
	var patch catalog.VariablePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	v, err := h.svc.Update(c.Request.Context(), c.Param("code"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// DELETE /v1/variables/:code deactivates; variables are never removed.
func (h *CatalogHandler) Deactivate(c *gin.Context) {
	if err := h.svc.Deactivate(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/variables/:code
func (h *CatalogHandler) Get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// GET /v1/variables?category=
func (h *CatalogHandler) List(c *gin.Context) {
	vars, err := h.svc.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variables": vars})
}
