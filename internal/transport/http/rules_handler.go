package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/courtier-app/premiumservice/internal/rules"
)

// RulesHandler exposes calculation rule definitions.
type RulesHandler struct {
	svc *rules.Service
}

func NewRulesHandler(svc *rules.Service) *RulesHandler {
	return &RulesHandler{svc: svc}
}

// POST /v1/rules
func (h *RulesHandler) Create(c *gin.Context) {
	var def rules.RuleDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	created, err := h.svc.Create(c.Request.Context(), def)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// PUT /v1/rules/:id
func (h *RulesHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid rule id")
		return
	}

	var def rules.RuleDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	def.ID = id

	updated, err := h.svc.Update(c.Request.Context(), def)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DELETE /v1/rules/:id deactivates; definitions referenced by links are
// never hard-deleted.
func (h *RulesHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid rule id")
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /v1/rules/:id
func (h *RulesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "invalid rule id")
		return
	}
	def, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, def)
}

// GET /v1/rules?usage_category=
func (h *RulesHandler) List(c *gin.Context) {
	defs, err := h.svc.List(c.Request.Context(), c.Query("usage_category"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": defs})
}
