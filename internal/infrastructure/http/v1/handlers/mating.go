package handlers

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/domain/mating"
	"herptrack/internal/infrastructure/http/v1/dto"
	"herptrack/internal/infrastructure/storage/postgres"
)

// MatingHandler handles mating register endpoints.
type MatingHandler struct {
	*BaseHandler
	service *mating.Service
}

// NewMatingHandler creates a new mating handler.
func NewMatingHandler(base *BaseHandler, service *mating.Service) *MatingHandler {
	return &MatingHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Record handles POST /matings
func (h *MatingHandler) Record(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RecordMatingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m := req.ToEntity(h.UserID(c))
	if err := h.service.Record(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "mating", m.ID, postgres.AuditActionCreate, map[string]any{
		"matedOn": m.MatedOn,
	})
	h.Created(c, m.ID)
}

// Get handles GET /matings/:id
func (h *MatingHandler) Get(c *gin.Context) {
	matingID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	m, err := h.service.GetOwned(c.Request.Context(), matingID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, m)
}

// Update handles PUT /matings/:id
func (h *MatingHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	matingID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateMatingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GetOwned(ctx, matingID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(m)
	if err := h.service.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "mating", m.ID, postgres.AuditActionUpdate, map[string]any{
		"matedOn": m.MatedOn,
	})
	h.OK(c, m)
}

// Delete handles DELETE /matings/:id
func (h *MatingHandler) Delete(c *gin.Context) {
	matingID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), matingID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "mating", matingID, postgres.AuditActionDelete, nil)
	h.NoContent(c)
}

// List handles GET /matings
func (h *MatingHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.ListByOwner(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// RegisterRoutes registers mating register routes.
func (h *MatingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Record)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
