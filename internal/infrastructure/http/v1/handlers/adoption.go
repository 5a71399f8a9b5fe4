package handlers

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/domain/adoption"
	"herptrack/internal/infrastructure/http/v1/dto"
	"herptrack/internal/infrastructure/storage/postgres"
)

// AdoptionHandler handles adoption/sale endpoints.
type AdoptionHandler struct {
	*BaseHandler
	service *adoption.Service
}

// NewAdoptionHandler creates a new adoption handler.
func NewAdoptionHandler(base *BaseHandler, service *adoption.Service) *AdoptionHandler {
	return &AdoptionHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /adoptions
func (h *AdoptionHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateAdoptionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a := req.ToEntity(h.UserID(c))
	if err := h.service.Create(ctx, a); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "adoption", a.ID, postgres.AuditActionCreate, map[string]any{
		"individualId": a.IndividualID.String(),
		"status":       string(a.DerivedStatus()),
	})
	h.Created(c, a.ID)
}

// Get handles GET /adoptions/:id
func (h *AdoptionHandler) Get(c *gin.Context) {
	adoptionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.GetOwned(c.Request.Context(), adoptionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, a)
}

// Update handles PUT /adoptions/:id
func (h *AdoptionHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	adoptionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateAdoptionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	a, err := h.service.GetOwned(ctx, adoptionID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(a)
	if err := h.service.Update(ctx, a); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "adoption", a.ID, postgres.AuditActionUpdate, map[string]any{
		"status": string(a.DerivedStatus()),
	})
	h.OK(c, a)
}

// Delete handles DELETE /adoptions/:id
func (h *AdoptionHandler) Delete(c *gin.Context) {
	adoptionID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), adoptionID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "adoption", adoptionID, postgres.AuditActionDelete, nil)
	h.NoContent(c)
}

// List handles GET /adoptions
func (h *AdoptionHandler) List(c *gin.Context) {
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

// RegisterRoutes registers adoption routes.
func (h *AdoptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
