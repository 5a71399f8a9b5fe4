package handlers

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/domain/individual"
	"herptrack/internal/infrastructure/http/v1/dto"
	"herptrack/internal/infrastructure/storage/postgres"
)

// IndividualHandler handles the animal registry endpoints.
type IndividualHandler struct {
	*BaseHandler
	service *individual.Service
}

// NewIndividualHandler creates a new individual handler.
func NewIndividualHandler(base *BaseHandler, service *individual.Service) *IndividualHandler {
	return &IndividualHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /individuals
func (h *IndividualHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateIndividualRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ind := req.ToEntity(h.UserID(c))
	if err := h.service.Create(ctx, ind); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "individual", ind.ID, postgres.AuditActionCreate, map[string]any{
		"species": ind.Species,
		"name":    ind.Name,
	})
	h.Created(c, ind.ID)
}

// Get handles GET /individuals/:id
func (h *IndividualHandler) Get(c *gin.Context) {
	individualID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	ind, err := h.service.GetOwned(c.Request.Context(), individualID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, ind)
}

// Update handles PUT /individuals/:id
func (h *IndividualHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	individualID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateIndividualRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ind, err := h.service.GetOwned(ctx, individualID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(ind)
	if err := h.service.Update(ctx, ind); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "individual", ind.ID, postgres.AuditActionUpdate, map[string]any{
		"species": ind.Species,
		"name":    ind.Name,
	})
	h.OK(c, ind)
}

// Delete handles DELETE /individuals/:id
func (h *IndividualHandler) Delete(c *gin.Context) {
	individualID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), individualID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "individual", individualID, postgres.AuditActionDelete, nil)
	h.NoContent(c)
}

// List handles GET /individuals
func (h *IndividualHandler) List(c *gin.Context) {
	var query dto.ListIndividualsQuery
	if !h.BindQuery(c, &query) {
		return
	}

	filter := query.ToIndividualFilter()
	ownerID := h.UserID(c)
	filter.OwnerID = &ownerID

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// RegisterRoutes registers individual registry routes.
func (h *IndividualHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
}
