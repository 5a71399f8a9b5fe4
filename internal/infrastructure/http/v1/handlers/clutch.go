package handlers

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/domain/clutch"
	"herptrack/internal/infrastructure/http/v1/dto"
	"herptrack/internal/infrastructure/storage/postgres"
)

// ClutchHandler handles clutch and egg progression endpoints.
type ClutchHandler struct {
	*BaseHandler
	service *clutch.Service
}

// NewClutchHandler creates a new clutch handler.
func NewClutchHandler(base *BaseHandler, service *clutch.Service) *ClutchHandler {
	return &ClutchHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /clutches
func (h *ClutchHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateClutchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.CreateClutch(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "clutch", cl.ID, postgres.AuditActionCreate, map[string]any{
		"clutchOrder": cl.ClutchOrder,
		"laidOn":      cl.LaidOn,
		"eggCount":    req.EggCount,
	})
	h.Created(c, cl.ID)
}

// Get handles GET /clutches/:id
func (h *ClutchHandler) Get(c *gin.Context) {
	clutchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	cl, err := h.service.GetOwnedClutch(c.Request.Context(), clutchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, cl)
}

// UpdateDate handles PUT /clutches/:id/date
func (h *ClutchHandler) UpdateDate(c *gin.Context) {
	ctx := c.Request.Context()

	clutchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateClutchDateRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.UpdateClutchDate(ctx, clutchID, req.LaidOn)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "clutch", cl.ID, postgres.AuditActionUpdate, map[string]any{
		"laidOn": cl.LaidOn,
	})
	h.OK(c, cl)
}

// Delete handles DELETE /clutches/:id
func (h *ClutchHandler) Delete(c *gin.Context) {
	clutchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteClutch(c.Request.Context(), clutchID); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "clutch", clutchID, postgres.AuditActionDelete, nil)
	h.NoContent(c)
}

// ListEggs handles GET /clutches/:id/eggs
func (h *ClutchHandler) ListEggs(c *gin.Context) {
	clutchID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	eggs, err := h.service.ListEggs(c.Request.Context(), clutchID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, gin.H{"items": eggs})
}

// UpdateEggStatus handles PUT /eggs/:id/status
func (h *ClutchHandler) UpdateEggStatus(c *gin.Context) {
	ctx := c.Request.Context()

	eggID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateEggStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	egg, err := h.service.UpdateEggStatus(ctx, eggID, clutch.EggStatus(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "egg", egg.ID, postgres.AuditActionUpdate, map[string]any{
		"status": string(egg.Status),
	})
	h.OK(c, egg)
}

// Hatch handles POST /eggs/:id/hatch
func (h *ClutchHandler) Hatch(c *gin.Context) {
	ctx := c.Request.Context()

	eggID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.HatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	hatchling, err := h.service.Hatch(ctx, eggID, req.HatchedOn)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "egg", eggID, postgres.AuditActionHatch, map[string]any{
		"individualId": hatchling.ID.String(),
		"hatchedOn":    req.HatchedOn,
	})
	h.OK(c, hatchling)
}

// RegisterRoutes registers clutch and egg routes.
func (h *ClutchHandler) RegisterRoutes(clutches, eggs *gin.RouterGroup) {
	clutches.POST("", h.Create)
	clutches.GET("/:id", h.Get)
	clutches.PUT("/:id/date", h.UpdateDate)
	clutches.DELETE("/:id", h.Delete)
	clutches.GET("/:id/eggs", h.ListEggs)

	eggs.PUT("/:id/status", h.UpdateEggStatus)
	eggs.POST("/:id/hatch", h.Hatch)
}
