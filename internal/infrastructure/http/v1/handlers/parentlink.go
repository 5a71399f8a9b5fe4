package handlers

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/core/apperror"
	"herptrack/internal/domain/parentlink"
	"herptrack/internal/infrastructure/http/v1/dto"
	"herptrack/internal/infrastructure/storage/postgres"
)

// ParentLinkHandler handles pedigree link request endpoints.
type ParentLinkHandler struct {
	*BaseHandler
	service *parentlink.Service
}

// NewParentLinkHandler creates a new parent link handler.
func NewParentLinkHandler(base *BaseHandler, service *parentlink.Service) *ParentLinkHandler {
	return &ParentLinkHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Propose handles POST /parent-links
func (h *ParentLinkHandler) Propose(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ProposeLinkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	request, err := h.service.Propose(ctx, req.ToInput())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "parent_link_request", request.ID, postgres.AuditActionCreate, map[string]any{
		"childId":  request.ChildID.String(),
		"parentId": request.ParentID.String(),
		"role":     string(request.Role),
		"status":   string(request.Status),
	})
	h.OK(c, request)
}

// Decide handles POST /parent-links/:id/decision
func (h *ParentLinkHandler) Decide(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.DecideLinkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	request, err := h.service.Decide(ctx, requestID, parentlink.Status(req.Status), req.RejectReason)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "parent_link_request", request.ID, decisionAction(request.Status), map[string]any{
		"status": string(request.Status),
	})
	h.OK(c, request)
}

// ResolveParents handles GET /individuals/:id/parents
func (h *ParentLinkHandler) ResolveParents(c *gin.Context) {
	childID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	parents, err := h.service.ResolveParents(c.Request.Context(), childID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, parents)
}

// Unlink handles DELETE /individuals/:id/parents/:role
func (h *ParentLinkHandler) Unlink(c *gin.Context) {
	childID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	role := parentlink.Role(c.Param("role"))
	if role != parentlink.RoleFather && role != parentlink.RoleMother {
		h.Error(c, apperror.NewValidation("role must be father or mother").
			WithDetail("role", c.Param("role")))
		return
	}

	if err := h.service.Unlink(c.Request.Context(), childID, role); err != nil {
		h.Error(c, err)
		return
	}

	h.Audit(c, "parent_link_request", childID, postgres.AuditActionDelete, map[string]any{
		"role": string(role),
	})
	h.NoContent(c)
}

func decisionAction(status parentlink.Status) postgres.AuditAction {
	switch status {
	case parentlink.StatusApproved:
		return postgres.AuditActionApprove
	case parentlink.StatusRejected:
		return postgres.AuditActionReject
	default:
		return postgres.AuditActionCancel
	}
}

// RegisterRoutes registers link request routes and the pedigree views nested
// under individuals.
func (h *ParentLinkHandler) RegisterRoutes(links, individuals *gin.RouterGroup) {
	links.POST("", h.Propose)
	links.POST("/:id/decision", h.Decide)

	individuals.GET("/:id/parents", h.ResolveParents)
	individuals.DELETE("/:id/parents/:role", h.Unlink)
}
