package handlers

import (
	"github.com/gin-gonic/gin"

	"herptrack/internal/domain/notification"
	"herptrack/internal/infrastructure/http/v1/dto"
)

// NotificationHandler handles the notification feed endpoints.
type NotificationHandler struct {
	*BaseHandler
	service *notification.Service
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(base *BaseHandler, service *notification.Service) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: base,
		service:     service,
	}
}

// List handles GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	var query dto.ListQuery
	if !h.BindQuery(c, &query) {
		return
	}

	result, err := h.service.ListForUser(c.Request.Context(), query.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, result)
}

// MarkRead handles POST /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), notificationID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers notification routes.
func (h *NotificationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/:id/read", h.MarkRead)
}
