package notification

import (
	"context"

	"herptrack/internal/core/id"
	"herptrack/internal/domain"
)

// Repository defines the interface for Notification persistence.
// Create is expected to run inside the caller's transaction.
type Repository interface {
	Create(ctx context.Context, n *Notification) error
	GetByID(ctx context.Context, notificationID id.ID) (*Notification, error)
	Update(ctx context.Context, n *Notification) error
	ListByReceiver(ctx context.Context, receiverID id.ID, filter domain.ListFilter) (domain.ListResult[*Notification], error)
}
