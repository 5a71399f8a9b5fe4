package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/appctx"
	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
	"herptrack/internal/domain"
)

// Trigger is the side-channel the engine's services depend on. Implemented
// by Service; test fakes implement it directly.
type Trigger interface {
	// Notify enqueues a notification for receiverID. Must be called inside
	// the transaction of the state change it reports.
	Notify(ctx context.Context, receiverID id.ID, kind Kind, payload any) error
}

// Service provides notification business logic.
type Service struct {
	repo Repository
}

// NewService creates a new notification service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var _ Trigger = (*Service)(nil)

// Notify implements Trigger. Payload is marshalled to JSON; the sender is
// taken from the acting user in context.
func (s *Service) Notify(ctx context.Context, receiverID id.ID, kind Kind, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}

	n := &Notification{
		Base:       entity.NewBase(),
		ReceiverID: receiverID,
		SenderID:   appctx.GetUserID(ctx),
		Kind:       kind,
		Payload:    raw,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListForUser returns the acting user's notifications, newest first.
func (s *Service) ListForUser(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Notification], error) {
	return s.repo.ListByReceiver(ctx, appctx.GetUserID(ctx), filter)
}

// MarkRead stamps the notification as read by its receiver.
func (s *Service) MarkRead(ctx context.Context, notificationID id.ID) error {
	n, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if n.ReceiverID != appctx.GetUserID(ctx) {
		return apperror.NewForbidden("notification belongs to another user")
	}
	if n.IsRead() {
		return nil
	}
	now := time.Now().UTC()
	n.ReadAt = &now
	return s.repo.Update(ctx, n)
}
