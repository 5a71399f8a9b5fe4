// Package notification provides the notification trigger: state transitions
// in the breeding engine enqueue a notification row inside the same
// transaction as the change they report. Delivery transport is someone
// else's problem; commit-or-nothing is ours.
package notification

import (
	"encoding/json"
	"time"

	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
)

// Kind identifies what happened.
type Kind string

const (
	KindParentLinkProposed  Kind = "parent_link_proposed"
	KindParentLinkApproved  Kind = "parent_link_approved"
	KindParentLinkRejected  Kind = "parent_link_rejected"
	KindParentLinkCancelled Kind = "parent_link_cancelled"
	KindEggHatched          Kind = "egg_hatched"
	KindAdoptionReserved    Kind = "adoption_reserved"
	KindAdoptionCompleted   Kind = "adoption_completed"
)

// Notification is one queued message for a user.
type Notification struct {
	entity.Base

	ReceiverID id.ID           `db:"receiver_id" json:"receiverId"`
	SenderID   id.ID           `db:"sender_id" json:"senderId"`
	Kind       Kind            `db:"kind" json:"kind"`
	Payload    json.RawMessage `db:"payload" json:"payload"`
	ReadAt     *time.Time      `db:"read_at" json:"readAt,omitempty"`
}

// IsRead reports whether the receiver has seen the notification.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
