// Package entity provides the base types shared by all persisted records.
package entity

import (
	"context"
	"time"

	"herptrack/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// Base contains common fields for all entities.
type Base struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// DeletionMark indicates a soft-deleted entity. Nothing in the engine
	// performs hard deletes.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking (incremented by the repository on
	// each update)
	Version int `db:"version" json:"version"`

	// Audit timestamps
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBase creates a new Base with generated ID and timestamps.
func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp. The version column is advanced by
// the repository as part of the optimistic-lock update.
func (b *Base) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

// MarkDeleted sets the deletion mark.
func (b *Base) MarkDeleted() {
	b.DeletionMark = true
}

// Undelete clears the deletion mark.
func (b *Base) Undelete() {
	b.DeletionMark = false
}

// SetVersion updates the version number (used by repository after sync).
func (b *Base) SetVersion(v int) {
	b.Version = v
}

// Owned extends Base with an owning user. Every record of the breeding
// engine is exclusively owned; cross-owner mutation happens only through
// the request/approval flow, never by direct write.
type Owned struct {
	Base

	// OwnerID is the user that owns this record
	OwnerID id.ID `db:"owner_id" json:"ownerId"`
}

// NewOwned creates a new Owned entity for the given user.
func NewOwned(ownerID id.ID) Owned {
	return Owned{
		Base:    NewBase(),
		OwnerID: ownerID,
	}
}

// IsOwnedBy reports whether userID owns this entity.
func (o *Owned) IsOwnedBy(userID id.ID) bool {
	return o.OwnerID == userID
}
