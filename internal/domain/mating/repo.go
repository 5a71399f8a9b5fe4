package mating

import (
	"context"
	"time"

	"herptrack/internal/core/id"
	"herptrack/internal/domain"
)

// Repository defines the interface for Mating persistence.
type Repository interface {
	// Create inserts a new mating
	Create(ctx context.Context, m *Mating) error

	// GetByID retrieves a mating by ID
	GetByID(ctx context.Context, matingID id.ID) (*Mating, error)

	// Update modifies an existing mating (with optimistic locking)
	Update(ctx context.Context, m *Mating) error

	// SetDeletionMark sets or clears the soft-delete flag
	SetDeletionMark(ctx context.Context, matingID id.ID, marked bool) error

	// TupleExists checks for another non-deleted mating with the same
	// (owner, father, mother, date) tuple, excluding excludeID
	TupleExists(ctx context.Context, ownerID id.ID, fatherID, motherID *id.ID, matedOn time.Time, excludeID id.ID) (bool, error)

	// ListViews returns the owner's matings joined with parent summaries
	// and nested clutch summaries, newest first
	ListViews(ctx context.Context, ownerID id.ID, filter domain.ListFilter) (domain.ListResult[*View], error)
}

// ClutchCounter reports how many non-deleted clutches reference a mating.
// Implemented by the clutch store; the register uses it as its delete guard.
type ClutchCounter interface {
	CountActiveByMating(ctx context.Context, matingID id.ID) (int, error)
}
