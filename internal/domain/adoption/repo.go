package adoption

import (
	"context"

	"herptrack/internal/core/id"
	"herptrack/internal/domain"
)

// Repository defines the interface for Adoption persistence.
type Repository interface {
	// Create inserts a new adoption
	Create(ctx context.Context, a *Adoption) error

	// GetByID retrieves an adoption by ID
	GetByID(ctx context.Context, adoptionID id.ID) (*Adoption, error)

	// Update modifies an existing adoption (with optimistic locking)
	Update(ctx context.Context, a *Adoption) error

	// SetDeletionMark sets or clears the soft-delete flag
	SetDeletionMark(ctx context.Context, adoptionID id.ID, marked bool) error

	// FindActiveByIndividual returns the non-deleted adoption for the
	// individual, or a NotFound error
	FindActiveByIndividual(ctx context.Context, individualID id.ID) (*Adoption, error)

	// ListByOwner returns the seller's adoptions
	ListByOwner(ctx context.Context, ownerID id.ID, filter domain.ListFilter) (domain.ListResult[*Adoption], error)
}

// UserDirectory validates buyer ids. Satisfied by the user service.
type UserDirectory interface {
	Exists(ctx context.Context, userID id.ID) (bool, error)
}
