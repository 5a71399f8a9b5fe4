package parentlink

import (
	"context"

	"herptrack/internal/core/id"
)

// Repository defines the interface for link request persistence.
//
// The duplicate-pending and single-approved-parent invariants are enforced
// twice: PendingExists and ApprovedExists give the request flow readable
// errors, and the store backs them with unique constraints scoped to the
// relevant status to close the check-then-write race.
type Repository interface {
	// Create inserts a new request. Returns a Conflict error when a pending
	// request for the same (child, parent, role) already exists.
	Create(ctx context.Context, req *Request) error

	// GetByID retrieves a request by ID
	GetByID(ctx context.Context, requestID id.ID) (*Request, error)

	// Update modifies an existing request (with optimistic locking)
	Update(ctx context.Context, req *Request) error

	// PendingExists checks for a pending request on the same edge
	PendingExists(ctx context.Context, childID, parentID id.ID, role Role) (bool, error)

	// ApprovedExists checks for an approved link for (child, role)
	ApprovedExists(ctx context.Context, childID id.ID, role Role) (bool, error)

	// FindActive returns the most recent non-deleted pending or approved
	// request for (child, role), or a NotFound error
	FindActive(ctx context.Context, childID id.ID, role Role) (*Request, error)

	// ListByIndividual returns all non-deleted requests referencing the
	// individual as either child or parent
	ListByIndividual(ctx context.Context, individualID id.ID) ([]*Request, error)

	// MarkDeletedByIndividual bulk-marks every non-deleted request
	// referencing the individual (either side) as deleted
	MarkDeletedByIndividual(ctx context.Context, individualID id.ID) error
}
