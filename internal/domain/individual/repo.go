package individual

import (
	"context"

	"herptrack/internal/core/id"
	"herptrack/internal/domain"
)

// Repository defines the interface for Individual persistence.
type Repository interface {
	// Create inserts a new individual
	Create(ctx context.Context, ind *Individual) error

	// GetByID retrieves an individual by ID (including soft-deleted ones;
	// callers decide whether a deleted record is acceptable)
	GetByID(ctx context.Context, individualID id.ID) (*Individual, error)

	// Update modifies an existing individual (with optimistic locking)
	Update(ctx context.Context, ind *Individual) error

	// SetDeletionMark sets or clears the soft-delete flag
	SetDeletionMark(ctx context.Context, individualID id.ID, marked bool) error

	// UpdateSaleStatus overwrites the sale status only
	UpdateSaleStatus(ctx context.Context, individualID id.ID, status SaleStatus) error

	// Exists checks for a non-deleted individual with the given ID
	Exists(ctx context.Context, individualID id.ID) (bool, error)

	// List retrieves individuals with filtering and pagination
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Individual], error)
}

// ListFilter for filtering individuals.
type ListFilter struct {
	domain.ListFilter

	Species    string
	Sex        *Sex
	SaleStatus *SaleStatus
}
