package clutch

import (
	"context"

	"herptrack/internal/core/id"
)

// Repository defines the interface for Clutch and Egg persistence.
// Clutches and their eggs form one aggregate and share a store.
//
// ListByMating feeds the ordering validator; callers run it inside the same
// transaction as the write so concurrent appends to one mating cannot both
// pass validation against a stale sibling set.
type Repository interface {
	// CreateClutch inserts a clutch together with its pre-seeded eggs
	CreateClutch(ctx context.Context, c *Clutch, eggs []*Egg) error

	// GetClutchByID retrieves a clutch by ID
	GetClutchByID(ctx context.Context, clutchID id.ID) (*Clutch, error)

	// UpdateClutch modifies an existing clutch (with optimistic locking)
	UpdateClutch(ctx context.Context, c *Clutch) error

	// SetClutchDeletionMark sets or clears the clutch soft-delete flag
	SetClutchDeletionMark(ctx context.Context, clutchID id.ID, marked bool) error

	// ListByMating returns the non-deleted clutches of a mating ordered by
	// clutch order
	ListByMating(ctx context.Context, matingID id.ID) ([]*Clutch, error)

	// CountActiveByMating reports how many non-deleted clutches reference
	// the mating; used as the mating delete guard
	CountActiveByMating(ctx context.Context, matingID id.ID) (int, error)

	// GetEggByID retrieves an egg by ID
	GetEggByID(ctx context.Context, eggID id.ID) (*Egg, error)

	// UpdateEgg modifies an existing egg (with optimistic locking)
	UpdateEgg(ctx context.Context, e *Egg) error

	// ListEggsByClutch returns the non-deleted eggs of a clutch ordered by
	// position
	ListEggsByClutch(ctx context.Context, clutchID id.ID) ([]*Egg, error)

	// HasHatchedEgg reports whether any non-deleted egg of the clutch has
	// hatched; used as the clutch delete guard
	HasHatchedEgg(ctx context.Context, clutchID id.ID) (bool, error)

	// MarkEggsDeletedByClutch soft-deletes every unhatched egg of the clutch
	MarkEggsDeletedByClutch(ctx context.Context, clutchID id.ID) error

	// CountUnhatchedByParent counts unhatched eggs in clutches whose mating
	// references the individual as father or mother; used as the individual
	// delete guard
	CountUnhatchedByParent(ctx context.Context, individualID id.ID) (int, error)
}
