// Package clutch provides the laying tracker and egg/hatch progression:
// dated, strictly ordered egg batches under a mating, with per-egg state
// that ends in minting a new individual when an egg hatches.
package clutch

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
)

// Clutch is one dated laying batch. ClutchOrder numbers successive clutches
// of the same mating; dates must stay monotonic with it.
type Clutch struct {
	entity.Owned

	// MatingID binds the clutch to its mating; nil for legacy records
	// entered without a pairing
	MatingID *id.ID `db:"mating_id" json:"matingId,omitempty"`

	LaidOn      time.Time `db:"laid_on" json:"laidOn"`
	ClutchOrder int       `db:"clutch_order" json:"clutchOrder"`

	// Species is inherited by every egg and by hatched individuals
	Species string `db:"species" json:"species"`

	// Temperature is the incubation setpoint in degrees Celsius
	Temperature *decimal.Decimal `db:"temperature" json:"temperature,omitempty"`
}

// NewClutch creates a clutch owned by ownerID.
func NewClutch(ownerID id.ID, matingID *id.ID, laidOn time.Time, order int, species string) *Clutch {
	return &Clutch{
		Owned:       entity.NewOwned(ownerID),
		MatingID:    matingID,
		LaidOn:      laidOn,
		ClutchOrder: order,
		Species:     species,
	}
}

// Validate implements entity.Validatable.
func (c *Clutch) Validate(ctx context.Context) error {
	if id.IsNil(c.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}
	if c.LaidOn.IsZero() {
		return apperror.NewValidation("laying date is required").
			WithDetail("field", "laidOn")
	}
	if c.ClutchOrder < 1 {
		return apperror.NewValidation("clutch order must be a positive integer").
			WithDetail("field", "clutchOrder")
	}
	if c.Species == "" {
		return apperror.NewValidation("species is required").
			WithDetail("field", "species")
	}
	return nil
}

// EggStatus is the incubation state of one egg. The three states are freely
// interchangeable until the egg hatches.
type EggStatus string

const (
	EggFertilized   EggStatus = "fertilized"
	EggUnfertilized EggStatus = "unfertilized"
	EggDead         EggStatus = "dead"
)

func isValidEggStatus(s EggStatus) bool {
	switch s {
	case EggFertilized, EggUnfertilized, EggDead:
		return true
	}
	return false
}

// Egg is one unit within a clutch.
type Egg struct {
	entity.Base

	ClutchID id.ID `db:"clutch_id" json:"clutchId"`

	// Position distinguishes eggs within the clutch, 1-based
	Position int `db:"position" json:"position"`

	Status EggStatus `db:"status" json:"status"`

	Temperature *decimal.Decimal `db:"temperature" json:"temperature,omitempty"`

	// HatchedIndividualID is set exactly once, when the egg hatches;
	// after that the egg is read-only
	HatchedIndividualID *id.ID     `db:"hatched_individual_id" json:"hatchedIndividualId,omitempty"`
	HatchedOn           *time.Time `db:"hatched_on" json:"hatchedOn,omitempty"`
}

// NewEgg creates an egg pre-seeded as fertilized.
func NewEgg(clutchID id.ID, position int) *Egg {
	return &Egg{
		Base:     entity.NewBase(),
		ClutchID: clutchID,
		Position: position,
		Status:   EggFertilized,
	}
}

// IsHatched reports whether the egg already minted an individual.
func (e *Egg) IsHatched() bool {
	return e.HatchedIndividualID != nil
}
