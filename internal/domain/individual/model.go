// Package individual provides the Individual registry: the canonical record
// of every animal (and hatched egg) an owner keeps.
package individual

import (
	"context"
	"time"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
)

// Sex of an individual. Unknown is a legitimate long-term value: sexing
// reptiles reliably can take years.
type Sex string

const (
	SexUnknown Sex = "unknown"
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
)

// SaleStatus is the adoption lifecycle stage of an individual.
// Lifecycle: not_for_sale <-> on_sale -> on_reservation -> sold.
// Sold is terminal and triggers soft deletion.
type SaleStatus string

const (
	SaleStatusNotForSale    SaleStatus = "not_for_sale"
	SaleStatusOnSale        SaleStatus = "on_sale"
	SaleStatusOnReservation SaleStatus = "on_reservation"
	SaleStatusSold          SaleStatus = "sold"
)

// Individual represents one animal in the registry. Records are created
// directly by a user or minted by the hatch flow, and are only ever
// soft-deleted.
type Individual struct {
	entity.Owned

	// Name is the keeper-facing label; optional for hatchlings
	Name string `db:"name" json:"name,omitempty"`

	// Species is free-text taxon name (e.g. "Python regius")
	Species string `db:"species" json:"species"`

	Sex Sex `db:"sex" json:"sex"`

	SaleStatus SaleStatus `db:"sale_status" json:"saleStatus"`

	// HatchedOn is the birth/hatch date when known
	HatchedOn *time.Time `db:"hatched_on" json:"hatchedOn,omitempty"`

	// ClutchID links back to the clutch this individual hatched from
	ClutchID *id.ID `db:"clutch_id" json:"clutchId,omitempty"`
}

// New creates a new Individual owned by ownerID.
func New(ownerID id.ID, species string) *Individual {
	return &Individual{
		Owned:      entity.NewOwned(ownerID),
		Species:    species,
		Sex:        SexUnknown,
		SaleStatus: SaleStatusNotForSale,
	}
}

// Validate implements entity.Validatable.
func (i *Individual) Validate(ctx context.Context) error {
	if id.IsNil(i.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}
	if i.Species == "" {
		return apperror.NewValidation("species is required").
			WithDetail("field", "species")
	}
	if !isValidSex(i.Sex) {
		return apperror.NewValidation("invalid sex").
			WithDetail("field", "sex").
			WithDetail("value", string(i.Sex))
	}
	if !isValidSaleStatus(i.SaleStatus) {
		return apperror.NewValidation("invalid sale status").
			WithDetail("field", "saleStatus").
			WithDetail("value", string(i.SaleStatus))
	}
	return nil
}

// IsSold reports whether the individual reached the terminal sale state.
func (i *Individual) IsSold() bool {
	return i.SaleStatus == SaleStatusSold
}

func isValidSex(s Sex) bool {
	switch s {
	case SexUnknown, SexMale, SexFemale:
		return true
	}
	return false
}

func isValidSaleStatus(s SaleStatus) bool {
	switch s {
	case SaleStatusNotForSale, SaleStatusOnSale, SaleStatusOnReservation, SaleStatusSold:
		return true
	}
	return false
}
