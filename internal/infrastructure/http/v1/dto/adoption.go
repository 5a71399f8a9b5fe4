package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"herptrack/internal/core/id"
	"herptrack/internal/domain/adoption"
	"herptrack/internal/domain/individual"
)

// CreateAdoptionRequest opens an adoption for an owned individual.
type CreateAdoptionRequest struct {
	IndividualID   id.ID            `json:"individualId" binding:"required"`
	BuyerID        *id.ID           `json:"buyerId"`
	ExplicitStatus *string          `json:"explicitStatus"`
	Price          *decimal.Decimal `json:"price"`
	AdoptedOn      *time.Time       `json:"adoptedOn"`
	Memo           string           `json:"memo"`
	Location       string           `json:"location"`
}

// ToEntity builds a new adoption owned by sellerID.
func (r CreateAdoptionRequest) ToEntity(sellerID id.ID) *adoption.Adoption {
	a := adoption.New(sellerID, r.IndividualID)
	a.BuyerID = r.BuyerID
	a.Price = r.Price
	a.AdoptedOn = r.AdoptedOn
	a.Memo = r.Memo
	if r.Location != "" {
		a.Location = adoption.Location(r.Location)
	}
	if r.ExplicitStatus != nil {
		status := individual.SaleStatus(*r.ExplicitStatus)
		a.ExplicitStatus = &status
	}
	return a
}

// UpdateAdoptionRequest overwrites buyer, status and handover fields.
type UpdateAdoptionRequest struct {
	BuyerID        *id.ID           `json:"buyerId"`
	ExplicitStatus *string          `json:"explicitStatus"`
	Price          *decimal.Decimal `json:"price"`
	AdoptedOn      *time.Time       `json:"adoptedOn"`
	Memo           *string          `json:"memo"`
	Location       *string          `json:"location"`
	Version        int              `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing record. Buyer and explicit status are
// overwritten outright: omitting them clears them, which is what reverts an
// individual back to on sale.
func (r UpdateAdoptionRequest) ApplyTo(a *adoption.Adoption) {
	a.BuyerID = r.BuyerID
	if r.ExplicitStatus != nil {
		status := individual.SaleStatus(*r.ExplicitStatus)
		a.ExplicitStatus = &status
	} else {
		a.ExplicitStatus = nil
	}
	if r.Price != nil {
		a.Price = r.Price
	}
	if r.AdoptedOn != nil {
		a.AdoptedOn = r.AdoptedOn
	}
	if r.Memo != nil {
		a.Memo = *r.Memo
	}
	if r.Location != nil {
		a.Location = adoption.Location(*r.Location)
	}
	a.Version = r.Version
	a.Touch()
}
