// Package adoption provides the sale/adoption sync: adoption records bound
// to one individual, whose buyer and status fields drive the individual's
// sale status on every write.
package adoption

import (
	"context"

	"time"

	"github.com/shopspring/decimal"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
	"herptrack/internal/domain/individual"
)

// Location of the handover.
type Location string

const (
	LocationOnline  Location = "online"
	LocationOffline Location = "offline"
)

// Adoption binds one individual (seller side) to an optional buyer. At most
// one non-deleted adoption may exist per individual.
type Adoption struct {
	entity.Owned

	IndividualID id.ID `db:"individual_id" json:"individualId"`

	// BuyerID is the buying user; nil while the listing has no taker
	BuyerID *id.ID `db:"buyer_id" json:"buyerId,omitempty"`

	// ExplicitStatus overrides the derived sale status when set; nil means
	// derive from the buyer field
	ExplicitStatus *individual.SaleStatus `db:"explicit_status" json:"explicitStatus,omitempty"`

	Price     *decimal.Decimal `db:"price" json:"price,omitempty"`
	AdoptedOn *time.Time       `db:"adopted_on" json:"adoptedOn,omitempty"`
	Memo      string           `db:"memo" json:"memo,omitempty"`
	Location  Location         `db:"location" json:"location"`
}

// New creates an adoption owned by sellerID.
func New(sellerID, individualID id.ID) *Adoption {
	return &Adoption{
		Owned:        entity.NewOwned(sellerID),
		IndividualID: individualID,
		Location:     LocationOffline,
	}
}

// Validate implements entity.Validatable.
func (a *Adoption) Validate(ctx context.Context) error {
	if id.IsNil(a.IndividualID) {
		return apperror.NewValidation("individual is required").
			WithDetail("field", "individualId")
	}
	if a.Location != LocationOnline && a.Location != LocationOffline {
		return apperror.NewValidation("location must be online or offline").
			WithDetail("field", "location").
			WithDetail("value", string(a.Location))
	}
	if a.Price != nil && a.Price.IsNegative() {
		return apperror.NewValidation("price cannot be negative").
			WithDetail("field", "price").
			WithDetail("value", a.Price.String())
	}
	if a.ExplicitStatus != nil {
		switch *a.ExplicitStatus {
		case individual.SaleStatusNotForSale, individual.SaleStatusOnSale,
			individual.SaleStatusOnReservation, individual.SaleStatusSold:
		default:
			return apperror.NewValidation("invalid sale status").
				WithDetail("field", "explicitStatus").
				WithDetail("value", string(*a.ExplicitStatus))
		}
	}
	return nil
}

// DerivedStatus computes the individual's sale status from the adoption's
// current fields. Pure function of (buyer, explicit status): an explicit
// status wins; otherwise an attached buyer means reserved and no buyer
// means on sale. Recomputed on every write, never patched incrementally.
func (a *Adoption) DerivedStatus() individual.SaleStatus {
	if a.ExplicitStatus != nil {
		return *a.ExplicitStatus
	}
	if a.BuyerID != nil && !id.IsNil(*a.BuyerID) {
		return individual.SaleStatusOnReservation
	}
	return individual.SaleStatusOnSale
}
