// Package mating provides the mating register: dated pairing events between
// a father and a mother individual, scoped per owner. Clutches nest under a
// mating; the register itself carries no incubation state.
package mating

import (
	"context"
	"time"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/entity"
	"herptrack/internal/core/id"
)

// Mating records that two individuals were paired on a date. Either parent
// may be absent when it is unknown or not kept by the owner.
type Mating struct {
	entity.Owned

	FatherID *id.ID `db:"father_id" json:"fatherId,omitempty"`
	MotherID *id.ID `db:"mother_id" json:"motherId,omitempty"`

	// MatedOn is the pairing date; clutch laying dates may not precede it
	MatedOn time.Time `db:"mated_on" json:"matedOn"`

	Memo string `db:"memo" json:"memo,omitempty"`
}

// New creates a mating owned by ownerID.
func New(ownerID id.ID, fatherID, motherID *id.ID, matedOn time.Time) *Mating {
	return &Mating{
		Owned:    entity.NewOwned(ownerID),
		FatherID: fatherID,
		MotherID: motherID,
		MatedOn:  matedOn,
	}
}

// Validate implements entity.Validatable.
func (m *Mating) Validate(ctx context.Context) error {
	if id.IsNil(m.OwnerID) {
		return apperror.NewValidation("owner is required").
			WithDetail("field", "ownerId")
	}
	if m.MatedOn.IsZero() {
		return apperror.NewValidation("mating date is required").
			WithDetail("field", "matedOn")
	}
	if m.FatherID == nil && m.MotherID == nil {
		return apperror.NewValidation("at least one parent is required").
			WithDetail("field", "fatherId")
	}
	if m.FatherID != nil && m.MotherID != nil && *m.FatherID == *m.MotherID {
		return apperror.NewValidation("father and mother cannot be the same individual").
			WithDetail("fatherId", m.FatherID.String())
	}
	return nil
}

// ParentSummary is the lightweight parent view embedded in mating listings.
type ParentSummary struct {
	ID      id.ID  `db:"id" json:"id"`
	Name    string `db:"name" json:"name,omitempty"`
	Species string `db:"species" json:"species"`
	Sex     string `db:"sex" json:"sex"`
}

// ClutchSummary is the nested clutch view embedded in mating listings.
type ClutchSummary struct {
	ID           id.ID     `db:"id" json:"id"`
	ClutchOrder  int       `db:"clutch_order" json:"clutchOrder"`
	LaidOn       time.Time `db:"laid_on" json:"laidOn"`
	EggCount     int       `db:"egg_count" json:"eggCount"`
	HatchedCount int       `db:"hatched_count" json:"hatchedCount"`
}

// View is a mating joined with parent summaries and nested clutches for
// display.
type View struct {
	Mating

	Father   *ParentSummary  `json:"father,omitempty"`
	Mother   *ParentSummary  `json:"mother,omitempty"`
	Clutches []ClutchSummary `json:"clutches"`
}
