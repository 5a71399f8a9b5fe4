package dto

import (
	"time"

	"herptrack/internal/core/id"
	"herptrack/internal/domain/mating"
)

// RecordMatingRequest registers a pairing event.
type RecordMatingRequest struct {
	FatherID *id.ID    `json:"fatherId"`
	MotherID *id.ID    `json:"motherId"`
	MatedOn  time.Time `json:"matedOn" binding:"required"`
	Memo     string    `json:"memo"`
}

// ToEntity builds a new mating owned by ownerID.
func (r RecordMatingRequest) ToEntity(ownerID id.ID) *mating.Mating {
	m := mating.New(ownerID, r.FatherID, r.MotherID, r.MatedOn)
	m.Memo = r.Memo
	return m
}

// UpdateMatingRequest overwrites parents and date.
type UpdateMatingRequest struct {
	FatherID *id.ID     `json:"fatherId"`
	MotherID *id.ID     `json:"motherId"`
	MatedOn  *time.Time `json:"matedOn"`
	Memo     *string    `json:"memo"`
	Version  int        `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing record.
func (r UpdateMatingRequest) ApplyTo(m *mating.Mating) {
	m.FatherID = r.FatherID
	m.MotherID = r.MotherID
	if r.MatedOn != nil {
		m.MatedOn = *r.MatedOn
	}
	if r.Memo != nil {
		m.Memo = *r.Memo
	}
	m.Version = r.Version
	m.Touch()
}
