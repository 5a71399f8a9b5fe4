package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"herptrack/internal/core/id"
	"herptrack/internal/domain/clutch"
)

// CreateClutchRequest appends a laying batch, optionally under a mating.
type CreateClutchRequest struct {
	MatingID    *id.ID           `json:"matingId"`
	LaidOn      time.Time        `json:"laidOn" binding:"required"`
	ClutchOrder int              `json:"clutchOrder" binding:"required,min=1"`
	Species     string           `json:"species" binding:"required"`
	EggCount    int              `json:"eggCount" binding:"min=0"`
	Temperature *decimal.Decimal `json:"temperature"`
}

// ToInput converts to the service input.
func (r CreateClutchRequest) ToInput() clutch.CreateClutchInput {
	return clutch.CreateClutchInput{
		MatingID:    r.MatingID,
		LaidOn:      r.LaidOn,
		ClutchOrder: r.ClutchOrder,
		Species:     r.Species,
		EggCount:    r.EggCount,
		Temperature: r.Temperature,
	}
}

// UpdateClutchDateRequest moves the laying date.
type UpdateClutchDateRequest struct {
	LaidOn time.Time `json:"laidOn" binding:"required"`
}

// UpdateEggStatusRequest moves an egg among its incubation states.
type UpdateEggStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=fertilized unfertilized dead"`
}

// HatchRequest marks an egg hatched on a date.
type HatchRequest struct {
	HatchedOn time.Time `json:"hatchedOn" binding:"required"`
}
