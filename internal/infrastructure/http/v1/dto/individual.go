package dto

import (
	"time"

	"herptrack/internal/core/id"
	"herptrack/internal/domain/individual"
)

// CreateIndividualRequest registers a new animal.
type CreateIndividualRequest struct {
	Name      string     `json:"name"`
	Species   string     `json:"species" binding:"required"`
	Sex       string     `json:"sex"`
	HatchedOn *time.Time `json:"hatchedOn"`
}

// ToEntity builds a new individual owned by ownerID.
func (r CreateIndividualRequest) ToEntity(ownerID id.ID) *individual.Individual {
	ind := individual.New(ownerID, r.Species)
	ind.Name = r.Name
	if r.Sex != "" {
		ind.Sex = individual.Sex(r.Sex)
	}
	ind.HatchedOn = r.HatchedOn
	return ind
}

// UpdateIndividualRequest overwrites mutable fields.
type UpdateIndividualRequest struct {
	Name      *string    `json:"name"`
	Species   *string    `json:"species"`
	Sex       *string    `json:"sex"`
	HatchedOn *time.Time `json:"hatchedOn"`
	Version   int        `json:"version" binding:"required,min=1"`
}

// ApplyTo patches the existing record.
func (r UpdateIndividualRequest) ApplyTo(ind *individual.Individual) {
	if r.Name != nil {
		ind.Name = *r.Name
	}
	if r.Species != nil {
		ind.Species = *r.Species
	}
	if r.Sex != nil {
		ind.Sex = individual.Sex(*r.Sex)
	}
	if r.HatchedOn != nil {
		ind.HatchedOn = r.HatchedOn
	}
	ind.Version = r.Version
	ind.Touch()
}

// ListIndividualsQuery adds registry-specific filters.
type ListIndividualsQuery struct {
	ListQuery
	Species    string `form:"species"`
	Sex        string `form:"sex"`
	SaleStatus string `form:"saleStatus"`
}

// ToIndividualFilter converts the query to a registry filter.
func (q ListIndividualsQuery) ToIndividualFilter() individual.ListFilter {
	f := individual.ListFilter{
		ListFilter: q.ToFilter(),
		Species:    q.Species,
	}
	if q.Sex != "" {
		sex := individual.Sex(q.Sex)
		f.Sex = &sex
	}
	if q.SaleStatus != "" {
		status := individual.SaleStatus(q.SaleStatus)
		f.SaleStatus = &status
	}
	return f
}
