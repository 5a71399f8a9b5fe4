// Package trade_repo provides the PostgreSQL implementation of the
// adoption repository.
package trade_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/adoption"
	"herptrack/internal/infrastructure/storage/postgres"
)

var adoptionCols = postgres.ExtractDBColumns[adoption.Adoption]()

// AdoptionRepo implements adoption.Repository.
type AdoptionRepo struct {
	*postgres.BaseRepo[*adoption.Adoption]
}

var _ adoption.Repository = (*AdoptionRepo)(nil)

// NewAdoptionRepo creates a new adoption repository.
func NewAdoptionRepo(txm *postgres.TxManager) *AdoptionRepo {
	return &AdoptionRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"adoptions",
			adoptionCols,
			nil,
			func() *adoption.Adoption { return &adoption.Adoption{} },
		),
	}
}

// FindActiveByIndividual returns the non-deleted adoption for the
// individual. At most one exists at a time; the service enforces that on
// create.
func (r *AdoptionRepo) FindActiveByIndividual(ctx context.Context, individualID id.ID) (*adoption.Adoption, error) {
	a := &adoption.Adoption{}

	q := r.Builder().
		Select(adoptionCols...).
		From(r.Table()).
		Where(squirrel.Eq{"individual_id": individualID, "deletion_mark": false}).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), a, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("adoption", individualID.String()).
				WithDetail("individualId", individualID.String())
		}
		return nil, fmt.Errorf("find active adoption: %w", err)
	}
	return a, nil
}

// ListByOwner returns the seller's adoptions.
func (r *AdoptionRepo) ListByOwner(ctx context.Context, ownerID id.ID, filter domain.ListFilter) (domain.ListResult[*adoption.Adoption], error) {
	filter.OwnerID = &ownerID
	return r.List(ctx, filter)
}
