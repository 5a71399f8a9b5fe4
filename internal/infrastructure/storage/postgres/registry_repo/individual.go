// Package registry_repo provides the PostgreSQL implementation of the
// individual registry repository.
package registry_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/individual"
	"herptrack/internal/infrastructure/storage/postgres"
)

var individualCols = postgres.ExtractDBColumns[individual.Individual]()

// IndividualRepo implements individual.Repository.
type IndividualRepo struct {
	*postgres.BaseRepo[*individual.Individual]
}

var _ individual.Repository = (*IndividualRepo)(nil)

// NewIndividualRepo creates a new individual repository.
func NewIndividualRepo(txm *postgres.TxManager) *IndividualRepo {
	return &IndividualRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"individuals",
			individualCols,
			[]string{"name", "species"},
			func() *individual.Individual { return &individual.Individual{} },
		),
	}
}

// UpdateSaleStatus overwrites the sale status only.
func (r *IndividualRepo) UpdateSaleStatus(ctx context.Context, individualID id.ID, status individual.SaleStatus) error {
	q := r.Builder().
		Update(r.Table()).
		Set("sale_status", status).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": individualID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update sale status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("individual", individualID.String())
	}
	return nil
}

// List retrieves individuals with registry-specific filtering.
func (r *IndividualRepo) List(ctx context.Context, filter individual.ListFilter) (domain.ListResult[*individual.Individual], error) {
	result := domain.ListResult[*individual.Individual]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(individualCols...).
		From(r.Table())

	q, err := r.ApplyFilter(q, filter.ListFilter)
	if err != nil {
		return result, err
	}

	if filter.Species != "" {
		q = q.Where(squirrel.Eq{"species": filter.Species})
	}
	if filter.Sex != nil {
		q = q.Where(squirrel.Eq{"sex": *filter.Sex})
	}
	if filter.SaleStatus != nil {
		q = q.Where(squirrel.Eq{"sale_status": *filter.SaleStatus})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	querier := r.Querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list individuals: %w", err)
	}

	return result, nil
}
