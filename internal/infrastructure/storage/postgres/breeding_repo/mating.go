// Package breeding_repo provides the PostgreSQL implementations of the
// mating register and clutch tracker repositories.
package breeding_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/mating"
	"herptrack/internal/infrastructure/storage/postgres"
)

var matingCols = postgres.ExtractDBColumns[mating.Mating]()

// MatingRepo implements mating.Repository.
type MatingRepo struct {
	*postgres.BaseRepo[*mating.Mating]
}

var _ mating.Repository = (*MatingRepo)(nil)

// NewMatingRepo creates a new mating repository.
func NewMatingRepo(txm *postgres.TxManager) *MatingRepo {
	return &MatingRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"matings",
			matingCols,
			nil,
			func() *mating.Mating { return &mating.Mating{} },
		),
	}
}

// TupleExists checks for another non-deleted mating with the same
// (owner, father, mother, date) tuple. squirrel renders nil parent ids as
// IS NULL, so unknown parents compare correctly.
func (r *MatingRepo) TupleExists(ctx context.Context, ownerID id.ID, fatherID, motherID *id.ID, matedOn time.Time, excludeID id.ID) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.Table()).
		Where(squirrel.Eq{
			"owner_id":      ownerID,
			"father_id":     fatherID,
			"mother_id":     motherID,
			"mated_on":      matedOn,
			"deletion_mark": false,
		}).
		Where(squirrel.NotEq{"id": excludeID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("tuple exists: %w", err)
	}
	return true, nil
}

// parentRow carries one parent summary joined to its mating.
type parentRow struct {
	MatingID id.ID  `db:"mating_id"`
	Side     string `db:"side"`
	mating.ParentSummary
}

// clutchRow carries one nested clutch summary joined to its mating.
type clutchRow struct {
	MatingID id.ID `db:"mating_id"`
	mating.ClutchSummary
}

// ListViews returns the owner's matings joined with parent summaries and
// nested clutch summaries, newest first.
func (r *MatingRepo) ListViews(ctx context.Context, ownerID id.ID, filter domain.ListFilter) (domain.ListResult[*mating.View], error) {
	filter.OwnerID = &ownerID
	base, err := r.List(ctx, filter)
	if err != nil {
		return domain.ListResult[*mating.View]{}, err
	}

	result := domain.ListResult[*mating.View]{
		TotalCount: base.TotalCount,
		Limit:      base.Limit,
		Offset:     base.Offset,
	}
	if len(base.Items) == 0 {
		return result, nil
	}

	views := make(map[id.ID]*mating.View, len(base.Items))
	matingIDs := make([]id.ID, 0, len(base.Items))
	for _, m := range base.Items {
		v := &mating.View{Mating: *m, Clutches: []mating.ClutchSummary{}}
		views[m.ID] = v
		matingIDs = append(matingIDs, m.ID)
		result.Items = append(result.Items, v)
	}

	if err := r.attachParents(ctx, views, matingIDs); err != nil {
		return result, err
	}
	if err := r.attachClutches(ctx, views, matingIDs); err != nil {
		return result, err
	}

	return result, nil
}

func (r *MatingRepo) attachParents(ctx context.Context, views map[id.ID]*mating.View, matingIDs []id.ID) error {
	q := r.Builder().
		Select(
			"m.id AS mating_id",
			"CASE WHEN i.id = m.father_id THEN 'father' ELSE 'mother' END AS side",
			"i.id", "i.name", "i.species", "i.sex",
		).
		From("matings m").
		Join("individuals i ON i.id IN (m.father_id, m.mother_id)").
		Where(squirrel.Eq{"m.id": matingIDs})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build parents query: %w", err)
	}

	var rows []parentRow
	if err := pgxscan.Select(ctx, r.Querier(ctx), &rows, sql, args...); err != nil {
		return fmt.Errorf("load parent summaries: %w", err)
	}

	for _, row := range rows {
		v, ok := views[row.MatingID]
		if !ok {
			continue
		}
		summary := row.ParentSummary
		if row.Side == "father" {
			v.Father = &summary
		} else {
			v.Mother = &summary
		}
	}
	return nil
}

func (r *MatingRepo) attachClutches(ctx context.Context, views map[id.ID]*mating.View, matingIDs []id.ID) error {
	q := r.Builder().
		Select(
			"c.mating_id",
			"c.id", "c.clutch_order", "c.laid_on",
			"COUNT(e.id) FILTER (WHERE e.deletion_mark = false) AS egg_count",
			"COUNT(e.id) FILTER (WHERE e.deletion_mark = false AND e.hatched_individual_id IS NOT NULL) AS hatched_count",
		).
		From("clutches c").
		LeftJoin("eggs e ON e.clutch_id = c.id").
		Where(squirrel.Eq{"c.mating_id": matingIDs, "c.deletion_mark": false}).
		GroupBy("c.mating_id", "c.id", "c.clutch_order", "c.laid_on").
		OrderBy("c.clutch_order ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build clutches query: %w", err)
	}

	var rows []clutchRow
	if err := pgxscan.Select(ctx, r.Querier(ctx), &rows, sql, args...); err != nil {
		return fmt.Errorf("load clutch summaries: %w", err)
	}

	for _, row := range rows {
		if v, ok := views[row.MatingID]; ok {
			v.Clutches = append(v.Clutches, row.ClutchSummary)
		}
	}
	return nil
}
