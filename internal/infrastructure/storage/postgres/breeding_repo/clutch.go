package breeding_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"herptrack/internal/core/id"
	"herptrack/internal/domain/clutch"
	"herptrack/internal/infrastructure/storage/postgres"
)

var (
	clutchCols = postgres.ExtractDBColumns[clutch.Clutch]()
	eggCols    = postgres.ExtractDBColumns[clutch.Egg]()
)

// ClutchRepo implements clutch.Repository over the clutches and eggs tables.
// The two tables form one aggregate, so a single repository serves both.
type ClutchRepo struct {
	clutches *postgres.BaseRepo[*clutch.Clutch]
	eggs     *postgres.BaseRepo[*clutch.Egg]
}

var _ clutch.Repository = (*ClutchRepo)(nil)

// NewClutchRepo creates a new clutch repository.
func NewClutchRepo(txm *postgres.TxManager) *ClutchRepo {
	return &ClutchRepo{
		clutches: postgres.NewBaseRepo(
			txm,
			"clutches",
			clutchCols,
			nil,
			func() *clutch.Clutch { return &clutch.Clutch{} },
		),
		eggs: postgres.NewBaseRepo(
			txm,
			"eggs",
			eggCols,
			nil,
			func() *clutch.Egg { return &clutch.Egg{} },
		),
	}
}

// CreateClutch inserts a clutch together with its pre-seeded eggs. The
// caller wraps this in a transaction.
func (r *ClutchRepo) CreateClutch(ctx context.Context, c *clutch.Clutch, eggs []*clutch.Egg) error {
	if err := r.clutches.Create(ctx, c); err != nil {
		return err
	}
	for _, e := range eggs {
		if err := r.eggs.Create(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func (r *ClutchRepo) GetClutchByID(ctx context.Context, clutchID id.ID) (*clutch.Clutch, error) {
	return r.clutches.GetByID(ctx, clutchID)
}

func (r *ClutchRepo) UpdateClutch(ctx context.Context, c *clutch.Clutch) error {
	return r.clutches.Update(ctx, c)
}

func (r *ClutchRepo) SetClutchDeletionMark(ctx context.Context, clutchID id.ID, marked bool) error {
	return r.clutches.SetDeletionMark(ctx, clutchID, marked)
}

// ListByMating returns the non-deleted clutches of a mating ordered by
// clutch order.
func (r *ClutchRepo) ListByMating(ctx context.Context, matingID id.ID) ([]*clutch.Clutch, error) {
	q := r.clutches.Builder().
		Select(clutchCols...).
		From(r.clutches.Table()).
		Where(squirrel.Eq{"mating_id": matingID, "deletion_mark": false}).
		OrderBy("clutch_order ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var clutches []*clutch.Clutch
	if err := pgxscan.Select(ctx, r.clutches.Querier(ctx), &clutches, sql, args...); err != nil {
		return nil, fmt.Errorf("list clutches: %w", err)
	}
	return clutches, nil
}

func (r *ClutchRepo) CountActiveByMating(ctx context.Context, matingID id.ID) (int, error) {
	q := r.clutches.Builder().
		Select("COUNT(*)").
		From(r.clutches.Table()).
		Where(squirrel.Eq{"mating_id": matingID, "deletion_mark": false})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.clutches.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count clutches: %w", err)
	}
	return count, nil
}

func (r *ClutchRepo) GetEggByID(ctx context.Context, eggID id.ID) (*clutch.Egg, error) {
	return r.eggs.GetByID(ctx, eggID)
}

func (r *ClutchRepo) UpdateEgg(ctx context.Context, e *clutch.Egg) error {
	return r.eggs.Update(ctx, e)
}

// ListEggsByClutch returns the non-deleted eggs of a clutch ordered by
// position.
func (r *ClutchRepo) ListEggsByClutch(ctx context.Context, clutchID id.ID) ([]*clutch.Egg, error) {
	q := r.eggs.Builder().
		Select(eggCols...).
		From(r.eggs.Table()).
		Where(squirrel.Eq{"clutch_id": clutchID, "deletion_mark": false}).
		OrderBy("position ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var eggs []*clutch.Egg
	if err := pgxscan.Select(ctx, r.eggs.Querier(ctx), &eggs, sql, args...); err != nil {
		return nil, fmt.Errorf("list eggs: %w", err)
	}
	return eggs, nil
}

// HasHatchedEgg reports whether any non-deleted egg of the clutch has
// already minted an individual.
func (r *ClutchRepo) HasHatchedEgg(ctx context.Context, clutchID id.ID) (bool, error) {
	q := r.eggs.Builder().
		Select("1").
		From(r.eggs.Table()).
		Where(squirrel.Eq{"clutch_id": clutchID, "deletion_mark": false}).
		Where("hatched_individual_id IS NOT NULL").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	if err := r.eggs.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("has hatched egg: %w", err)
	}
	return true, nil
}

// MarkEggsDeletedByClutch soft-deletes every unhatched egg of the clutch.
func (r *ClutchRepo) MarkEggsDeletedByClutch(ctx context.Context, clutchID id.ID) error {
	q := r.eggs.Builder().
		Update(r.eggs.Table()).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"clutch_id": clutchID, "deletion_mark": false}).
		Where("hatched_individual_id IS NULL")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.eggs.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("cascade mark eggs deleted: %w", err)
	}
	return nil
}

// CountUnhatchedByParent counts unhatched eggs in clutches whose mating
// references the individual as father or mother.
func (r *ClutchRepo) CountUnhatchedByParent(ctx context.Context, individualID id.ID) (int, error) {
	q := r.eggs.Builder().
		Select("COUNT(*)").
		From("eggs e").
		Join("clutches c ON c.id = e.clutch_id").
		Join("matings m ON m.id = c.mating_id").
		Where(squirrel.Eq{"e.deletion_mark": false, "c.deletion_mark": false, "m.deletion_mark": false}).
		Where("e.hatched_individual_id IS NULL").
		Where(squirrel.Or{
			squirrel.Eq{"m.father_id": individualID},
			squirrel.Eq{"m.mother_id": individualID},
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int
	if err := r.eggs.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count unhatched by parent: %w", err)
	}
	return count, nil
}
