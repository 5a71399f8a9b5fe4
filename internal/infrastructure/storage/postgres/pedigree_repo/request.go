// Package pedigree_repo provides the PostgreSQL implementation of the
// parent link request repository.
package pedigree_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"herptrack/internal/core/apperror"
	"herptrack/internal/core/id"
	"herptrack/internal/domain/parentlink"
	"herptrack/internal/infrastructure/storage/postgres"
)

var requestCols = postgres.ExtractDBColumns[parentlink.Request]()

// RequestRepo implements parentlink.Repository.
//
// The duplicate-pending and single-approved-parent invariants are backed by
// the partial unique indexes parent_link_requests_pending_uniq and
// parent_link_requests_approved_uniq, which close the race between the
// service pre-checks and the write.
type RequestRepo struct {
	*postgres.BaseRepo[*parentlink.Request]
}

var _ parentlink.Repository = (*RequestRepo)(nil)

// NewRequestRepo creates a new parent link request repository.
func NewRequestRepo(txm *postgres.TxManager) *RequestRepo {
	return &RequestRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"parent_link_requests",
			requestCols,
			nil,
			func() *parentlink.Request { return &parentlink.Request{} },
		),
	}
}

// mapConstraintErr translates the partial unique index violations backing
// the link invariants into Conflict errors.
func mapConstraintErr(err error, req *parentlink.Request) error {
	switch {
	case postgres.IsUniqueViolation(err, "parent_link_requests_pending_uniq"):
		return apperror.NewConflict("a pending request for this parent link already exists").
			WithDetail("childId", req.ChildID.String()).
			WithDetail("parentId", req.ParentID.String()).
			WithDetail("role", string(req.Role)).
			WithCause(err)
	case postgres.IsUniqueViolation(err, "parent_link_requests_approved_uniq"):
		return apperror.NewConflict("the child already has an approved link for this role").
			WithDetail("childId", req.ChildID.String()).
			WithDetail("role", string(req.Role)).
			WithCause(err)
	}
	return err
}

// Create inserts a request, mapping uniqueness violations to Conflict
// errors.
func (r *RequestRepo) Create(ctx context.Context, req *parentlink.Request) error {
	if err := r.BaseRepo.Create(ctx, req); err != nil {
		return mapConstraintErr(err, req)
	}
	return nil
}

// Update modifies a request, mapping uniqueness violations to Conflict
// errors. Approving a pending request can trip the approved-link index when
// another request for the same (child, role) was approved in between.
func (r *RequestRepo) Update(ctx context.Context, req *parentlink.Request) error {
	if err := r.BaseRepo.Update(ctx, req); err != nil {
		return mapConstraintErr(err, req)
	}
	return nil
}

// PendingExists checks for a pending request on the same edge.
func (r *RequestRepo) PendingExists(ctx context.Context, childID, parentID id.ID, role parentlink.Role) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.Table()).
		Where(squirrel.Eq{
			"child_id":      childID,
			"parent_id":     parentID,
			"role":          role,
			"status":        parentlink.StatusPending,
			"deletion_mark": false,
		}).
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
		return false, fmt.Errorf("pending exists: %w", err)
	}
	return true, nil
}

// ApprovedExists checks for an approved link for (child, role).
func (r *RequestRepo) ApprovedExists(ctx context.Context, childID id.ID, role parentlink.Role) (bool, error) {
	q := r.Builder().
		Select("1").
		From(r.Table()).
		Where(squirrel.Eq{
			"child_id":      childID,
			"role":          role,
			"status":        parentlink.StatusApproved,
			"deletion_mark": false,
		}).
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
		return false, fmt.Errorf("approved exists: %w", err)
	}
	return true, nil
}

// FindActive returns the most recent non-deleted pending or approved
// request for (child, role).
func (r *RequestRepo) FindActive(ctx context.Context, childID id.ID, role parentlink.Role) (*parentlink.Request, error) {
	req := &parentlink.Request{}

	q := r.Builder().
		Select(requestCols...).
		From(r.Table()).
		Where(squirrel.Eq{
			"child_id":      childID,
			"role":          role,
			"deletion_mark": false,
		}).
		Where(squirrel.Eq{"status": []parentlink.Status{parentlink.StatusPending, parentlink.StatusApproved}}).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.Querier(ctx), req, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("parent link", childID.String()).
				WithDetail("role", string(role))
		}
		return nil, fmt.Errorf("find active link: %w", err)
	}
	return req, nil
}

// ListByIndividual returns all non-deleted requests referencing the
// individual as either child or parent.
func (r *RequestRepo) ListByIndividual(ctx context.Context, individualID id.ID) ([]*parentlink.Request, error) {
	q := r.Builder().
		Select(requestCols...).
		From(r.Table()).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Or{
			squirrel.Eq{"child_id": individualID},
			squirrel.Eq{"parent_id": individualID},
		}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var requests []*parentlink.Request
	if err := pgxscan.Select(ctx, r.Querier(ctx), &requests, sql, args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// MarkDeletedByIndividual bulk-marks every non-deleted request referencing
// the individual as deleted.
func (r *RequestRepo) MarkDeletedByIndividual(ctx context.Context, individualID id.ID) error {
	q := r.Builder().
		Update(r.Table()).
		Set("status", parentlink.StatusDeleted).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("now()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"deletion_mark": false}).
		Where(squirrel.Or{
			squirrel.Eq{"child_id": individualID},
			squirrel.Eq{"parent_id": individualID},
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := r.Querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("cascade mark deleted: %w", err)
	}
	return nil
}
