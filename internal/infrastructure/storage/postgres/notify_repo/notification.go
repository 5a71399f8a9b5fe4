// Package notify_repo provides the PostgreSQL implementation of the
// notification repository.
package notify_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"herptrack/internal/core/id"
	"herptrack/internal/domain"
	"herptrack/internal/domain/notification"
	"herptrack/internal/infrastructure/storage/postgres"
)

var notificationCols = postgres.ExtractDBColumns[notification.Notification]()

// NotificationRepo implements notification.Repository. Create runs on the
// caller's querier, so a notification enqueued inside a transaction commits
// or rolls back with the state change it reports.
type NotificationRepo struct {
	*postgres.BaseRepo[*notification.Notification]
}

var _ notification.Repository = (*NotificationRepo)(nil)

// NewNotificationRepo creates a new notification repository.
func NewNotificationRepo(txm *postgres.TxManager) *NotificationRepo {
	return &NotificationRepo{
		BaseRepo: postgres.NewBaseRepo(
			txm,
			"notifications",
			notificationCols,
			nil,
			func() *notification.Notification { return &notification.Notification{} },
		),
	}
}

// ListByReceiver returns the receiver's notifications, newest first.
func (r *NotificationRepo) ListByReceiver(ctx context.Context, receiverID id.ID, filter domain.ListFilter) (domain.ListResult[*notification.Notification], error) {
	result := domain.ListResult[*notification.Notification]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(notificationCols...).
		From(r.Table()).
		Where(squirrel.Eq{"receiver_id": receiverID, "deletion_mark": false})

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
		return result, fmt.Errorf("list notifications: %w", err)
	}

	return result, nil
}
