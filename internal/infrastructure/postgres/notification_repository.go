package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo notificaciones por usuario sobre PostgreSQL.
type NotificationRepo struct {
	q Querier
}

func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// CreateBatch inserta cada notificación con ON CONFLICT DO NOTHING; solo las que devuelven
// fila son nuevas.
func (r *NotificationRepo) CreateBatch(ctx context.Context, list []*entity.Notification) ([]*entity.Notification, error) {
	query := `
		INSERT INTO notifications (id, company_id, user_id, type, title, message, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, type, related_id) DO NOTHING
		RETURNING id`
	var created []*entity.Notification
	for _, n := range list {
		rows, err := r.q.Query(ctx, query, n.ID, n.CompanyID, n.UserID, n.Type, n.Title, n.Message, n.RelatedID, n.CreatedAt)
		if err != nil {
			return created, fmt.Errorf("insert notification: %w", err)
		}
		inserted := rows.Next()
		rows.Close()
		if err := rows.Err(); err != nil {
			return created, fmt.Errorf("insert notification: %w", err)
		}
		if inserted {
			created = append(created, n)
		}
	}
	return created, nil
}

func (r *NotificationRepo) ListByUser(ctx context.Context, companyID, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := `
		SELECT id, company_id, user_id, type, title, message, related_id, read_at, created_at
		FROM notifications
		WHERE company_id = $1 AND user_id = $2 AND (NOT $3 OR read_at IS NULL)
		ORDER BY created_at DESC, id
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, companyID, userID, unreadOnly, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var list []*entity.Notification
	for rows.Next() {
		var n entity.Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.RelatedID, &n.ReadAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		list = append(list, &n)
	}
	return list, rows.Err()
}

func (r *NotificationRepo) MarkRead(ctx context.Context, companyID, userID, id string, at time.Time) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE notifications SET read_at = COALESCE(read_at, $4)
		WHERE company_id = $1 AND user_id = $2 AND id = $3`, companyID, userID, id, at)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, companyID, userID string, at time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE notifications SET read_at = $3
		WHERE company_id = $1 AND user_id = $2 AND read_at IS NULL`, companyID, userID, at)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return cmd.RowsAffected(), nil
}

func (r *NotificationRepo) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM notifications WHERE read_at IS NOT NULL AND read_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return cmd.RowsAffected(), nil
}
