package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// NotificationRepository persistencia de notificaciones.
type NotificationRepository interface {
	// CreateBatch inserta ignorando duplicados por (user_id, type, related_id) y devuelve solo las nuevas.
	CreateBatch(ctx context.Context, list []*entity.Notification) ([]*entity.Notification, error)
	ListByUser(ctx context.Context, companyID, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	// MarkRead devuelve false si la notificación no existe o no es del usuario.
	MarkRead(ctx context.Context, companyID, userID, id string, at time.Time) (bool, error)
	MarkAllRead(ctx context.Context, companyID, userID string, at time.Time) (int64, error)
	// PurgeRead elimina las leídas antes de before (todas las empresas).
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}
