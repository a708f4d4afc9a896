package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// HistoryRepository bitácora de cambios de catálogo (bodegas, ítems).
type HistoryRepository interface {
	Append(ctx context.Context, entry *entity.HistoryEntry) error
	List(ctx context.Context, companyID string, kind entity.EntityKind, entityID string) ([]*entity.HistoryEntry, error)
}
