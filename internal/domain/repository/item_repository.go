package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// ItemRepository define el puerto de persistencia para Item (DIP).
type ItemRepository interface {
	Create(ctx context.Context, item *entity.Item) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Item, error)
	GetBySKU(ctx context.Context, companyID, sku string) (*entity.Item, error)
	ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.Item, error)
	Update(ctx context.Context, item *entity.Item) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Item, error)
	Delete(ctx context.Context, companyID, id string) error
}
