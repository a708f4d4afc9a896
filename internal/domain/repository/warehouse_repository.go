package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// WarehouseRepository define el puerto de persistencia para Warehouse (DIP).
// Todas las lecturas van filtradas por companyID explícito; GetByID devuelve (nil, nil)
// si la bodega no existe o pertenece a otra empresa.
type WarehouseRepository interface {
	Create(ctx context.Context, warehouse *entity.Warehouse) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Warehouse, error)
	ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.Warehouse, error)
	// LockByIDs bloquea las bodegas (SELECT FOR UPDATE) en orden de id hasta el fin de la
	// transacción y devuelve las filas bloqueadas. Las que no existen en la empresa no vienen.
	LockByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.Warehouse, error)
	Update(ctx context.Context, warehouse *entity.Warehouse) error
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error)
	Delete(ctx context.Context, companyID, id string) error
}
