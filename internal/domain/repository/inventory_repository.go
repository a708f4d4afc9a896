package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// InventoryFilter filtros del listado de existencias. Campos vacíos no filtran.
type InventoryFilter struct {
	WarehouseID string
	ItemID      string
	Limit       int
	Offset      int
}

// InventoryRepository define el puerto para consultar/actualizar existencias por bodega+ítem.
// Las escrituras solo las hace el motor de inventario dentro de una transacción.
type InventoryRepository interface {
	// GetForUpdate devuelve el registro bloqueado (SELECT FOR UPDATE) o (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, companyID, warehouseID, itemID string) (*entity.InventoryRecord, error)
	Create(ctx context.Context, record *entity.InventoryRecord) error
	Update(ctx context.Context, record *entity.InventoryRecord) error
	// SumByWarehouse suma las cantidades de la bodega, excluyendo excludeItemID si no está vacío.
	SumByWarehouse(ctx context.Context, companyID, warehouseID, excludeItemID string) (decimal.Decimal, error)
	SumByItem(ctx context.Context, companyID, itemID string) (decimal.Decimal, error)
	List(ctx context.Context, companyID string, filter InventoryFilter) ([]*entity.InventoryRecord, error)
}
