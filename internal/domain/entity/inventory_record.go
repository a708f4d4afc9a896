package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord es la cantidad disponible de un ítem en una bodega.
// Hay como máximo un registro por (bodega, ítem); se crea en la primera entrada
// y el motor de inventario nunca lo elimina.
type InventoryRecord struct {
	ID              string
	CompanyID       string
	WarehouseID     string
	ItemID          string
	Quantity        decimal.Decimal
	LastRestockedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
