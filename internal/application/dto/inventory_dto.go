package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecordResponse existencias de un ítem en una bodega.
type InventoryRecordResponse struct {
	ID              string          `json:"id"`
	Warehouse       WarehouseRef    `json:"warehouse"`
	Item            ItemRef         `json:"item"`
	Quantity        decimal.Decimal `json:"quantity"`
	LastRestockedAt *time.Time      `json:"last_restocked_at,omitempty"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// InventoryListResponse página de existencias.
type InventoryListResponse struct {
	Items []InventoryRecordResponse `json:"items"`
	Page  PageResponse              `json:"page"`
}

// WarehouseUtilizationResponse ocupación de una bodega.
type WarehouseUtilizationResponse struct {
	WarehouseID string          `json:"warehouse_id"`
	Name        string          `json:"name"`
	Capacity    int64           `json:"capacity"`
	Used        decimal.Decimal `json:"used"`
	Available   decimal.Decimal `json:"available"`
	Percentage  decimal.Decimal `json:"percentage"` // 0-100, dos decimales
}
