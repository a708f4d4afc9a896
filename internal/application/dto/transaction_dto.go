package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionLineRequest una línea (bodega, ítem, cantidad > 0).
type TransactionLineRequest struct {
	WarehouseID string          `json:"warehouse_id" validate:"required,uuid"`
	ItemID      string          `json:"item_id" validate:"required,uuid"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// CreateTransactionRequest body para POST /api/transactions (INBOUND u OUTBOUND, una o varias líneas).
type CreateTransactionRequest struct {
	Type  string                   `json:"type" validate:"required,oneof=INBOUND OUTBOUND"`
	Note  string                   `json:"note,omitempty"`
	Lines []TransactionLineRequest `json:"lines" validate:"required,min=1"`
}

// TransferRequest body para POST /api/transactions/transfer.
type TransferRequest struct {
	FromWarehouseID string          `json:"from_warehouse_id" validate:"required,uuid"`
	ToWarehouseID   string          `json:"to_warehouse_id" validate:"required,uuid"`
	ItemID          string          `json:"item_id" validate:"required,uuid"`
	Quantity        decimal.Decimal `json:"quantity"`
	Note            string          `json:"note,omitempty"`
}

// WarehouseRef datos de una bodega para mostrar sin otra consulta.
type WarehouseRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// ItemRef datos de un ítem para mostrar.
type ItemRef struct {
	ID   string `json:"id"`
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Unit string `json:"unit"`
}

// UserRef creador de la transacción.
type UserRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// TransactionLineResponse línea del ledger. SignedQuantity es -quantity para SOURCE.
type TransactionLineResponse struct {
	ID             string          `json:"id"`
	Position       int             `json:"position"`
	Role           string          `json:"role"`
	Quantity       decimal.Decimal `json:"quantity"`
	SignedQuantity decimal.Decimal `json:"signed_quantity"`
	Warehouse      WarehouseRef    `json:"warehouse"`
	Item           ItemRef         `json:"item"`
}

// TransactionResponse transacción del ledger con datos de despliegue resueltos.
type TransactionResponse struct {
	ID        string                    `json:"id"`
	CompanyID string                    `json:"company_id"`
	Type      string                    `json:"type"`
	Note      string                    `json:"note,omitempty"`
	CreatedBy UserRef                   `json:"created_by"`
	CreatedAt time.Time                 `json:"created_at"`
	Lines     []TransactionLineResponse `json:"lines"`
}

// TransactionListResponse página del ledger.
type TransactionListResponse struct {
	Items []TransactionResponse `json:"items"`
	Page  PageResponse          `json:"page"`
}
