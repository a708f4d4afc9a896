package repository

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// TransactionFilter filtros del listado del ledger. Campos vacíos no filtran.
type TransactionFilter struct {
	Type        entity.TransactionType
	WarehouseID string
	ItemID      string
	Limit       int
	Offset      int
}

// TransactionRepository ledger append-only: no hay Update ni Delete.
type TransactionRepository interface {
	// Create inserta la cabecera y sus líneas en orden.
	Create(ctx context.Context, tx *entity.Transaction) error
	GetByID(ctx context.Context, companyID, id string) (*entity.Transaction, error)
	// List devuelve la página más reciente primero, con sus líneas cargadas.
	List(ctx context.Context, companyID string, filter TransactionFilter) ([]*entity.Transaction, error)
}
