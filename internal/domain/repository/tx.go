package repository

import "context"

// TxRepositories repositorios atados a una misma transacción de BD.
type TxRepositories interface {
	Warehouses() WarehouseRepository
	Items() ItemRepository
	Inventory() InventoryRepository
	Transactions() TransactionRepository
	History() HistoryRepository
	Users() UserRepository
}

// TxRunner ejecuta fn dentro de una transacción: Commit si fn devuelve nil, Rollback en otro caso.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepositories) error) error
}
