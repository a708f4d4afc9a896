package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
// Usa READ COMMITTED: la serialización por bodega la dan los SELECT ... FOR UPDATE de los repos.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(context.WithoutCancel(ctx)) }()

	if err := fn(txRepos{q: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type txRepos struct{ q Querier }

func (t txRepos) Warehouses() repository.WarehouseRepository { return NewWarehouseRepository(t.q) }
func (t txRepos) Items() repository.ItemRepository           { return NewItemRepository(t.q) }
func (t txRepos) Inventory() repository.InventoryRepository  { return NewInventoryRepository(t.q) }
func (t txRepos) Transactions() repository.TransactionRepository {
	return NewTransactionRepository(t.q)
}
func (t txRepos) History() repository.HistoryRepository { return NewHistoryRepository(t.q) }
func (t txRepos) Users() repository.UserRepository      { return NewUserRepository(t.q) }
