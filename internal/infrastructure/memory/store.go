// Package memory implementa los repositorios en memoria con un TxRunner que revierte
// el estado completo si la función falla. Lo usan los tests.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

type state struct {
	companies     map[string]entity.Company
	users         map[string]entity.User
	warehouses    map[string]entity.Warehouse
	items         map[string]entity.Item
	inventory     map[string]entity.InventoryRecord // clave: warehouseID|itemID
	transactions  []entity.Transaction
	notifications []entity.Notification
	history       []entity.HistoryEntry
}

func newState() *state {
	return &state{
		companies:  make(map[string]entity.Company),
		users:      make(map[string]entity.User),
		warehouses: make(map[string]entity.Warehouse),
		items:      make(map[string]entity.Item),
		inventory:  make(map[string]entity.InventoryRecord),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.companies {
		c.companies[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.warehouses {
		c.warehouses[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.inventory {
		c.inventory[k] = v
	}
	c.transactions = append([]entity.Transaction(nil), s.transactions...)
	c.notifications = append([]entity.Notification(nil), s.notifications...)
	c.history = append([]entity.HistoryEntry(nil), s.history...)
	return c
}

// Store contenedor de todos los repositorios en memoria.
// Run toma el candado global durante toda la transacción: las transacciones son serializables.
type Store struct {
	mu     sync.Mutex
	data   *state
	faults map[string]error
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{data: newState(), faults: make(map[string]error)}
}

// FailOn hace que la próxima llamada a op devuelva err (una sola vez).
// op es "<repo>.<método>", p. ej. "transactions.create".
func (s *Store) FailOn(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

func (s *Store) fault(op string) error {
	if err, ok := s.faults[op]; ok {
		delete(s.faults, op)
		return err
	}
	return nil
}

var _ repository.TxRunner = (*Store)(nil)

// Run ejecuta fn con repositorios transaccionales; si fn falla o ctx se cancela, restaura
// el estado previo.
func (s *Store) Run(ctx context.Context, fn func(repos repository.TxRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	if err := fn(txRepos{s: s}); err != nil {
		s.data = snapshot
		return err
	}
	if err := ctx.Err(); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// with ejecuta fn con el candado tomado salvo que ya estemos dentro de Run.
func (s *Store) with(inTx bool, fn func(st *state) error) error {
	if !inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.data)
}

// Repositorios fuera de transacción.
func (s *Store) Companies() *CompanyRepo          { return &CompanyRepo{s: s} }
func (s *Store) Users() *UserRepo                 { return &UserRepo{s: s} }
func (s *Store) Warehouses() *WarehouseRepo       { return &WarehouseRepo{s: s} }
func (s *Store) Items() *ItemRepo                 { return &ItemRepo{s: s} }
func (s *Store) Inventory() *InventoryRepo        { return &InventoryRepo{s: s} }
func (s *Store) Transactions() *TransactionRepo   { return &TransactionRepo{s: s} }
func (s *Store) Notifications() *NotificationRepo { return &NotificationRepo{s: s} }
func (s *Store) History() *HistoryRepo            { return &HistoryRepo{s: s} }

type txRepos struct{ s *Store }

func (t txRepos) Warehouses() repository.WarehouseRepository {
	return &WarehouseRepo{s: t.s, inTx: true}
}
func (t txRepos) Items() repository.ItemRepository { return &ItemRepo{s: t.s, inTx: true} }
func (t txRepos) Inventory() repository.InventoryRepository {
	return &InventoryRepo{s: t.s, inTx: true}
}
func (t txRepos) Transactions() repository.TransactionRepository {
	return &TransactionRepo{s: t.s, inTx: true}
}
func (t txRepos) History() repository.HistoryRepository { return &HistoryRepo{s: t.s, inTx: true} }
func (t txRepos) Users() repository.UserRepository      { return &UserRepo{s: t.s, inTx: true} }

func page[T any](list []T, limit, offset int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func idSet(ids []string) map[string]struct{} {
	m := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}
