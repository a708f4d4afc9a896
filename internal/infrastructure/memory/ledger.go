package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.InventoryRepository   = (*InventoryRepo)(nil)
	_ repository.TransactionRepository = (*TransactionRepo)(nil)
)

func inventoryKey(warehouseID, itemID string) string { return warehouseID + "|" + itemID }

// InventoryRepo existencias en memoria.
type InventoryRepo struct {
	s    *Store
	inTx bool
}

func (r *InventoryRepo) GetForUpdate(_ context.Context, companyID, warehouseID, itemID string) (*entity.InventoryRecord, error) {
	var out *entity.InventoryRecord
	err := r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("inventory.get"); err != nil {
			return err
		}
		if rec, ok := st.inventory[inventoryKey(warehouseID, itemID)]; ok && rec.CompanyID == companyID {
			out = &rec
		}
		return nil
	})
	return out, err
}

func (r *InventoryRepo) Create(_ context.Context, rec *entity.InventoryRecord) error {
	return r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("inventory.create"); err != nil {
			return err
		}
		key := inventoryKey(rec.WarehouseID, rec.ItemID)
		if _, ok := st.inventory[key]; ok {
			return domain.ErrDuplicate
		}
		st.inventory[key] = *rec
		return nil
	})
}

func (r *InventoryRepo) Update(_ context.Context, rec *entity.InventoryRecord) error {
	return r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("inventory.update"); err != nil {
			return err
		}
		key := inventoryKey(rec.WarehouseID, rec.ItemID)
		if _, ok := st.inventory[key]; !ok {
			return domain.ErrNotFound
		}
		st.inventory[key] = *rec
		return nil
	})
}

func (r *InventoryRepo) SumByWarehouse(_ context.Context, companyID, warehouseID, excludeItemID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.s.with(r.inTx, func(st *state) error {
		for _, rec := range st.inventory {
			if rec.CompanyID == companyID && rec.WarehouseID == warehouseID && rec.ItemID != excludeItemID {
				total = total.Add(rec.Quantity)
			}
		}
		return nil
	})
	return total, err
}

func (r *InventoryRepo) SumByItem(_ context.Context, companyID, itemID string) (decimal.Decimal, error) {
	total := decimal.Zero
	err := r.s.with(r.inTx, func(st *state) error {
		for _, rec := range st.inventory {
			if rec.CompanyID == companyID && rec.ItemID == itemID {
				total = total.Add(rec.Quantity)
			}
		}
		return nil
	})
	return total, err
}

func (r *InventoryRepo) List(_ context.Context, companyID string, f repository.InventoryFilter) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	err := r.s.with(r.inTx, func(st *state) error {
		var all []entity.InventoryRecord
		for _, rec := range st.inventory {
			if rec.CompanyID != companyID {
				continue
			}
			if f.WarehouseID != "" && rec.WarehouseID != f.WarehouseID {
				continue
			}
			if f.ItemID != "" && rec.ItemID != f.ItemID {
				continue
			}
			all = append(all, rec)
		}
		sort.Slice(all, func(i, j int) bool {
			return inventoryKey(all[i].WarehouseID, all[i].ItemID) < inventoryKey(all[j].WarehouseID, all[j].ItemID)
		})
		for _, rec := range page(all, f.Limit, f.Offset) {
			rec := rec
			out = append(out, &rec)
		}
		return nil
	})
	return out, err
}

// TransactionRepo ledger en memoria (solo inserción).
type TransactionRepo struct {
	s    *Store
	inTx bool
}

func (r *TransactionRepo) Create(_ context.Context, t *entity.Transaction) error {
	return r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("transactions.create"); err != nil {
			return err
		}
		cp := *t
		cp.Lines = append([]entity.TransactionLine(nil), t.Lines...)
		st.transactions = append(st.transactions, cp)
		return nil
	})
}

func (r *TransactionRepo) GetByID(_ context.Context, companyID, id string) (*entity.Transaction, error) {
	var out *entity.Transaction
	err := r.s.with(r.inTx, func(st *state) error {
		for _, t := range st.transactions {
			if t.ID == id && t.CompanyID == companyID {
				t := t
				out = &t
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *TransactionRepo) List(_ context.Context, companyID string, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	var out []*entity.Transaction
	err := r.s.with(r.inTx, func(st *state) error {
		var all []entity.Transaction
		// Recorrido inverso: la más reciente primero
		for i := len(st.transactions) - 1; i >= 0; i-- {
			t := st.transactions[i]
			if t.CompanyID != companyID || (f.Type != "" && t.Type != f.Type) {
				continue
			}
			if !touches(t, f.WarehouseID, f.ItemID) {
				continue
			}
			all = append(all, t)
		}
		sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
		for _, t := range page(all, f.Limit, f.Offset) {
			t := t
			out = append(out, &t)
		}
		return nil
	})
	return out, err
}

func touches(t entity.Transaction, warehouseID, itemID string) bool {
	if warehouseID == "" && itemID == "" {
		return true
	}
	for _, l := range t.Lines {
		if (warehouseID == "" || l.WarehouseID == warehouseID) && (itemID == "" || l.ItemID == itemID) {
			return true
		}
	}
	return false
}
