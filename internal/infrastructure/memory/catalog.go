package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository   = (*CompanyRepo)(nil)
	_ repository.UserRepository      = (*UserRepo)(nil)
	_ repository.WarehouseRepository = (*WarehouseRepo)(nil)
	_ repository.ItemRepository      = (*ItemRepo)(nil)
)

// CompanyRepo empresas en memoria.
type CompanyRepo struct {
	s    *Store
	inTx bool
}

func (r *CompanyRepo) Create(_ context.Context, c *entity.Company) error {
	return r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("companies.create"); err != nil {
			return err
		}
		for _, other := range st.companies {
			if other.TaxID == c.TaxID {
				return domain.ErrDuplicate
			}
		}
		st.companies[c.ID] = *c
		return nil
	})
}

func (r *CompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	var out *entity.Company
	err := r.s.with(r.inTx, func(st *state) error {
		if c, ok := st.companies[id]; ok {
			out = &c
		}
		return nil
	})
	return out, err
}

func (r *CompanyRepo) GetByTaxID(_ context.Context, taxID string) (*entity.Company, error) {
	var out *entity.Company
	err := r.s.with(r.inTx, func(st *state) error {
		for _, c := range st.companies {
			if c.TaxID == taxID {
				c := c
				out = &c
				return nil
			}
		}
		return nil
	})
	return out, err
}

// UserRepo usuarios en memoria.
type UserRepo struct {
	s    *Store
	inTx bool
}

func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	return r.s.with(r.inTx, func(st *state) error {
		for _, other := range st.users {
			if other.Email == u.Email && other.CompanyID == u.CompanyID {
				return domain.ErrEmailAlreadyExists
			}
		}
		st.users[u.ID] = *u
		return nil
	})
}

func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("users.get"); err != nil {
			return err
		}
		if u, ok := st.users[id]; ok {
			out = &u
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) GetByEmailAndCompany(_ context.Context, email, companyID string) (*entity.User, error) {
	var out *entity.User
	err := r.s.with(r.inTx, func(st *state) error {
		for _, u := range st.users {
			if u.Email == email && u.CompanyID == companyID {
				u := u
				out = &u
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.s.with(r.inTx, func(st *state) error {
		var candidates []entity.User
		for _, u := range st.users {
			if u.Email == email {
				candidates = append(candidates, u)
			}
		}
		if len(candidates) == 0 {
			return nil
		}
		sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.Before(candidates[j].CreatedAt) })
		out = &candidates[0]
		return nil
	})
	return out, err
}

func (r *UserRepo) ListByIDs(_ context.Context, companyID string, ids []string) ([]*entity.User, error) {
	var out []*entity.User
	err := r.s.with(r.inTx, func(st *state) error {
		for _, id := range ids {
			if u, ok := st.users[id]; ok && u.CompanyID == companyID {
				out = append(out, &u)
			}
		}
		return nil
	})
	return out, err
}

func (r *UserRepo) ListActiveIDs(_ context.Context, companyID string) ([]string, error) {
	var out []string
	err := r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("users.list_active"); err != nil {
			return err
		}
		for _, u := range st.users {
			if u.CompanyID == companyID && u.Status == entity.UserStatusActive {
				out = append(out, u.ID)
			}
		}
		sort.Strings(out)
		return nil
	})
	return out, err
}

func (r *UserRepo) UpdateStatus(_ context.Context, companyID, id, status string, at time.Time) (bool, error) {
	var ok bool
	err := r.s.with(r.inTx, func(st *state) error {
		u, found := st.users[id]
		if !found || u.CompanyID != companyID {
			return nil
		}
		u.Status, u.UpdatedAt = status, at
		st.users[id] = u
		ok = true
		return nil
	})
	return ok, err
}

// WarehouseRepo bodegas en memoria.
type WarehouseRepo struct {
	s    *Store
	inTx bool
}

func (r *WarehouseRepo) Create(_ context.Context, w *entity.Warehouse) error {
	return r.s.with(r.inTx, func(st *state) error {
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepo) GetByID(_ context.Context, companyID, id string) (*entity.Warehouse, error) {
	var out *entity.Warehouse
	err := r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("warehouses.get"); err != nil {
			return err
		}
		if w, ok := st.warehouses[id]; ok && w.CompanyID == companyID {
			out = &w
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) ListByIDs(_ context.Context, companyID string, ids []string) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.s.with(r.inTx, func(st *state) error {
		for _, id := range ids {
			if w, ok := st.warehouses[id]; ok && w.CompanyID == companyID {
				out = append(out, &w)
			}
		}
		return nil
	})
	return out, err
}

// LockByIDs no bloquea nada (Run ya serializa las transacciones); devuelve las bodegas en orden de id.
func (r *WarehouseRepo) LockByIDs(_ context.Context, companyID string, ids []string) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.s.with(r.inTx, func(st *state) error {
		if err := r.s.fault("warehouses.lock"); err != nil {
			return err
		}
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		for i, id := range sorted {
			if i > 0 && id == sorted[i-1] {
				continue
			}
			if w, ok := st.warehouses[id]; ok && w.CompanyID == companyID {
				w := w
				out = append(out, &w)
			}
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) Update(_ context.Context, w *entity.Warehouse) error {
	return r.s.with(r.inTx, func(st *state) error {
		cur, ok := st.warehouses[w.ID]
		if !ok || cur.CompanyID != w.CompanyID {
			return domain.ErrNotFound
		}
		st.warehouses[w.ID] = *w
		return nil
	})
}

func (r *WarehouseRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	var out []*entity.Warehouse
	err := r.s.with(r.inTx, func(st *state) error {
		var all []entity.Warehouse
		for _, w := range st.warehouses {
			if w.CompanyID == companyID {
				all = append(all, w)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
		for _, w := range page(all, limit, offset) {
			w := w
			out = append(out, &w)
		}
		return nil
	})
	return out, err
}

func (r *WarehouseRepo) Delete(_ context.Context, companyID, id string) error {
	return r.s.with(r.inTx, func(st *state) error {
		w, ok := st.warehouses[id]
		if !ok || w.CompanyID != companyID {
			return domain.ErrNotFound
		}
		delete(st.warehouses, id)
		return nil
	})
}

// ItemRepo ítems en memoria.
type ItemRepo struct {
	s    *Store
	inTx bool
}

func (r *ItemRepo) Create(_ context.Context, it *entity.Item) error {
	return r.s.with(r.inTx, func(st *state) error {
		for _, other := range st.items {
			if other.CompanyID == it.CompanyID && other.SKU == it.SKU {
				return domain.ErrDuplicate
			}
		}
		st.items[it.ID] = *it
		return nil
	})
}

func (r *ItemRepo) GetByID(_ context.Context, companyID, id string) (*entity.Item, error) {
	var out *entity.Item
	err := r.s.with(r.inTx, func(st *state) error {
		if it, ok := st.items[id]; ok && it.CompanyID == companyID {
			out = &it
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) GetBySKU(_ context.Context, companyID, sku string) (*entity.Item, error) {
	var out *entity.Item
	err := r.s.with(r.inTx, func(st *state) error {
		for _, it := range st.items {
			if it.CompanyID == companyID && it.SKU == sku {
				it := it
				out = &it
				return nil
			}
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) ListByIDs(_ context.Context, companyID string, ids []string) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.s.with(r.inTx, func(st *state) error {
		for _, id := range ids {
			if it, ok := st.items[id]; ok && it.CompanyID == companyID {
				out = append(out, &it)
			}
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) Update(_ context.Context, it *entity.Item) error {
	return r.s.with(r.inTx, func(st *state) error {
		cur, ok := st.items[it.ID]
		if !ok || cur.CompanyID != it.CompanyID {
			return domain.ErrNotFound
		}
		st.items[it.ID] = *it
		return nil
	})
}

func (r *ItemRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Item, error) {
	var out []*entity.Item
	err := r.s.with(r.inTx, func(st *state) error {
		var all []entity.Item
		for _, it := range st.items {
			if it.CompanyID == companyID {
				all = append(all, it)
			}
		}
		sort.Slice(all, func(i, j int) bool { return all[i].SKU < all[j].SKU })
		for _, it := range page(all, limit, offset) {
			it := it
			out = append(out, &it)
		}
		return nil
	})
	return out, err
}

func (r *ItemRepo) Delete(_ context.Context, companyID, id string) error {
	return r.s.with(r.inTx, func(st *state) error {
		it, ok := st.items[id]
		if !ok || it.CompanyID != companyID {
			return domain.ErrNotFound
		}
		delete(st.items, id)
		return nil
	})
}
