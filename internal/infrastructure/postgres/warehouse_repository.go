package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.WarehouseRepository = (*WarehouseRepo)(nil)

const warehouseColumns = `id, company_id, name, location, capacity, created_at, updated_at`

// WarehouseRepo implementación del puerto WarehouseRepository sobre PostgreSQL.
type WarehouseRepo struct {
	q Querier
}

// NewWarehouseRepository construye el adaptador de persistencia para bodegas. Pasar pool o tx.
func NewWarehouseRepository(q Querier) *WarehouseRepo {
	return &WarehouseRepo{q: q}
}

// Create persiste una nueva bodega.
func (r *WarehouseRepo) Create(ctx context.Context, warehouse *entity.Warehouse) error {
	query := `
		INSERT INTO warehouses (id, company_id, name, location, capacity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		warehouse.ID, warehouse.CompanyID, warehouse.Name, warehouse.Location, warehouse.Capacity,
		warehouse.CreatedAt, warehouse.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert warehouse: %w", err)
	}
	return nil
}

// GetByID obtiene una bodega de la empresa; (nil, nil) si no existe.
func (r *WarehouseRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Warehouse, error) {
	if !isUUID(id) {
		return nil, nil
	}
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE company_id = $1 AND id = $2`
	w, err := scanWarehouse(r.q.QueryRow(ctx, query, companyID, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get warehouse: %w", err)
	}
	return w, nil
}

// ListByIDs devuelve las bodegas de la empresa entre ids; las ausentes simplemente no vienen.
func (r *WarehouseRepo) ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.Warehouse, error) {
	ids = onlyUUIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + warehouseColumns + ` FROM warehouses WHERE company_id = $1 AND id = ANY($2::uuid[])`
	rows, err := r.q.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("list warehouses by ids: %w", err)
	}
	return collectWarehouses(rows)
}

// LockByIDs toma FOR UPDATE sobre las filas en orden de id y devuelve su estado ya
// bloqueado; dos transacciones que tocan las mismas bodegas se encolan en vez de entrelazarse.
func (r *WarehouseRepo) LockByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.Warehouse, error) {
	ids = onlyUUIDs(ids)
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + warehouseColumns + `
		FROM warehouses WHERE company_id = $1 AND id = ANY($2::uuid[]) ORDER BY id FOR UPDATE`
	rows, err := r.q.Query(ctx, query, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("lock warehouses: %w", err)
	}
	list, err := collectWarehouses(rows)
	if err != nil {
		return nil, fmt.Errorf("lock warehouses: %w", err)
	}
	return list, nil
}

// Update actualiza una bodega existente.
func (r *WarehouseRepo) Update(ctx context.Context, warehouse *entity.Warehouse) error {
	query := `
		UPDATE warehouses SET name = $3, location = $4, capacity = $5, updated_at = $6
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query,
		warehouse.CompanyID, warehouse.ID, warehouse.Name, warehouse.Location, warehouse.Capacity, warehouse.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update warehouse: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByCompany lista bodegas por empresa con paginación.
func (r *WarehouseRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Warehouse, error) {
	query := `SELECT ` + warehouseColumns + `
		FROM warehouses WHERE company_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list warehouses: %w", err)
	}
	return collectWarehouses(rows)
}

// Delete elimina una bodega. Si el libro de movimientos la referencia devuelve domain.ErrConflict.
func (r *WarehouseRepo) Delete(ctx context.Context, companyID, id string) error {
	if !isUUID(id) {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM inventory_records WHERE company_id = $1 AND warehouse_id = $2 AND quantity = 0`, companyID, id); err != nil {
		return fmt.Errorf("delete empty inventory: %w", err)
	}
	cmd, err := r.q.Exec(ctx, `DELETE FROM warehouses WHERE company_id = $1 AND id = $2`, companyID, id)
	if err != nil {
		return fmt.Errorf("delete warehouse: %w", deleteError(err))
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanWarehouse(row pgx.Row) (*entity.Warehouse, error) {
	var w entity.Warehouse
	if err := row.Scan(&w.ID, &w.CompanyID, &w.Name, &w.Location, &w.Capacity, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	return &w, nil
}

func collectWarehouses(rows pgx.Rows) ([]*entity.Warehouse, error) {
	defer rows.Close()
	var list []*entity.Warehouse
	for rows.Next() {
		w, err := scanWarehouse(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warehouse: %w", err)
		}
		list = append(list, w)
	}
	return list, rows.Err()
}
