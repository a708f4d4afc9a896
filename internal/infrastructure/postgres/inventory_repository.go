package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

const inventoryColumns = `id, company_id, warehouse_id, item_id, quantity, last_restocked_at, created_at, updated_at`

// InventoryRepo existencias por (bodega, ítem) sobre PostgreSQL (usable con pool o tx).
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de existencias. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

// GetForUpdate lee y bloquea el registro; (nil, nil) si todavía no existe.
func (r *InventoryRepo) GetForUpdate(ctx context.Context, companyID, warehouseID, itemID string) (*entity.InventoryRecord, error) {
	if !isUUID(warehouseID) || !isUUID(itemID) {
		return nil, nil
	}
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_records WHERE company_id = $1 AND warehouse_id = $2 AND item_id = $3
		FOR UPDATE`
	rec, err := scanInventory(r.q.QueryRow(ctx, query, companyID, warehouseID, itemID))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get inventory for update: %w", err)
	}
	return rec, nil
}

// Create inserta el primer registro de (bodega, ítem).
func (r *InventoryRepo) Create(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		INSERT INTO inventory_records (` + inventoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query,
		rec.ID, rec.CompanyID, rec.WarehouseID, rec.ItemID, rec.Quantity, rec.LastRestockedAt, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert inventory: %w", err)
	}
	return nil
}

// Update persiste cantidad y fecha de reposición.
func (r *InventoryRepo) Update(ctx context.Context, rec *entity.InventoryRecord) error {
	query := `
		UPDATE inventory_records SET quantity = $3, last_restocked_at = $4, updated_at = $5
		WHERE company_id = $1 AND id = $2`
	cmd, err := r.q.Exec(ctx, query, rec.CompanyID, rec.ID, rec.Quantity, rec.LastRestockedAt, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update inventory: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SumByWarehouse ocupación de la bodega; excludeItemID vacío suma todo.
func (r *InventoryRepo) SumByWarehouse(ctx context.Context, companyID, warehouseID, excludeItemID string) (decimal.Decimal, error) {
	if !isUUID(warehouseID) {
		return decimal.Zero, nil
	}
	query := `
		SELECT COALESCE(SUM(quantity), 0) FROM inventory_records
		WHERE company_id = $1 AND warehouse_id = $2 AND ($3 = '' OR item_id::text <> $3)`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, companyID, warehouseID, excludeItemID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum inventory by warehouse: %w", err)
	}
	return total, nil
}

// SumByItem existencias totales del ítem en todas las bodegas de la empresa.
func (r *InventoryRepo) SumByItem(ctx context.Context, companyID, itemID string) (decimal.Decimal, error) {
	if !isUUID(itemID) {
		return decimal.Zero, nil
	}
	query := `SELECT COALESCE(SUM(quantity), 0) FROM inventory_records WHERE company_id = $1 AND item_id = $2`
	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, companyID, itemID).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum inventory by item: %w", err)
	}
	return total, nil
}

// List existencias de la empresa, ordenadas por bodega e ítem.
func (r *InventoryRepo) List(ctx context.Context, companyID string, f repository.InventoryFilter) ([]*entity.InventoryRecord, error) {
	query := `SELECT ` + inventoryColumns + `
		FROM inventory_records
		WHERE company_id = $1
		  AND ($2 = '' OR warehouse_id::text = $2)
		  AND ($3 = '' OR item_id::text = $3)
		ORDER BY warehouse_id, item_id
		LIMIT $4 OFFSET $5`
	rows, err := r.q.Query(ctx, query, companyID, f.WarehouseID, f.ItemID, limitOrAll(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list inventory: %w", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		rec, err := scanInventory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inventory: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func scanInventory(row pgx.Row) (*entity.InventoryRecord, error) {
	var rec entity.InventoryRecord
	err := row.Scan(&rec.ID, &rec.CompanyID, &rec.WarehouseID, &rec.ItemID, &rec.Quantity,
		&rec.LastRestockedAt, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
