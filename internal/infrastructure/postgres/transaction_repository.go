package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

var _ repository.TransactionRepository = (*TransactionRepo)(nil)

// TransactionRepo ledger de movimientos (cabecera + líneas) sobre PostgreSQL. Solo inserción.
type TransactionRepo struct {
	q Querier
}

// NewTransactionRepository construye el adaptador del ledger. Pasar pool o tx (Querier).
func NewTransactionRepository(q Querier) *TransactionRepo {
	return &TransactionRepo{q: q}
}

// Create inserta la cabecera y sus líneas. Debe correr dentro de la tx del motor.
func (r *TransactionRepo) Create(ctx context.Context, t *entity.Transaction) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO inventory_transactions (id, company_id, type, note, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.CompanyID, string(t.Type), t.Note, t.CreatedBy, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	for _, l := range t.Lines {
		_, err := r.q.Exec(ctx, `
			INSERT INTO inventory_transaction_lines (id, transaction_id, position, warehouse_id, item_id, role, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			l.ID, t.ID, l.Position, l.WarehouseID, l.ItemID, string(l.Role), l.Quantity,
		)
		if err != nil {
			return fmt.Errorf("insert transaction line %d: %w", l.Position, err)
		}
	}
	return nil
}

// GetByID cabecera y líneas; (nil, nil) si no existe en la empresa.
func (r *TransactionRepo) GetByID(ctx context.Context, companyID, id string) (*entity.Transaction, error) {
	if !isUUID(id) {
		return nil, nil
	}
	var t entity.Transaction
	var typ string
	err := r.q.QueryRow(ctx, `
		SELECT id, company_id, type, note, created_by, created_at
		FROM inventory_transactions WHERE company_id = $1 AND id = $2`, companyID, id,
	).Scan(&t.ID, &t.CompanyID, &typ, &t.Note, &t.CreatedBy, &t.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	t.Type = entity.TransactionType(typ)
	list := []*entity.Transaction{&t}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return &t, nil
}

// List la página más reciente primero. Los filtros por bodega/ítem miran las líneas.
func (r *TransactionRepo) List(ctx context.Context, companyID string, f repository.TransactionFilter) ([]*entity.Transaction, error) {
	query := `
		SELECT t.id, t.company_id, t.type, t.note, t.created_by, t.created_at
		FROM inventory_transactions t
		WHERE t.company_id = $1
		  AND ($2 = '' OR t.type = $2)
		  AND ($3 = '' OR EXISTS (SELECT 1 FROM inventory_transaction_lines l WHERE l.transaction_id = t.id AND l.warehouse_id::text = $3))
		  AND ($4 = '' OR EXISTS (SELECT 1 FROM inventory_transaction_lines l WHERE l.transaction_id = t.id AND l.item_id::text = $4))
		ORDER BY t.created_at DESC, t.id DESC
		LIMIT $5 OFFSET $6`
	rows, err := r.q.Query(ctx, query, companyID, string(f.Type), f.WarehouseID, f.ItemID, limitOrAll(f.Limit), f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	var list []*entity.Transaction
	for rows.Next() {
		var t entity.Transaction
		var typ string
		if err := rows.Scan(&t.ID, &t.CompanyID, &typ, &t.Note, &t.CreatedBy, &t.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = entity.TransactionType(typ)
		list = append(list, &t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	if err := r.loadLines(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// loadLines carga en una sola consulta las líneas de todas las transacciones, en orden de posición.
func (r *TransactionRepo) loadLines(ctx context.Context, list []*entity.Transaction) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, 0, len(list))
	byID := make(map[string]*entity.Transaction, len(list))
	for _, t := range list {
		ids = append(ids, t.ID)
		byID[t.ID] = t
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, transaction_id, position, warehouse_id, item_id, role, quantity
		FROM inventory_transaction_lines
		WHERE transaction_id = ANY($1::uuid[])
		ORDER BY transaction_id, position`, ids)
	if err != nil {
		return fmt.Errorf("list transaction lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var l entity.TransactionLine
		var role string
		if err := rows.Scan(&l.ID, &l.TransactionID, &l.Position, &l.WarehouseID, &l.ItemID, &role, &l.Quantity); err != nil {
			return fmt.Errorf("scan transaction line: %w", err)
		}
		l.Role = entity.LineRole(role)
		if t, ok := byID[l.TransactionID]; ok {
			t.Lines = append(t.Lines, l)
		}
	}
	return rows.Err()
}
