package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// QueryUseCase lecturas del ledger y de existencias. No escribe.
type QueryUseCase struct {
	transactions repository.TransactionRepository
	inventory    repository.InventoryRepository
	warehouses   repository.WarehouseRepository
	items        repository.ItemRepository
	users        repository.UserRepository
	companies    repository.CompanyRepository
	receipts     ReceiptRenderer
}

// QueryDeps repositorios del caso de uso de lectura.
type QueryDeps struct {
	Transactions repository.TransactionRepository
	Inventory    repository.InventoryRepository
	Warehouses   repository.WarehouseRepository
	Items        repository.ItemRepository
	Users        repository.UserRepository
	Companies    repository.CompanyRepository
	Receipts     ReceiptRenderer
}

// NewQueryUseCase construye el caso de uso.
func NewQueryUseCase(d QueryDeps) *QueryUseCase {
	return &QueryUseCase{
		transactions: d.Transactions,
		inventory:    d.Inventory,
		warehouses:   d.Warehouses,
		items:        d.Items,
		users:        d.Users,
		companies:    d.Companies,
		receipts:     d.Receipts,
	}
}

// GetTransaction devuelve una transacción con datos de despliegue.
func (uc *QueryUseCase) GetTransaction(ctx context.Context, companyID, id string) (*dto.TransactionResponse, error) {
	t, err := uc.transactions.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFoundf("transacción %s no encontrada", id)
	}
	list, err := uc.present(ctx, companyID, []*entity.Transaction{t})
	if err != nil {
		return nil, err
	}
	return &list[0], nil
}

// ListTransactions página del ledger, la más reciente primero.
func (uc *QueryUseCase) ListTransactions(ctx context.Context, companyID string, f repository.TransactionFilter) (*dto.TransactionListResponse, error) {
	if f.Type != "" && !f.Type.Valid() {
		return nil, domain.BadRequestf(domain.RuleValidation, "tipo de transacción inválido: %q", f.Type)
	}
	list, err := uc.transactions.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	items, err := uc.present(ctx, companyID, list)
	if err != nil {
		return nil, err
	}
	return &dto.TransactionListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}, nil
}

// TransactionReceipt genera el PDF de una transacción.
func (uc *QueryUseCase) TransactionReceipt(ctx context.Context, companyID, id string) ([]byte, error) {
	t, err := uc.GetTransaction(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	company, err := uc.companies.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.NotFoundf("empresa %s no encontrada", companyID)
	}
	return uc.receipts.RenderTransaction(ctx, company, t)
}

// ListInventory existencias de la empresa con nombres de bodega e ítem.
func (uc *QueryUseCase) ListInventory(ctx context.Context, companyID string, f repository.InventoryFilter) (*dto.InventoryListResponse, error) {
	records, err := uc.inventory.List(ctx, companyID, f)
	if err != nil {
		return nil, err
	}
	var whIDs, itemIDs []string
	for _, r := range records {
		whIDs = append(whIDs, r.WarehouseID)
		itemIDs = append(itemIDs, r.ItemID)
	}
	warehouses, items, err := uc.lookup(ctx, companyID, whIDs, itemIDs)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryRecordResponse, 0, len(records))
	for _, r := range records {
		row := dto.InventoryRecordResponse{
			ID:              r.ID,
			Warehouse:       dto.WarehouseRef{ID: r.WarehouseID},
			Item:            dto.ItemRef{ID: r.ItemID},
			Quantity:        r.Quantity,
			LastRestockedAt: r.LastRestockedAt,
			UpdatedAt:       r.UpdatedAt,
		}
		if w := warehouses[r.WarehouseID]; w != nil {
			row.Warehouse.Name, row.Warehouse.Location = w.Name, w.Location
		}
		if it := items[r.ItemID]; it != nil {
			row.Item.SKU, row.Item.Name, row.Item.Unit = it.SKU, it.Name, it.Unit
		}
		out = append(out, row)
	}
	return &dto.InventoryListResponse{
		Items: out,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}, nil
}

// WarehouseUtilization capacidad, ocupación y porcentaje de una bodega.
func (uc *QueryUseCase) WarehouseUtilization(ctx context.Context, companyID, warehouseID string) (*dto.WarehouseUtilizationResponse, error) {
	w, err := uc.warehouses.GetByID(ctx, companyID, warehouseID)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, domain.NotFoundf("bodega %s no encontrada", warehouseID)
	}
	used, err := uc.inventory.SumByWarehouse(ctx, companyID, warehouseID, "")
	if err != nil {
		return nil, err
	}
	capacity := decimal.NewFromInt(w.Capacity)
	pct := decimal.Zero
	if w.Capacity > 0 {
		pct = used.Div(capacity).Mul(decimal.NewFromInt(100)).Round(2)
	}
	return &dto.WarehouseUtilizationResponse{
		WarehouseID: w.ID,
		Name:        w.Name,
		Capacity:    w.Capacity,
		Used:        used,
		Available:   capacity.Sub(used),
		Percentage:  pct,
	}, nil
}

// present resuelve en lote bodegas, ítems y creadores de las transacciones.
func (uc *QueryUseCase) present(ctx context.Context, companyID string, list []*entity.Transaction) ([]dto.TransactionResponse, error) {
	var whIDs, itemIDs, userIDs []string
	for _, t := range list {
		userIDs = append(userIDs, t.CreatedBy)
		for _, l := range t.Lines {
			whIDs = append(whIDs, l.WarehouseID)
			itemIDs = append(itemIDs, l.ItemID)
		}
	}
	warehouses, items, err := uc.lookup(ctx, companyID, whIDs, itemIDs)
	if err != nil {
		return nil, err
	}
	users, err := uc.users.ListByIDs(ctx, companyID, unique(userIDs))
	if err != nil {
		return nil, err
	}
	byUser := make(map[string]*entity.User, len(users))
	for _, u := range users {
		byUser[u.ID] = u
	}
	out := make([]dto.TransactionResponse, 0, len(list))
	for _, t := range list {
		out = append(out, *toTransactionResponse(t, warehouses, items, byUser[t.CreatedBy]))
	}
	return out, nil
}

func (uc *QueryUseCase) lookup(ctx context.Context, companyID string, whIDs, itemIDs []string) (map[string]*entity.Warehouse, map[string]*entity.Item, error) {
	ws, err := uc.warehouses.ListByIDs(ctx, companyID, unique(whIDs))
	if err != nil {
		return nil, nil, err
	}
	its, err := uc.items.ListByIDs(ctx, companyID, unique(itemIDs))
	if err != nil {
		return nil, nil, err
	}
	warehouses := make(map[string]*entity.Warehouse, len(ws))
	for _, w := range ws {
		warehouses[w.ID] = w
	}
	items := make(map[string]*entity.Item, len(its))
	for _, it := range its {
		items[it.ID] = it
	}
	return warehouses, items, nil
}

func unique(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
