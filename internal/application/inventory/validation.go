package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// references bodegas e ítems resueltos para la empresa, por id.
type references struct {
	warehouses map[string]*entity.Warehouse
	items      map[string]*entity.Item
	// warehouseOrder ids de bodega en orden de primera aparición.
	warehouseOrder []string
}

// lockWarehouses bloquea las bodegas de las líneas (sin repetir, en orden de id) antes de
// leer nada de ellas; lo devuelto es el estado vigente bajo el bloqueo.
func lockWarehouses(ctx context.Context, repos repository.TxRepositories, companyID string, lines []plannedLine) (map[string]*entity.Warehouse, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.WarehouseID] {
			seen[l.WarehouseID] = true
			ids = append(ids, l.WarehouseID)
		}
	}
	sort.Strings(ids)
	locked, err := repos.Warehouses().LockByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("bloquear bodegas: %w", err)
	}
	out := make(map[string]*entity.Warehouse, len(locked))
	for _, w := range locked {
		out[w.ID] = w
	}
	return out, nil
}

// resolveReferences confirma que cada par (bodega, ítem) pertenece a la empresa.
// locked son las bodegas ya bloqueadas; una bodega ausente ahí no existe para la empresa.
// Aborta en el primer par que falle.
func resolveReferences(ctx context.Context, repos repository.TxRepositories, companyID string, lines []plannedLine, locked map[string]*entity.Warehouse) (*references, error) {
	refs := &references{
		warehouses: make(map[string]*entity.Warehouse),
		items:      make(map[string]*entity.Item),
	}
	for _, l := range lines {
		if _, ok := refs.warehouses[l.WarehouseID]; !ok {
			w, ok := locked[l.WarehouseID]
			if !ok {
				return nil, domain.NotFoundf("bodega %s no encontrada", l.WarehouseID)
			}
			refs.warehouses[w.ID] = w
			refs.warehouseOrder = append(refs.warehouseOrder, w.ID)
		}
		if _, ok := refs.items[l.ItemID]; !ok {
			it, err := repos.Items().GetByID(ctx, companyID, l.ItemID)
			if err != nil {
				return nil, fmt.Errorf("buscar ítem %s: %w", l.ItemID, err)
			}
			if it == nil {
				return nil, domain.NotFoundf("ítem %s no encontrado", l.ItemID)
			}
			refs.items[it.ID] = it
		}
	}
	return refs, nil
}
