package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// plannedLine línea ya validada en forma, antes de tocar existencias.
type plannedLine struct {
	WarehouseID string
	ItemID      string
	Role        entity.LineRole
	Quantity    decimal.Decimal
}

// applyLine calcula y escribe la nueva cantidad de (bodega, ítem).
// SOURCE no puede dejar la cantidad en negativo; DESTINATION no puede superar la capacidad
// de la bodega. El registro inexistente se crea en 0 solo para DESTINATION.
func applyLine(
	ctx context.Context,
	inv repository.InventoryRepository,
	companyID string,
	wh *entity.Warehouse,
	l plannedLine,
	now time.Time,
) error {
	// Bloquea la fila (SELECT FOR UPDATE) hasta el commit
	rec, err := inv.GetForUpdate(ctx, companyID, wh.ID, l.ItemID)
	if err != nil {
		return err
	}
	isNew := rec == nil
	if isNew {
		if l.Role == entity.LineSource {
			return domain.BadRequestf(domain.RuleNoStock,
				"no se puede retirar stock inexistente: el ítem %s no tiene existencias en la bodega %s",
				l.ItemID, wh.ID)
		}
		rec = &entity.InventoryRecord{
			ID:          uuid.New().String(),
			CompanyID:   companyID,
			WarehouseID: wh.ID,
			ItemID:      l.ItemID,
			Quantity:    decimal.Zero,
			CreatedAt:   now,
		}
	}

	var next decimal.Decimal
	switch l.Role {
	case entity.LineSource:
		next = rec.Quantity.Sub(l.Quantity)
		if next.IsNegative() {
			return domain.BadRequestf(domain.RuleInsufficientStock,
				"stock insuficiente del ítem %s en la bodega %s: disponible %s, solicitado %s",
				l.ItemID, wh.ID, rec.Quantity.String(), l.Quantity.String())
		}
	case entity.LineDestination:
		next = rec.Quantity.Add(l.Quantity)
		// Se excluye el valor actual del propio registro para no contarlo dos veces
		others, err := inv.SumByWarehouse(ctx, companyID, wh.ID, l.ItemID)
		if err != nil {
			return err
		}
		if others.Add(next).GreaterThan(decimal.NewFromInt(wh.Capacity)) {
			return domain.BadRequestf(domain.RuleCapacityExceeded,
				"capacidad excedida en la bodega %s: capacidad %d, ocupado %s, solicitado %s",
				wh.ID, wh.Capacity, others.Add(rec.Quantity).String(), l.Quantity.String())
		}
		restocked := now
		rec.LastRestockedAt = &restocked
	}

	rec.Quantity = next
	rec.UpdatedAt = now
	if isNew {
		return inv.Create(ctx, rec)
	}
	return inv.Update(ctx, rec)
}
