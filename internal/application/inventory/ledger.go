package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// writeLedger persiste la transacción y sus líneas en la misma tx que las existencias.
func writeLedger(
	ctx context.Context,
	txs repository.TransactionRepository,
	companyID, actorID string,
	kind entity.TransactionType,
	note string,
	lines []plannedLine,
	now time.Time,
) (*entity.Transaction, error) {
	t := &entity.Transaction{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Type:      kind,
		Note:      note,
		CreatedBy: actorID,
		CreatedAt: now,
		Lines:     make([]entity.TransactionLine, 0, len(lines)),
	}
	for i, l := range lines {
		t.Lines = append(t.Lines, entity.TransactionLine{
			ID:            uuid.New().String(),
			TransactionID: t.ID,
			Position:      i + 1,
			WarehouseID:   l.WarehouseID,
			ItemID:        l.ItemID,
			Role:          l.Role,
			Quantity:      l.Quantity,
		})
	}
	if err := txs.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("registrar transacción: %w", err)
	}
	return t, nil
}

// toTransactionResponse arma la salida con nombres de bodega, ítem y creador.
// Referencias ausentes (p. ej. una bodega borrada después) quedan solo con su id.
func toTransactionResponse(
	t *entity.Transaction,
	warehouses map[string]*entity.Warehouse,
	items map[string]*entity.Item,
	creator *entity.User,
) *dto.TransactionResponse {
	out := &dto.TransactionResponse{
		ID:        t.ID,
		CompanyID: t.CompanyID,
		Type:      string(t.Type),
		Note:      t.Note,
		CreatedBy: dto.UserRef{ID: t.CreatedBy},
		CreatedAt: t.CreatedAt,
		Lines:     make([]dto.TransactionLineResponse, 0, len(t.Lines)),
	}
	if creator != nil {
		out.CreatedBy.Name = creator.Name
		out.CreatedBy.Email = creator.Email
	}
	for _, l := range t.Lines {
		line := dto.TransactionLineResponse{
			ID:             l.ID,
			Position:       l.Position,
			Role:           string(l.Role),
			Quantity:       l.Quantity,
			SignedQuantity: l.SignedQuantity(),
			Warehouse:      dto.WarehouseRef{ID: l.WarehouseID},
			Item:           dto.ItemRef{ID: l.ItemID},
		}
		if w := warehouses[l.WarehouseID]; w != nil {
			line.Warehouse.Name = w.Name
			line.Warehouse.Location = w.Location
		}
		if it := items[l.ItemID]; it != nil {
			line.Item.SKU = it.SKU
			line.Item.Name = it.Name
			line.Item.Unit = it.Unit
		}
		out.Lines = append(out.Lines, line)
	}
	return out
}

// summarize agrupa las líneas por bodega para el texto de la notificación.
func summarize(lines []plannedLine, refs *references) []WarehouseSummary {
	idx := make(map[string]int, len(refs.warehouseOrder))
	out := make([]WarehouseSummary, 0, len(refs.warehouseOrder))
	for _, l := range lines {
		i, ok := idx[l.WarehouseID]
		if !ok {
			i = len(out)
			idx[l.WarehouseID] = i
			out = append(out, WarehouseSummary{
				WarehouseID:   l.WarehouseID,
				WarehouseName: refs.warehouses[l.WarehouseID].Name,
			})
		}
		it := refs.items[l.ItemID]
		out[i].Entries = append(out[i].Entries, SummaryEntry{
			ItemName: it.Name,
			Unit:     it.Unit,
			Quantity: l.Quantity,
		})
	}
	return out
}
