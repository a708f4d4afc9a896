package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// HistoryUseCase consulta la bitácora de cambios del catálogo.
type HistoryUseCase struct {
	repo repository.HistoryRepository
}

func NewHistoryUseCase(repo repository.HistoryRepository) *HistoryUseCase {
	return &HistoryUseCase{repo: repo}
}

// List cambios de una entidad, el más reciente primero.
func (uc *HistoryUseCase) List(ctx context.Context, companyID, kind, entityID string) ([]dto.HistoryEntryResponse, error) {
	k := entity.EntityKind(kind)
	if k != entity.KindWarehouse && k != entity.KindItem {
		return nil, domain.BadRequestf(domain.RuleValidation, "tipo de entidad desconocido: %q", kind)
	}
	list, err := uc.repo.List(ctx, companyID, k, entityID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.HistoryEntryResponse, 0, len(list))
	for _, e := range list {
		r := dto.HistoryEntryResponse{
			ID:        e.ID,
			Kind:      string(e.EntityKind),
			EntityID:  e.EntityID,
			Action:    e.Action,
			ChangedBy: e.ChangedBy,
			CreatedAt: e.CreatedAt,
		}
		if r.Before, err = marshalSnapshot(e.Before); err != nil {
			return nil, err
		}
		if r.After, err = marshalSnapshot(e.After); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func marshalSnapshot(s entity.Snapshot) (json.RawMessage, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

func historyEntry(companyID, entityID, action string, before, after entity.Snapshot, actorID string, at time.Time) *entity.HistoryEntry {
	e := &entity.HistoryEntry{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		EntityID:  entityID,
		Action:    action,
		Before:    before,
		After:     after,
		ChangedBy: actorID,
		CreatedAt: at,
	}
	if before != nil {
		e.EntityKind = before.Kind()
	} else if after != nil {
		e.EntityKind = after.Kind()
	}
	return e
}
