package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// ItemUseCase casos de uso CRUD para el catálogo de ítems. Las existencias solo cambian vía transacciones.
type ItemUseCase struct {
	tx   repository.TxRunner
	repo repository.ItemRepository
	now  func() time.Time
}

// NewItemUseCase construye el caso de uso.
func NewItemUseCase(tx repository.TxRunner, repo repository.ItemRepository) *ItemUseCase {
	return &ItemUseCase{tx: tx, repo: repo, now: time.Now}
}

// Create crea un ítem. Devuelve domain.ErrDuplicate si el SKU ya existe en la empresa.
func (uc *ItemUseCase) Create(ctx context.Context, companyID, actorID string, in dto.CreateItemRequest) (*dto.ItemResponse, error) {
	sku := strings.TrimSpace(in.SKU)
	name := strings.TrimSpace(in.Name)
	if sku == "" || name == "" {
		return nil, domain.BadRequestf(domain.RuleValidation, "sku y nombre son obligatorios")
	}
	if strings.TrimSpace(in.Unit) == "" {
		return nil, domain.BadRequestf(domain.RuleValidation, "la unidad de medida es obligatoria")
	}
	now := uc.now().UTC()
	item := &entity.Item{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		SKU:         sku,
		Name:        name,
		Description: in.Description,
		Unit:        strings.TrimSpace(in.Unit),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		existing, err := repos.Items().GetBySKU(ctx, companyID, sku)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrDuplicate
		}
		if err := repos.Items().Create(ctx, item); err != nil {
			return err
		}
		return repos.History().Append(ctx, historyEntry(companyID, item.ID, entity.HistoryCreate,
			nil, entity.SnapshotOfItem(item), actorID, now))
	})
	if err != nil {
		return nil, err
	}
	return toItemResponse(item), nil
}

// GetByID obtiene un ítem por ID.
func (uc *ItemUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ItemResponse, error) {
	item, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.NotFoundf("ítem %s no encontrado", id)
	}
	return toItemResponse(item), nil
}

// Update actualiza nombre, descripción o unidad. El SKU es inmutable.
func (uc *ItemUseCase) Update(ctx context.Context, companyID, actorID, id string, in dto.UpdateItemRequest) (*dto.ItemResponse, error) {
	var out *entity.Item
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		item, err := repos.Items().GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFoundf("ítem %s no encontrado", id)
		}
		before := entity.SnapshotOfItem(item)
		if in.Name != nil {
			if strings.TrimSpace(*in.Name) == "" {
				return domain.BadRequestf(domain.RuleValidation, "el nombre del ítem es obligatorio")
			}
			item.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			item.Description = *in.Description
		}
		if in.Unit != nil {
			if strings.TrimSpace(*in.Unit) == "" {
				return domain.BadRequestf(domain.RuleValidation, "la unidad de medida es obligatoria")
			}
			item.Unit = strings.TrimSpace(*in.Unit)
		}
		item.UpdatedAt = uc.now().UTC()
		if err := repos.Items().Update(ctx, item); err != nil {
			return err
		}
		out = item
		return repos.History().Append(ctx, historyEntry(companyID, id, entity.HistoryUpdate,
			before, entity.SnapshotOfItem(item), actorID, item.UpdatedAt))
	})
	if err != nil {
		return nil, err
	}
	return toItemResponse(out), nil
}

// List lista ítems por empresa con paginación.
func (uc *ItemUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.ItemListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ItemResponse, 0, len(list))
	for _, it := range list {
		items = append(items, *toItemResponse(it))
	}
	return &dto.ItemListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un ítem sin existencias en ninguna bodega.
func (uc *ItemUseCase) Delete(ctx context.Context, companyID, actorID, id string) error {
	return uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		item, err := repos.Items().GetByID(ctx, companyID, id)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.NotFoundf("ítem %s no encontrado", id)
		}
		held, err := repos.Inventory().SumByItem(ctx, companyID, id)
		if err != nil {
			return err
		}
		if held.IsPositive() {
			return domain.BadRequestf(domain.RuleItemInUse, "el ítem %s aún tiene %s %s en stock", item.SKU, held, item.Unit)
		}
		if err := repos.Items().Delete(ctx, companyID, id); err != nil {
			return err
		}
		return repos.History().Append(ctx, historyEntry(companyID, id, entity.HistoryDelete,
			entity.SnapshotOfItem(item), nil, actorID, uc.now().UTC()))
	})
}

func toItemResponse(i *entity.Item) *dto.ItemResponse {
	if i == nil {
		return nil
	}
	return &dto.ItemResponse{
		ID:          i.ID,
		CompanyID:   i.CompanyID,
		SKU:         i.SKU,
		Name:        i.Name,
		Description: i.Description,
		Unit:        i.Unit,
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
}
