package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// WarehouseUseCase casos de uso CRUD para bodegas. Las escrituras registran historial en la misma transacción.
type WarehouseUseCase struct {
	tx   repository.TxRunner
	repo repository.WarehouseRepository
	now  func() time.Time
}

// NewWarehouseUseCase construye el caso de uso.
func NewWarehouseUseCase(tx repository.TxRunner, repo repository.WarehouseRepository) *WarehouseUseCase {
	return &WarehouseUseCase{tx: tx, repo: repo, now: time.Now}
}

// Create crea una nueva bodega.
func (uc *WarehouseUseCase) Create(ctx context.Context, companyID, actorID string, in dto.CreateWarehouseRequest) (*dto.WarehouseResponse, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, domain.BadRequestf(domain.RuleValidation, "el nombre de la bodega es obligatorio")
	}
	if in.Capacity <= 0 {
		return nil, domain.BadRequestf(domain.RuleValidation, "la capacidad debe ser mayor que cero, llegó %d", in.Capacity)
	}
	now := uc.now().UTC()
	warehouse := &entity.Warehouse{
		ID:        uuid.New().String(),
		CompanyID: companyID,
		Name:      name,
		Location:  in.Location,
		Capacity:  in.Capacity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Warehouses().Create(ctx, warehouse); err != nil {
			return err
		}
		after := entity.SnapshotOfWarehouse(warehouse)
		return repos.History().Append(ctx, historyEntry(companyID, warehouse.ID, entity.HistoryCreate, nil, after, actorID, now))
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(warehouse), nil
}

// GetByID obtiene una bodega por ID.
func (uc *WarehouseUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.WarehouseResponse, error) {
	warehouse, err := uc.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if warehouse == nil {
		return nil, domain.NotFoundf("bodega %s no encontrada", id)
	}
	return toWarehouseResponse(warehouse), nil
}

// Update actualiza una bodega. La capacidad nueva no puede quedar por debajo de lo ocupado.
func (uc *WarehouseUseCase) Update(ctx context.Context, companyID, actorID, id string, in dto.UpdateWarehouseRequest) (*dto.WarehouseResponse, error) {
	var out *entity.Warehouse
	err := uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		warehouse, err := lockWarehouse(ctx, repos, companyID, id)
		if err != nil {
			return err
		}
		before := entity.SnapshotOfWarehouse(warehouse)
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return domain.BadRequestf(domain.RuleValidation, "el nombre de la bodega es obligatorio")
			}
			warehouse.Name = name
		}
		if in.Location != nil {
			warehouse.Location = *in.Location
		}
		if in.Capacity != nil {
			if *in.Capacity <= 0 {
				return domain.BadRequestf(domain.RuleValidation, "la capacidad debe ser mayor que cero, llegó %d", *in.Capacity)
			}
			used, err := repos.Inventory().SumByWarehouse(ctx, companyID, id, "")
			if err != nil {
				return err
			}
			if used.GreaterThan(decimal.NewFromInt(*in.Capacity)) {
				return domain.BadRequestf(domain.RuleCapacityExceeded,
					"capacidad excedida en la bodega %s: capacidad %d, ocupado %s", id, *in.Capacity, used)
			}
			warehouse.Capacity = *in.Capacity
		}
		warehouse.UpdatedAt = uc.now().UTC()
		if err := repos.Warehouses().Update(ctx, warehouse); err != nil {
			return err
		}
		out = warehouse
		return repos.History().Append(ctx, historyEntry(companyID, id, entity.HistoryUpdate,
			before, entity.SnapshotOfWarehouse(warehouse), actorID, warehouse.UpdatedAt))
	})
	if err != nil {
		return nil, err
	}
	return toWarehouseResponse(out), nil
}

// List lista bodegas por empresa con paginación.
func (uc *WarehouseUseCase) List(ctx context.Context, companyID string, limit, offset int) (*dto.WarehouseListResponse, error) {
	list, err := uc.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.WarehouseResponse, 0, len(list))
	for _, w := range list {
		items = append(items, *toWarehouseResponse(w))
	}
	return &dto.WarehouseListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina una bodega vacía.
func (uc *WarehouseUseCase) Delete(ctx context.Context, companyID, actorID, id string) error {
	return uc.tx.Run(ctx, func(repos repository.TxRepositories) error {
		warehouse, err := lockWarehouse(ctx, repos, companyID, id)
		if err != nil {
			return err
		}
		used, err := repos.Inventory().SumByWarehouse(ctx, companyID, id, "")
		if err != nil {
			return err
		}
		if used.IsPositive() {
			return domain.BadRequestf(domain.RuleWarehouseNotEmpty, "la bodega %s aún tiene %s unidades en stock", id, used)
		}
		if err := repos.Warehouses().Delete(ctx, companyID, id); err != nil {
			return err
		}
		return repos.History().Append(ctx, historyEntry(companyID, id, entity.HistoryDelete,
			entity.SnapshotOfWarehouse(warehouse), nil, actorID, uc.now().UTC()))
	})
}

// lockWarehouse bloquea la bodega y la devuelve tal como quedó bajo el bloqueo.
func lockWarehouse(ctx context.Context, repos repository.TxRepositories, companyID, id string) (*entity.Warehouse, error) {
	locked, err := repos.Warehouses().LockByIDs(ctx, companyID, []string{id})
	if err != nil {
		return nil, err
	}
	if len(locked) == 0 {
		return nil, domain.NotFoundf("bodega %s no encontrada", id)
	}
	return locked[0], nil
}

func toWarehouseResponse(w *entity.Warehouse) *dto.WarehouseResponse {
	if w == nil {
		return nil
	}
	return &dto.WarehouseResponse{
		ID:        w.ID,
		CompanyID: w.CompanyID,
		Name:      w.Name,
		Location:  w.Location,
		Capacity:  w.Capacity,
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}
