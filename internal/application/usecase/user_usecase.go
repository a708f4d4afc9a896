package usecase

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

// UserUseCase perfil propio y alta/baja de miembros de la empresa.
// Un usuario inactivo no inicia sesión ni recibe notificaciones.
type UserUseCase struct {
	repo repository.UserRepository
	now  func() time.Time
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo, now: time.Now}
}

// Me devuelve el usuario autenticado.
func (uc *UserUseCase) Me(ctx context.Context, companyID, userID string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.CompanyID != companyID {
		return nil, domain.NotFoundf("usuario %s no encontrado", userID)
	}
	return entityToUserResponse(user), nil
}

// SetStatus activa o desactiva a un miembro. Nadie puede desactivarse a sí mismo.
func (uc *UserUseCase) SetStatus(ctx context.Context, companyID, actorID, id string, in dto.UpdateUserStatusRequest) (*dto.UserResponse, error) {
	if in.Status != entity.UserStatusActive && in.Status != entity.UserStatusInactive {
		return nil, domain.BadRequestf(domain.RuleValidation, "estado inválido: %q (use active o inactive)", in.Status)
	}
	if id == actorID && in.Status == entity.UserStatusInactive {
		return nil, domain.BadRequestf(domain.RuleValidation, "no puede desactivar su propia cuenta")
	}
	ok, err := uc.repo.UpdateStatus(ctx, companyID, id, in.Status, uc.now().UTC())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundf("usuario %s no encontrado", id)
	}
	return uc.Me(ctx, companyID, id)
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
