package repository

import (
	"context"
	"time"

	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmailAndCompany(ctx context.Context, email, companyID string) (*entity.User, error)
	// FindByEmail busca en cualquier empresa (login).
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ListByIDs(ctx context.Context, companyID string, ids []string) ([]*entity.User, error)
	// ListActiveIDs ids de los miembros activos de la empresa (destinatarios de notificaciones).
	ListActiveIDs(ctx context.Context, companyID string) ([]string, error)
	// UpdateStatus cambia el estado; false si el usuario no es de la empresa.
	UpdateStatus(ctx context.Context, companyID, id, status string, at time.Time) (bool, error)
}
