package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

// Broadcaster difunde en tiempo real una notificación recién creada.
type Broadcaster interface {
	Broadcast(ctx context.Context, n *entity.Notification) error
}

// Subscriber entrega las notificaciones de un usuario mientras ctx siga vivo.
type Subscriber interface {
	Subscribe(ctx context.Context, userID string) (<-chan dto.NotificationResponse, error)
}

// Request notificación para toda la empresa salvo ExcludeUserID.
type Request struct {
	CompanyID     string
	Type          string
	Title         string
	Message       string
	RelatedID     string
	ExcludeUserID string
}

// Service crea, lista y marca notificaciones.
type Service struct {
	repo        repository.NotificationRepository
	users       repository.UserRepository
	broadcaster Broadcaster
	log         *logger.Logger
	now         func() time.Time
}

// NewService construye el servicio. broadcaster puede ser nil.
func NewService(repo repository.NotificationRepository, users repository.UserRepository, broadcaster Broadcaster, log *logger.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		broadcaster: broadcaster,
		log:         log.Component("notifications"),
		now:         time.Now,
	}
}

// NotifyCompany crea una notificación por miembro activo, excepto el excluido.
// Es idempotente por (usuario, tipo, related_id): reintentos no duplican. Devuelve cuántas se crearon.
func (s *Service) NotifyCompany(ctx context.Context, req Request) (int, error) {
	ids, err := s.users.ListActiveIDs(ctx, req.CompanyID)
	if err != nil {
		return 0, err
	}
	now := s.now().UTC()
	list := make([]*entity.Notification, 0, len(ids))
	for _, id := range ids {
		if id == req.ExcludeUserID {
			continue
		}
		list = append(list, &entity.Notification{
			ID:        uuid.New().String(),
			CompanyID: req.CompanyID,
			UserID:    id,
			Type:      req.Type,
			Title:     req.Title,
			Message:   req.Message,
			RelatedID: req.RelatedID,
			CreatedAt: now,
		})
	}
	if len(list) == 0 {
		return 0, nil
	}
	created, err := s.repo.CreateBatch(ctx, list)
	if err != nil {
		return 0, err
	}
	if s.broadcaster != nil {
		for _, n := range created {
			if err := s.broadcaster.Broadcast(ctx, n); err != nil {
				s.log.Warn().Err(err).Str("user_id", n.UserID).Str("notification_id", n.ID).Msg("broadcast falló")
			}
		}
	}
	return len(created), nil
}

// List notificaciones del usuario, la más reciente primero.
func (s *Service) List(ctx context.Context, companyID, userID string, unreadOnly bool, limit, offset int) (*dto.NotificationListResponse, error) {
	list, err := s.repo.ListByUser(ctx, companyID, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.NotificationResponse, 0, len(list))
	for _, n := range list {
		items = append(items, ToResponse(n))
	}
	return &dto.NotificationListResponse{Items: items, Page: dto.PageResponse{Limit: limit, Offset: offset}}, nil
}

// MarkRead marca una notificación propia como leída.
func (s *Service) MarkRead(ctx context.Context, companyID, userID, id string) error {
	ok, err := s.repo.MarkRead(ctx, companyID, userID, id, s.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("notificación %s no encontrada", id)
	}
	return nil
}

// MarkAllRead marca todas las del usuario; devuelve cuántas cambiaron.
func (s *Service) MarkAllRead(ctx context.Context, companyID, userID string) (int64, error) {
	return s.repo.MarkAllRead(ctx, companyID, userID, s.now().UTC())
}

// PurgeRead elimina las leídas hace más de retention.
func (s *Service) PurgeRead(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.repo.PurgeRead(ctx, s.now().UTC().Add(-retention))
	if err != nil {
		return 0, err
	}
	s.log.Info().Int64("purged", n).Dur("retention", retention).Msg("notificaciones leídas purgadas")
	return n, nil
}

// ToResponse mapea la entidad a su DTO.
func ToResponse(n *entity.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		RelatedID: n.RelatedID,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
