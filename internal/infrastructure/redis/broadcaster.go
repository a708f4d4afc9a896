package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/notification"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/pkg/config"
	"github.com/jhoicas/stockledger-api/pkg/logger"
)

const channelPrefix = "notifications:user:"

var (
	_ notification.Broadcaster = (*Broadcaster)(nil)
	_ notification.Subscriber  = (*Broadcaster)(nil)
)

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Broadcaster difunde notificaciones por pub/sub, un canal por usuario.
type Broadcaster struct {
	client *redis.Client
	log    *logger.Logger
}

func NewBroadcaster(client *redis.Client, log *logger.Logger) *Broadcaster {
	return &Broadcaster{client: client, log: log.Component("redis-broadcaster")}
}

func channel(userID string) string { return channelPrefix + userID }

// Broadcast publica la notificación en el canal de su destinatario.
func (b *Broadcaster) Broadcast(ctx context.Context, n *entity.Notification) error {
	payload, err := json.Marshal(notification.ToResponse(n))
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, channel(n.UserID), payload).Err()
}

// Subscribe entrega las notificaciones del usuario hasta que ctx termine; entonces cierra el canal.
func (b *Broadcaster) Subscribe(ctx context.Context, userID string) (<-chan dto.NotificationResponse, error) {
	sub := b.client.Subscribe(ctx, channel(userID))
	// Receive espera la confirmación de la suscripción para no perder mensajes iniciales.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("suscribir %s: %w", userID, err)
	}
	out := make(chan dto.NotificationResponse, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var n dto.NotificationResponse
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					b.log.Warn().Err(err).Str("channel", m.Channel).Msg("mensaje inválido")
					continue
				}
				select {
				case out <- n:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
