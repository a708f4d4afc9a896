package http

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/application/notification"
)

const sseHeartbeat = 15 * time.Second

// NotificationHandler bandeja de notificaciones del usuario y su stream SSE.
type NotificationHandler struct {
	svc  *notification.Service
	subs notification.Subscriber
	// base se cancela al apagar el servidor y corta los streams abiertos.
	base context.Context
}

// NewNotificationHandler construye el handler. subs puede ser nil (stream deshabilitado).
func NewNotificationHandler(base context.Context, svc *notification.Service, subs notification.Subscriber) *NotificationHandler {
	if base == nil {
		base = context.Background()
	}
	return &NotificationHandler{svc: svc, subs: subs, base: base}
}

// List godoc
// @Summary      Notificaciones del usuario
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        unread  query  bool  false  "Solo no leídas"
// @Param        limit   query  int   false  "Límite"  default(20)
// @Param        offset  query  int   false  "Offset"  default(0)
// @Success      200  {object}  dto.NotificationListResponse
// @Router       /api/notifications [get]
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	out, err := h.svc.List(c.UserContext(), GetCompanyID(c), GetUserID(c), c.QueryBool("unread", false), limit, offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MarkRead godoc
// @Summary      Marcar como leída
// @Tags         notifications
// @Security     Bearer
// @Param        id   path  string  true  "ID de la notificación"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{id}/read [patch]
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.svc.MarkRead(c.UserContext(), GetCompanyID(c), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllRead godoc
// @Summary      Marcar todas como leídas
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int64
// @Router       /api/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	n, err := h.svc.MarkAllRead(c.UserContext(), GetCompanyID(c), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

// Stream godoc
// @Summary      Stream SSE de notificaciones nuevas
// @Tags         notifications
// @Security     Bearer
// @Produce      text/event-stream
// @Success      200
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/notifications/stream [get]
func (h *NotificationHandler) Stream(c *fiber.Ctx) error {
	if h.subs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STREAM_UNAVAILABLE", Message: "el stream de notificaciones no está habilitado"})
	}
	// El stream vive más que el handler: el contexto no puede ser el de la petición.
	ctx, cancel := context.WithCancel(h.base)
	ch, err := h.subs.Subscribe(ctx, GetUserID(c))
	if err != nil {
		cancel()
		return writeError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(sseHeartbeat)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, n); err != nil {
					return
				}
			case <-ticker.C:
				// Un flush fallido indica que el cliente se fue.
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
	return nil
}

func writeEvent(w *bufio.Writer, n dto.NotificationResponse) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", n.ID, data); err != nil {
		return err
	}
	return w.Flush()
}
