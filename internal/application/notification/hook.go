package notification

import (
	"context"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
)

// Hook notifica a la empresa cada movimiento confirmado, excluyendo a quien lo hizo.
type Hook struct {
	svc      *Service
	composer *Composer
}

var _ inventory.PostCommitHook = (*Hook)(nil)

// NewHook construye el hook post-commit de notificaciones.
func NewHook(svc *Service, composer *Composer) *Hook {
	return &Hook{svc: svc, composer: composer}
}

func (h *Hook) Name() string { return "notifications" }

// AfterCommit compone el mensaje y lo entrega. RelatedID es la transacción,
// así un reintento del mismo evento no duplica notificaciones.
func (h *Hook) AfterCommit(ctx context.Context, ev inventory.TransactionCommitted) error {
	kind, title, text := h.composer.Compose(ev)
	_, err := h.svc.NotifyCompany(ctx, Request{
		CompanyID:     ev.Transaction.CompanyID,
		Type:          kind,
		Title:         title,
		Message:       text,
		RelatedID:     ev.Transaction.ID,
		ExcludeUserID: ev.ActorID,
	})
	return err
}
