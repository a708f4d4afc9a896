package inventory

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// TransactionCommitted se emite una vez confirmada la transacción de BD.
// Lleva las entidades ya resueltas para que los hooks no consulten de nuevo.
type TransactionCommitted struct {
	Transaction *entity.Transaction
	ActorID     string
	Warehouses  map[string]*entity.Warehouse
	Items       map[string]*entity.Item
	// Summary agrupa por bodega, en orden de aparición, lo movido en llamadas INBOUND/OUTBOUND.
	Summary []WarehouseSummary
}

// WarehouseSummary resumen de una bodega dentro de una llamada masiva.
type WarehouseSummary struct {
	WarehouseID   string
	WarehouseName string
	Entries       []SummaryEntry
}

// SummaryEntry ítem y cantidad movida.
type SummaryEntry struct {
	ItemName string
	Unit     string
	Quantity decimal.Decimal
}

// PostCommitHook efecto secundario posterior al commit (notificaciones, eventos).
// Su error nunca llega al caller del motor.
type PostCommitHook interface {
	Name() string
	AfterCommit(ctx context.Context, ev TransactionCommitted) error
}

// EventPublisher entrega el evento a los hooks. Publish no bloquea ni falla.
type EventPublisher interface {
	Publish(ctx context.Context, ev TransactionCommitted)
}

// ReceiptRenderer genera el comprobante PDF de una transacción.
type ReceiptRenderer interface {
	RenderTransaction(ctx context.Context, company *entity.Company, tx *dto.TransactionResponse) ([]byte, error)
}
