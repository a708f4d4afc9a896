package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
)

// Writer lo cumple *kafka.Writer.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// LedgerEvent es el cuerpo publicado por cada transacción confirmada.
type LedgerEvent struct {
	TransactionID string       `json:"transaction_id"`
	CompanyID     string       `json:"company_id"`
	Type          string       `json:"type"`
	Note          string       `json:"note,omitempty"`
	CreatedBy     string       `json:"created_by"`
	CreatedAt     time.Time    `json:"created_at"`
	Lines         []LedgerLine `json:"lines"`
}

// LedgerLine línea con su cantidad firmada.
type LedgerLine struct {
	Position    int    `json:"position"`
	WarehouseID string `json:"warehouse_id"`
	ItemID      string `json:"item_id"`
	Role        string `json:"role"`
	Quantity    string `json:"quantity"`
	Signed      string `json:"signed_quantity"`
}

// LedgerPublisher hook post-commit que publica la transacción en Kafka.
// La clave del mensaje es la empresa: los eventos de un tenant conservan su orden en la partición.
type LedgerPublisher struct {
	w Writer
}

var _ inventory.PostCommitHook = (*LedgerPublisher)(nil)

// NewWriter crea el *kafka.Writer del tópico del ledger.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
}

func NewLedgerPublisher(w Writer) *LedgerPublisher {
	return &LedgerPublisher{w: w}
}

func (p *LedgerPublisher) Name() string { return "kafka-ledger" }

// AfterCommit serializa el evento e inyecta el contexto de traza en las cabeceras.
func (p *LedgerPublisher) AfterCommit(ctx context.Context, ev inventory.TransactionCommitted) error {
	payload, err := json.Marshal(toLedgerEvent(ev))
	if err != nil {
		return fmt.Errorf("serializar evento: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.Transaction.CompanyID),
		Value:   payload,
		Headers: traceHeaders(ctx),
	}
	msg.Headers = append(msg.Headers, kafka.Header{Key: "event_type", Value: []byte("inventory.transaction.committed")})
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publicar transacción %s: %w", ev.Transaction.ID, err)
	}
	return nil
}

func (p *LedgerPublisher) Close() error { return p.w.Close() }

func toLedgerEvent(ev inventory.TransactionCommitted) LedgerEvent {
	t := ev.Transaction
	out := LedgerEvent{
		TransactionID: t.ID,
		CompanyID:     t.CompanyID,
		Type:          string(t.Type),
		Note:          t.Note,
		CreatedBy:     t.CreatedBy,
		CreatedAt:     t.CreatedAt,
		Lines:         make([]LedgerLine, 0, len(t.Lines)),
	}
	for _, l := range t.Lines {
		out.Lines = append(out.Lines, LedgerLine{
			Position:    l.Position,
			WarehouseID: l.WarehouseID,
			ItemID:      l.ItemID,
			Role:        string(l.Role),
			Quantity:    l.Quantity.String(),
			Signed:      l.SignedQuantity().String(),
		})
	}
	return out
}

func traceHeaders(ctx context.Context) []kafka.Header {
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	headers := make([]kafka.Header, 0, len(carrier)+1)
	for _, k := range carrier.Keys() {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(carrier.Get(k))})
	}
	return headers
}
