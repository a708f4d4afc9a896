package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jhoicas/stockledger-api/internal/application/dto"
	"github.com/jhoicas/stockledger-api/internal/domain"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
	"github.com/jhoicas/stockledger-api/internal/domain/repository"
)

const tracerName = "github.com/jhoicas/stockledger-api/internal/application/inventory"

// Engine motor de movimientos de inventario: valida referencias, muta existencias y
// escribe el ledger en una sola transacción de BD; luego publica el evento post-commit.
//
// Aislamiento: READ COMMITTED con bloqueos explícitos. Las bodegas tocadas se bloquean
// (FOR UPDATE, ordenadas por id) antes de leerlas, y capacidad y existencias se
// evalúan sobre ese estado bloqueado. Eso serializa los movimientos
// concurrentes sobre una misma bodega y protege el techo de capacidad.
type Engine struct {
	txRunner repository.TxRunner
	events   EventPublisher
	now      func() time.Time
	tracer   trace.Tracer
}

// NewEngine construye el motor. events puede ser nil (sin efectos post-commit).
func NewEngine(txRunner repository.TxRunner, events EventPublisher) *Engine {
	return &Engine{
		txRunner: txRunner,
		events:   events,
		now:      time.Now,
		tracer:   otel.Tracer(tracerName),
	}
}

// WithClock reemplaza el reloj (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// LineInput una línea solicitada.
type LineInput struct {
	WarehouseID string
	ItemID      string
	Quantity    decimal.Decimal
}

// CreateTransactionInput entrada de CreateTransaction. Type es INBOUND u OUTBOUND.
type CreateTransactionInput struct {
	CompanyID string
	ActorID   string
	Type      entity.TransactionType
	Note      string
	Lines     []LineInput
}

// TransferInput entrada de TransferInventory.
type TransferInput struct {
	CompanyID       string
	ActorID         string
	FromWarehouseID string
	ToWarehouseID   string
	ItemID          string
	Quantity        decimal.Decimal
	Note            string
}

// CreateTransaction registra una entrada o salida de una o varias líneas.
// Las líneas se procesan en orden; el primer fallo revierte todo.
func (e *Engine) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*dto.TransactionResponse, error) {
	var role entity.LineRole
	switch in.Type {
	case entity.TransactionInbound:
		role = entity.LineDestination
	case entity.TransactionOutbound:
		role = entity.LineSource
	default:
		return nil, domain.BadRequestf(domain.RuleValidation, "tipo de transacción inválido: %q (use INBOUND u OUTBOUND)", in.Type)
	}
	if len(in.Lines) == 0 {
		return nil, domain.BadRequestf(domain.RuleValidation, "la transacción requiere al menos una línea")
	}
	lines := make([]plannedLine, 0, len(in.Lines))
	for i, l := range in.Lines {
		if l.WarehouseID == "" || l.ItemID == "" {
			return nil, domain.BadRequestf(domain.RuleValidation, "línea %d: warehouse_id e item_id son requeridos", i+1)
		}
		if msg := checkQuantity(l.Quantity); msg != "" {
			return nil, domain.BadRequestf(domain.RuleValidation, "línea %d: %s", i+1, msg)
		}
		lines = append(lines, plannedLine{WarehouseID: l.WarehouseID, ItemID: l.ItemID, Role: role, Quantity: l.Quantity})
	}
	return e.execute(ctx, in.CompanyID, in.ActorID, in.Type, in.Note, lines)
}

// TransferInventory mueve una cantidad de un ítem entre dos bodegas de la empresa.
// El ledger guarda dos líneas: SOURCE en origen y DESTINATION en destino.
func (e *Engine) TransferInventory(ctx context.Context, in TransferInput) (*dto.TransactionResponse, error) {
	if in.FromWarehouseID == "" || in.ToWarehouseID == "" || in.ItemID == "" {
		return nil, domain.BadRequestf(domain.RuleValidation, "from_warehouse_id, to_warehouse_id e item_id son requeridos")
	}
	if in.FromWarehouseID == in.ToWarehouseID {
		return nil, domain.BadRequestf(domain.RuleSameWarehouse, "la bodega de origen y la de destino no pueden ser la misma (%s)", in.FromWarehouseID)
	}
	if msg := checkQuantity(in.Quantity); msg != "" {
		return nil, domain.BadRequestf(domain.RuleValidation, "%s", msg)
	}
	lines := []plannedLine{
		{WarehouseID: in.FromWarehouseID, ItemID: in.ItemID, Role: entity.LineSource, Quantity: in.Quantity},
		{WarehouseID: in.ToWarehouseID, ItemID: in.ItemID, Role: entity.LineDestination, Quantity: in.Quantity},
	}
	return e.execute(ctx, in.CompanyID, in.ActorID, entity.TransactionTransfer, in.Note, lines)
}

func (e *Engine) execute(
	ctx context.Context,
	companyID, actorID string,
	kind entity.TransactionType,
	note string,
	lines []plannedLine,
) (*dto.TransactionResponse, error) {
	ctx, span := e.tracer.Start(ctx, "inventory.execute", trace.WithAttributes(
		attribute.String("company.id", companyID),
		attribute.String("transaction.type", string(kind)),
		attribute.Int("transaction.lines", len(lines)),
	))
	defer span.End()

	if companyID == "" || actorID == "" {
		return nil, fail(span, domain.BadRequestf(domain.RuleValidation, "empresa y usuario son requeridos"))
	}

	now := e.now().UTC()
	var (
		committed *entity.Transaction
		refs      *references
		creator   *entity.User
	)
	err := e.txRunner.Run(ctx, func(repos repository.TxRepositories) error {
		locked, err := lockWarehouses(ctx, repos, companyID, lines)
		if err != nil {
			return err
		}
		refs, err = resolveReferences(ctx, repos, companyID, lines, locked)
		if err != nil {
			return err
		}

		for _, l := range lines {
			if err := applyLine(ctx, repos.Inventory(), companyID, refs.warehouses[l.WarehouseID], l, now); err != nil {
				return err
			}
		}

		committed, err = writeLedger(ctx, repos.Transactions(), companyID, actorID, kind, note, lines, now)
		if err != nil {
			return err
		}
		creator, err = repos.Users().GetByID(ctx, actorID)
		if err != nil {
			return fmt.Errorf("buscar usuario %s: %w", actorID, err)
		}
		return nil
	})
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.String("transaction.id", committed.ID))

	if e.events != nil {
		ev := TransactionCommitted{
			Transaction: committed,
			ActorID:     actorID,
			Warehouses:  refs.warehouses,
			Items:       refs.items,
		}
		if kind != entity.TransactionTransfer {
			ev.Summary = summarize(lines, refs)
		}
		e.events.Publish(ctx, ev)
	}
	return toTransactionResponse(committed, refs.warehouses, refs.items, creator), nil
}

// Las cantidades se guardan como NUMERIC(20, 6).
const (
	quantityScale    = 6
	quantityIntegers = 14
)

var maxQuantity = decimal.New(1, quantityIntegers)

// checkQuantity describe por qué q no es una cantidad válida; "" si lo es.
func checkQuantity(q decimal.Decimal) string {
	switch {
	case !q.IsPositive():
		return "la cantidad debe ser mayor que cero"
	case !q.Equal(q.Truncate(quantityScale)):
		return fmt.Sprintf("la cantidad %s admite como máximo %d decimales", q, quantityScale)
	case q.GreaterThanOrEqual(maxQuantity):
		return fmt.Sprintf("la cantidad %s supera el máximo permitido", q)
	}
	return ""
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
