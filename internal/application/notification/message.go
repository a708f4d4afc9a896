package notification

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/jhoicas/stockledger-api/internal/application/inventory"
	"github.com/jhoicas/stockledger-api/internal/domain/entity"
)

// Las claves están en español; el catálogo solo registra las traducciones.
const (
	titleInbound  = "Entrada de inventario"
	titleOutbound = "Salida de inventario"
	titleTransfer = "Transferencia de inventario"

	msgInboundOne  = "Entrada de %v %s de %s en la bodega %s."
	msgOutboundOne = "Salida de %v %s de %s de la bodega %s."
	msgInboundBulk = "Entrada registrada. %s"
	msgOutbound    = "Salida registrada. %s"
	msgTransfer    = "Se movieron %v %s de %s de la bodega %s a la bodega %s."
	msgEntry       = "%v %s de %s"
)

func init() {
	en := language.English
	for key, tr := range map[string]string{
		titleInbound:   "Inventory inbound",
		titleOutbound:  "Inventory outbound",
		titleTransfer:  "Inventory transfer",
		msgInboundOne:  "Inbound of %v %s of %s into warehouse %s.",
		msgOutboundOne: "Outbound of %v %s of %s from warehouse %s.",
		msgInboundBulk: "Inbound recorded. %s",
		msgOutbound:    "Outbound recorded. %s",
		msgTransfer:    "Moved %v %s of %s from warehouse %s to warehouse %s.",
		msgEntry:       "%v %s of %s",
	} {
		_ = message.SetString(en, key, tr)
	}
}

// Composer arma título y texto de la notificación de un movimiento.
type Composer struct {
	p *message.Printer
}

// NewComposer crea un composer para el locale ("es", "en"...). Locale desconocido cae a español.
func NewComposer(locale string) *Composer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Spanish
	}
	return &Composer{p: message.NewPrinter(tag)}
}

// Compose devuelve tipo, título y mensaje para el evento.
//   - una línea: una oración con bodega, ítem, cantidad y unidad;
//   - varias líneas: resumen por bodega concatenado;
//   - TRANSFER: una oración "se movieron X de A a B".
func (c *Composer) Compose(ev inventory.TransactionCommitted) (kind, title, text string) {
	t := ev.Transaction
	switch t.Type {
	case entity.TransactionTransfer:
		src, dst := t.Lines[0], t.Lines[1]
		if src.Role != entity.LineSource {
			src, dst = dst, src
		}
		it := ev.Items[src.ItemID]
		return entity.NotificationInventoryTransfer, c.p.Sprintf(titleTransfer),
			c.p.Sprintf(msgTransfer, c.qty(src.Quantity), it.Unit, it.Name,
				ev.Warehouses[src.WarehouseID].Name, ev.Warehouses[dst.WarehouseID].Name)

	case entity.TransactionInbound:
		kind, title = entity.NotificationInventoryInbound, c.p.Sprintf(titleInbound)
		if len(t.Lines) == 1 {
			return kind, title, c.single(msgInboundOne, ev)
		}
		return kind, title, c.p.Sprintf(msgInboundBulk, c.bulk(ev.Summary))

	default:
		kind, title = entity.NotificationInventoryOutbound, c.p.Sprintf(titleOutbound)
		if len(t.Lines) == 1 {
			return kind, title, c.single(msgOutboundOne, ev)
		}
		return kind, title, c.p.Sprintf(msgOutbound, c.bulk(ev.Summary))
	}
}

func (c *Composer) single(key string, ev inventory.TransactionCommitted) string {
	l := ev.Transaction.Lines[0]
	it := ev.Items[l.ItemID]
	return c.p.Sprintf(key, c.qty(l.Quantity), it.Unit, it.Name, ev.Warehouses[l.WarehouseID].Name)
}

// bulk "Central: 10 unidades de Tornillo, 4 cajas de Caja. Norte: 3 cajas de Caja."
func (c *Composer) bulk(summary []inventory.WarehouseSummary) string {
	parts := make([]string, 0, len(summary))
	for _, s := range summary {
		entries := make([]string, 0, len(s.Entries))
		for _, e := range s.Entries {
			entries = append(entries, c.p.Sprintf(msgEntry, c.qty(e.Quantity), e.Unit, e.ItemName))
		}
		parts = append(parts, s.WarehouseName+": "+strings.Join(entries, ", ")+".")
	}
	return strings.Join(parts, " ")
}

func (c *Composer) qty(q decimal.Decimal) number.Formatter {
	return number.Decimal(q.InexactFloat64(), number.MaxFractionDigits(3))
}
