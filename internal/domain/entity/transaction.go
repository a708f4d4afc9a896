package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType tipo de movimiento registrado en el ledger.
type TransactionType string

const (
	TransactionInbound  TransactionType = "INBOUND"
	TransactionOutbound TransactionType = "OUTBOUND"
	TransactionTransfer TransactionType = "TRANSFER"
)

// Valid informa si t es uno de los tipos conocidos.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionInbound, TransactionOutbound, TransactionTransfer:
		return true
	}
	return false
}

// LineRole indica hacia dónde se mueve el stock de una línea: SOURCE sale de la
// bodega, DESTINATION entra. La cantidad de la línea siempre es positiva.
type LineRole string

const (
	LineSource      LineRole = "SOURCE"
	LineDestination LineRole = "DESTINATION"
)

// Transaction es una entrada inmutable del ledger (append-only).
type Transaction struct {
	ID        string
	CompanyID string
	Type      TransactionType
	Note      string
	CreatedBy string
	CreatedAt time.Time
	Lines     []TransactionLine
}

// TransactionLine una tupla (bodega, ítem, cantidad) dentro de una transacción.
type TransactionLine struct {
	ID            string
	TransactionID string
	Position      int
	WarehouseID   string
	ItemID        string
	Role          LineRole
	Quantity      decimal.Decimal
}

// SignedQuantity devuelve -Quantity para SOURCE y +Quantity para DESTINATION.
func (l TransactionLine) SignedQuantity() decimal.Decimal {
	if l.Role == LineSource {
		return l.Quantity.Neg()
	}
	return l.Quantity
}

// NetDelta suma las cantidades con signo de las líneas que tocan (bodega, ítem).
func (t *Transaction) NetDelta(warehouseID, itemID string) decimal.Decimal {
	total := decimal.Zero
	for _, l := range t.Lines {
		if l.WarehouseID == warehouseID && l.ItemID == itemID {
			total = total.Add(l.SignedQuantity())
		}
	}
	return total
}
