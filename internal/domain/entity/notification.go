package entity

import "time"

// Tipos de notificación.
const (
	NotificationInventoryInbound  = "INVENTORY_INBOUND"
	NotificationInventoryOutbound = "INVENTORY_OUTBOUND"
	NotificationInventoryTransfer = "INVENTORY_TRANSFER"
)

// Notification mensaje para un miembro de la empresa. RelatedID apunta a la entidad
// que la originó (p. ej. la transacción); (UserID, Type, RelatedID) es único.
type Notification struct {
	ID        string
	CompanyID string
	UserID    string
	Type      string
	Title     string
	Message   string
	RelatedID string
	ReadAt    *time.Time
	CreatedAt time.Time
}
