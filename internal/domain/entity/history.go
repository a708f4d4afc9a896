package entity

import "time"

// EntityKind identifica el tipo de entidad de un snapshot de historial.
type EntityKind string

const (
	KindWarehouse EntityKind = "warehouse"
	KindItem      EntityKind = "item"
)

// Acciones registradas en el historial.
const (
	HistoryCreate = "CREATE"
	HistoryUpdate = "UPDATE"
	HistoryDelete = "DELETE"
)

// Snapshot es el valor tipado de una entidad en un instante. Cada tipo de entidad
// tiene su propio snapshot; no se copian campos por reflexión.
type Snapshot interface {
	Kind() EntityKind
}

// WarehouseSnapshot campos auditables de una bodega.
type WarehouseSnapshot struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Capacity int64  `json:"capacity"`
}

func (WarehouseSnapshot) Kind() EntityKind { return KindWarehouse }

// ItemSnapshot campos auditables de un ítem.
type ItemSnapshot struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
}

func (ItemSnapshot) Kind() EntityKind { return KindItem }

// SnapshotOfWarehouse toma la foto de una bodega.
func SnapshotOfWarehouse(w *Warehouse) WarehouseSnapshot {
	return WarehouseSnapshot{Name: w.Name, Location: w.Location, Capacity: w.Capacity}
}

// SnapshotOfItem toma la foto de un ítem.
func SnapshotOfItem(i *Item) ItemSnapshot {
	return ItemSnapshot{SKU: i.SKU, Name: i.Name, Description: i.Description, Unit: i.Unit}
}

// HistoryEntry cambio auditado sobre una entidad. Before es nil en CREATE y After en DELETE.
type HistoryEntry struct {
	ID         string
	CompanyID  string
	EntityKind EntityKind
	EntityID   string
	Action     string
	Before     Snapshot
	After      Snapshot
	ChangedBy  string
	CreatedAt  time.Time
}
