package entity

import "time"

// Warehouse representa una bodega de la empresa con un techo fijo de capacidad:
// la suma de cantidades de todos sus registros de inventario no puede superarlo.
type Warehouse struct {
	ID        string
	CompanyID string
	Name      string
	Location  string
	Capacity  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}
