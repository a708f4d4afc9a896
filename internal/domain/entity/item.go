package entity

import "time"

// Item representa una entrada del catálogo de la empresa (SKU único por empresa).
type Item struct {
	ID          string
	CompanyID   string
	SKU         string
	Name        string
	Description string
	Unit        string // etiqueta de unidad de medida: "unidades", "kg", "cajas"...
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
