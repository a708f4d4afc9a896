package entity

import "time"

// Company representa una organización/tenant: todas las bodegas, ítems y
// transacciones pertenecen exactamente a una.
type Company struct {
	ID        string
	Name      string
	TaxID     string
	Email     string
	Status    string // active, suspended
	CreatedAt time.Time
	UpdatedAt time.Time
}
