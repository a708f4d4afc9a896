package postgres

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stockledger-api/internal/domain"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}

// isForeignKeyViolation 23503: el registro sigue referenciado (p. ej. por el libro de movimientos).
func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// deleteError traduce el error de un DELETE sobre catálogo.
func deleteError(err error) error {
	if isForeignKeyViolation(err) {
		return domain.ErrConflict
	}
	return err
}

// isUUID las llaves son UUID: un id mal formado no puede existir y PostgreSQL
// rechazaría el parámetro con 22P02.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// onlyUUIDs descarta los ids mal formados conservando el orden.
func onlyUUIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if isUUID(id) {
			out = append(out, id)
		}
	}
	return out
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// limitOrAll convierte limit <= 0 en NULL (sin límite en PostgreSQL).
func limitOrAll(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
