package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Kind clasifica un error de dominio; la capa HTTP lo traduce a un status.
type Kind string

const (
	KindNotFound   Kind = "NOT_FOUND"
	KindBadRequest Kind = "BAD_REQUEST"
)

// Reglas de negocio que rechaza el motor de inventario (código estable para el cliente).
const (
	RuleValidation        = "VALIDATION"
	RuleInsufficientStock = "INSUFFICIENT_STOCK"
	RuleNoStock           = "NO_STOCK"
	RuleCapacityExceeded  = "CAPACITY_EXCEEDED"
	RuleSameWarehouse     = "SAME_WAREHOUSE"
	RuleWarehouseNotEmpty = "WAREHOUSE_NOT_EMPTY"
	RuleItemInUse         = "ITEM_IN_USE"
)

// Error es un error de dominio tipado: Kind decide el status, Rule el código y Message
// lleva los ids/cantidades concretos para que el cliente pueda actuar sin otra consulta.
type Error struct {
	Kind    Kind
	Rule    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is permite errors.Is(err, domain.ErrNotFound) e errors.Is(err, domain.ErrInvalidInput).
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidInput:
		return e.Kind == KindBadRequest
	}
	return false
}

// NotFoundf construye un error NotFound con mensaje formateado.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Rule: string(KindNotFound), Message: fmt.Sprintf(format, args...)}
}

// BadRequestf construye un error BadRequest para la regla indicada.
func BadRequestf(rule, format string, args ...any) *Error {
	return &Error{Kind: KindBadRequest, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// AsError extrae el *Error de dominio de una cadena de errores.
func AsError(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
