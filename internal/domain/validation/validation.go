package validation

import (
	"fmt"
	"time"
)

// Error acumula mensajes por campo; se devuelve al formulario tal cual.
type Error struct {
	Fields map[string][]string
}

func NewError() *Error {
	return &Error{Fields: map[string][]string{}}
}

func (e *Error) Add(field, msg string) {
	e.Fields[field] = append(e.Fields[field], msg)
}

func (e *Error) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *Error) Error() string {
	return "validation failed"
}

// ErrOrNil devuelve nil cuando no se acumuló nada,
// para poder hacer `return validation.ErrOrNil(ve)` directo.
func (e *Error) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// AsError extrae un *Error de cualquier error (o nil).
func AsError(err error) *Error {
	if ve, ok := err.(*Error); ok {
		return ve
	}
	return nil
}

// AgeAt calcula años cumplidos a la fecha dada,
// descontando uno si el cumpleaños todavía no pasó ese año.
func AgeAt(dob, at time.Time) int {
	age := at.Year() - dob.Year()
	if dob.After(at.AddDate(-age, 0, 0)) {
		age--
	}
	return age
}

// AgeRangeMessage valida que la edad derivada de dob caiga en [min,max].
// Devuelve "" si es válida.
func AgeRangeMessage(dob, at time.Time, min, max int) string {
	age := AgeAt(dob, at)
	if age < min {
		return fmt.Sprintf("you must be at least %d years old", min)
	}
	if age > max {
		return fmt.Sprintf("you must be %d years old or younger", max)
	}
	return ""
}
