package domain

import (
	"fmt"
	"net/http"
	"strings"
)

// Error types for consistent error handling across the validator.

// ErrMissingFields lists every required logical field absent from the request.
type ErrMissingFields struct {
	Fields []string
}

func (e *ErrMissingFields) Error() string {
	return fmt.Sprintf("Datos insuficientes para la validación: faltan %s", strings.Join(e.Fields, ", "))
}

// ErrInvalidDateFormat indicates an expiration date that does not match the
// format of the field it came from. An empty Field means fechaExpiracion.
type ErrInvalidDateFormat struct {
	Field string
	Raw   string
}

func (e *ErrInvalidDateFormat) Error() string {
	expected := "MM/YY"
	if e.Field == FieldExpirationDate {
		expected = "YYYY-MM-DD"
	}
	return fmt.Sprintf("Formato de fecha inválido: %q (se esperaba %s)", e.Raw, expected)
}

// ErrInvalidBody indicates the inbound payload is not a JSON object.
type ErrInvalidBody struct {
	Reason string
}

func (e *ErrInvalidBody) Error() string {
	return fmt.Sprintf("Cuerpo de solicitud inválido: %s", e.Reason)
}

// ErrGateway is a failure talking to the card network. Status is propagated to the client.
type ErrGateway struct {
	Status  int
	Message string
	Err     error
}

func (e *ErrGateway) Error() string {
	return e.Message
}

func (e *ErrGateway) Unwrap() error {
	return e.Err
}

// StatusCode returns the carried status, or 500 when none was set.
func (e *ErrGateway) StatusCode() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}
