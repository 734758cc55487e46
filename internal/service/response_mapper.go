package service

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
)

// MapToClientResponse translates a network result, or the first error of the
// pipeline, into the response returned to the caller. It is the single place
// where errors become status codes.
func MapToClientResponse(result domain.ValidationResult, err error) domain.ClientResponse {
	if err != nil {
		return mapError(err)
	}

	swift := stringField(result, domain.ResultSwift, "")
	return domain.ClientResponse{
		StatusCode: http.StatusOK,
		Body: domain.ClientResponseBody{
			TarjetaValida: validityFlag(result),
			Mensaje:       stringField(result, domain.ResultMessage, domain.DefaultResultMessage),
			SwiftBanco:    &swift,
		},
	}
}

func mapError(err error) domain.ClientResponse {
	var missing *domain.ErrMissingFields
	var badDate *domain.ErrInvalidDateFormat
	var badBody *domain.ErrInvalidBody
	var gateway *domain.ErrGateway

	switch {
	case errors.As(err, &missing), errors.As(err, &badDate), errors.As(err, &badBody):
		return domain.ClientResponse{
			StatusCode: http.StatusBadRequest,
			Body:       domain.ClientResponseBody{Mensaje: err.Error()},
		}
	case errors.As(err, &gateway):
		return domain.ClientResponse{
			StatusCode: gateway.StatusCode(),
			Body:       domain.ClientResponseBody{Mensaje: gateway.Message, Error: gateway.Message},
		}
	default:
		return domain.ClientResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       domain.ClientResponseBody{Mensaje: err.Error(), Error: err.Error()},
		}
	}
}

// hasValidityFlag reports whether the network sent a readable esValida or alias.
func hasValidityFlag(result domain.ValidationResult) bool {
	_, ok := readValidityFlag(result)
	return ok
}

// validityFlag reads esValida (or tarjetaValida). Anything unreadable is false.
func validityFlag(result domain.ValidationResult) bool {
	v, _ := readValidityFlag(result)
	return v
}

// readValidityFlag looks at the first of esValida, tarjetaValida that is present and
// non-null, and only that one. Booleans and "true"/"false" strings are readable;
// ok is false for any other value or when neither key is present.
func readValidityFlag(result domain.ValidationResult) (value, ok bool) {
	for _, key := range []string{domain.ResultValid, domain.ResultValidAlias} {
		raw, present := result[key]
		if !present || raw == nil {
			continue
		}
		switch v := raw.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			return b && err == nil, err == nil
		default:
			return false, false
		}
	}
	return false, false
}

// stringField returns result[key] when it is a string, fallback otherwise.
// An empty string is kept; only absence or null triggers the fallback.
func stringField(result domain.ValidationResult, key, fallback string) string {
	if s, ok := result[key].(string); ok {
		return s
	}
	return fallback
}
