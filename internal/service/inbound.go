package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
)

// DecodeInbound parses a request body into an InboundRequest. Numbers are kept as
// json.Number. An empty body is an empty request, so every field is reported missing.
func DecodeInbound(body []byte) (domain.InboundRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return domain.InboundRequest{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw domain.InboundRequest
	if err := dec.Decode(&raw); err != nil {
		return nil, &domain.ErrInvalidBody{Reason: "se esperaba un objeto JSON"}
	}
	if raw == nil {
		// literal null
		return nil, &domain.ErrInvalidBody{Reason: "se esperaba un objeto JSON"}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &domain.ErrInvalidBody{Reason: "contenido adicional tras el objeto JSON"}
	}
	return raw, nil
}
