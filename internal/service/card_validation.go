package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/redact"
	"github.com/boddenberg/card-validation-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/card_validation")

// CardValidation composes Normalizer → MarcaValidator → response mapper.
// Each call is independent; the struct only holds immutable collaborators.
type CardValidation struct {
	normalizer     *Normalizer
	marca          port.MarcaValidator
	fingerprinter  *redact.Fingerprinter
	strictContract bool
	metrics        *observability.Metrics
	logger         *zap.Logger
}

// NewCardValidation creates the validation service with all dependencies injected.
// With strictContract, a network response lacking esValida is a 502 instead of "invalid".
func NewCardValidation(
	normalizer *Normalizer,
	marca port.MarcaValidator,
	fingerprinter *redact.Fingerprinter,
	strictContract bool,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *CardValidation {
	return &CardValidation{
		normalizer:     normalizer,
		marca:          marca,
		fingerprinter:  fingerprinter,
		strictContract: strictContract,
		metrics:        metrics,
		logger:         logger,
	}
}

// Validate normalizes raw and forwards it to the card network. No network call is
// made when normalization fails.
func (s *CardValidation) Validate(ctx context.Context, raw domain.InboundRequest) (_ domain.ValidationResult, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "CardValidation.Validate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	s.logger.Debug("received validation request", zap.Any("request", redact.Inbound(raw)))

	req, err := s.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("transaction.id", req.CodigoUnicoTransaccion))

	s.logger.Info("forwarding request to card network", redact.OutboundFields(req, s.fingerprinter)...)

	result, err := s.marca.Validate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !hasValidityFlag(result) {
		if s.strictContract {
			return nil, &domain.ErrGateway{
				Status:  http.StatusBadGateway,
				Message: "La MARCA respondió sin indicador de validez (esValida)",
			}
		}
		s.logger.Warn("card network response lacks validity flag, defaulting to invalid",
			zap.String("codigo_unico_transaccion", req.CodigoUnicoTransaccion),
		)
	}
	return result, nil
}

// Handle runs the full pipeline and always produces a client response. Panics are
// converted into a 500 response.
func (s *CardValidation) Handle(ctx context.Context, raw domain.InboundRequest) (resp domain.ClientResponse) {
	start := time.Now()

	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("error inesperado en el proceso de validación: %v", r)
			resp = MapToClientResponse(nil, err)
		}
		s.record(resp, err, time.Since(start))
	}()

	var result domain.ValidationResult
	result, err = s.Validate(ctx, raw)
	resp = MapToClientResponse(result, err)
	return resp
}

// HandleBody decodes a raw request body and runs Handle. Decoding failures are
// client errors and skip the pipeline.
func (s *CardValidation) HandleBody(ctx context.Context, body []byte) domain.ClientResponse {
	raw, err := DecodeInbound(body)
	if err != nil {
		resp := MapToClientResponse(nil, err)
		s.record(resp, err, 0)
		return resp
	}
	return s.Handle(ctx, raw)
}

func (s *CardValidation) record(resp domain.ClientResponse, err error, d time.Duration) {
	outcome := classifyOutcome(resp, err)
	s.metrics.ObserveValidation(outcome, d)

	switch outcome {
	case observability.OutcomeClientError:
		s.logger.Info("validation rejected: client data",
			zap.Int("status", resp.StatusCode),
			zap.String("reason", resp.Body.Mensaje),
		)
	case observability.OutcomeGatewayError:
		s.logger.Warn("validation failed: card network",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
		)
	case observability.OutcomeUnexpectedError:
		s.logger.Error("validation failed: unexpected error",
			zap.Int("status", resp.StatusCode),
			zap.Error(err),
			zap.Stack("stack"),
		)
	default:
		s.logger.Info("validation completed",
			zap.Bool("tarjeta_valida", resp.Body.TarjetaValida),
			zap.Duration("latency", d),
		)
	}
}

func classifyOutcome(resp domain.ClientResponse, err error) string {
	var gateway *domain.ErrGateway
	switch {
	case err == nil && resp.Body.TarjetaValida:
		return observability.OutcomeValid
	case err == nil:
		return observability.OutcomeInvalid
	case errors.As(err, &gateway):
		return observability.OutcomeGatewayError
	case resp.StatusCode == http.StatusBadRequest:
		return observability.OutcomeClientError
	default:
		return observability.OutcomeUnexpectedError
	}
}
