package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/boddenberg/card-validation-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// POST /v1/marca/validar, POST /validar-marca
// ============================================================

func validateCardHandler(svc *service.CardValidation, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			reason := "no se pudo leer el cuerpo"
			if errors.As(err, &tooLarge) {
				reason = "cuerpo demasiado grande"
			}
			logger.Debug("invalid request body", zap.Error(err))
			writeClientResponse(w, service.MapToClientResponse(nil, &domain.ErrInvalidBody{Reason: reason}))
			return
		}

		writeClientResponse(w, svc.HandleBody(r.Context(), body))
	}
}

// preflightHandler answers OPTIONS requests that carry no CORS request headers;
// real preflights are answered by the cors middleware before reaching it.
func preflightHandler(w http.ResponseWriter, r *http.Request) {
	for k, v := range domain.ResponseHeaders() {
		w.Header().Set(k, v)
	}
	w.WriteHeader(http.StatusOK)
}
