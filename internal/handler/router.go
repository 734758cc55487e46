package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-validation-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// maxBodyBytes caps inbound request bodies.
const maxBodyBytes = 64 << 10

// BreakerReporter exposes the card-network circuit breaker state for /healthz.
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

// NewRouter creates the HTTP router with all routes and middleware.
// breaker may be nil, in which case /healthz only reports this service.
func NewRouter(svc *service.CardValidation, breaker BreakerReporter, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{http.MethodPost, http.MethodGet, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(breaker))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// Legacy serverless path kept for existing callers.
	r.Post("/validar-marca", validateCardHandler(svc, logger))
	r.Options("/validar-marca", preflightHandler)

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Post("/marca/validar", validateCardHandler(svc, logger))
		r.Options("/marca/validar", preflightHandler)
		r.Get("/metrics/validations", validationMetricsHandler(metrics))
	})

	return r
}

func healthzHandler(breaker BreakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "card-validation-bfa", Status: "healthy", LastChecked: now},
		}

		if breaker != nil {
			state := breaker.BreakerState()
			services = append(services, domain.ServiceHealth{
				Name:        "marca",
				Status:      breakerHealth(state),
				Detail:      "circuit " + state.String(),
				LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func breakerHealth(state gobreaker.State) string {
	switch state {
	case gobreaker.StateOpen:
		return "unhealthy"
	case gobreaker.StateHalfOpen:
		return "degraded"
	default:
		return "healthy"
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func validationMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetValidationSnapshot())
	}
}
