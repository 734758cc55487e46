package observability

import (
	"time"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Validation outcomes used as the "outcome" label.
const (
	OutcomeValid           = "valid"
	OutcomeInvalid         = "invalid"
	OutcomeClientError     = "client_error"
	OutcomeGatewayError    = "gateway_error"
	OutcomeUnexpectedError = "unexpected_error"
)

// Metrics holds all Prometheus metrics for the validator.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	validationsTotal   *prometheus.CounterVec
	downstreamDuration *prometheus.HistogramVec
	downstreamErrors   *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "card_validation_request_duration_seconds",
				Help:    "End-to-end duration of card validation requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		validationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "card_validation_requests_total",
				Help: "Total card validation requests by outcome.",
			},
			[]string{"outcome"},
		),
		downstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "card_validation_marca_duration_seconds",
				Help:    "Duration of calls to the card network by HTTP status class.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status_class"},
		),
		downstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "card_validation_marca_errors_total",
				Help: "Total failures calling the card network by reason.",
			},
			[]string{"reason"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "card_validation_circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=half-open, 2=open).",
			},
			[]string{"breaker"},
		),
	}
}

// ObserveValidation records one finished validation request.
func (m *Metrics) ObserveValidation(outcome string, d time.Duration) {
	m.validationsTotal.WithLabelValues(outcome).Inc()
	m.requestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObserveDownstream records the latency of a completed call to the card network.
func (m *Metrics) ObserveDownstream(status int, d time.Duration) {
	m.downstreamDuration.WithLabelValues(statusClass(status)).Observe(d.Seconds())
}

// IncrDownstreamError increments the card network error counter.
func (m *Metrics) IncrDownstreamError(reason string) {
	m.downstreamErrors.WithLabelValues(reason).Inc()
}

// SetBreakerState publishes a breaker state as a gauge value.
func (m *Metrics) SetBreakerState(breaker string, state float64) {
	m.breakerState.WithLabelValues(breaker).Set(state)
}

// GetValidationSnapshot returns counters suitable for GET /v1/metrics/validations.
func (m *Metrics) GetValidationSnapshot() *domain.ValidationMetrics {
	valid := getCounterValue(m.validationsTotal, OutcomeValid)
	invalid := getCounterValue(m.validationsTotal, OutcomeInvalid)
	clientErrs := getCounterValue(m.validationsTotal, OutcomeClientError)
	gatewayErrs := getCounterValue(m.validationsTotal, OutcomeGatewayError)
	unexpected := getCounterValue(m.validationsTotal, OutcomeUnexpectedError)

	total := valid + invalid + clientErrs + gatewayErrs + unexpected
	errorRate := float64(0)
	if total > 0 {
		errorRate = (gatewayErrs + unexpected) / total
	}

	return &domain.ValidationMetrics{
		TotalRequests:    int64(total),
		ValidCards:       int64(valid),
		InvalidCards:     int64(invalid),
		ClientErrors:     int64(clientErrs),
		GatewayErrors:    int64(gatewayErrs),
		UnexpectedErrors: int64(unexpected),
		ErrorRate:        errorRate,
		Period:           "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "unknown"
	}
}
