package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/redact"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/resilience"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

const (
	// maxResponseBytes caps how much of a downstream body is read.
	maxResponseBytes = 1 << 20
	// excerptLimit is the max number of characters of a raw body quoted in messages.
	excerptLimit = 100

	networkErrorPrefix = "Error llamando a la API de la MARCA"
)

// MarcaClient is the network gateway to the card network (MARCA) validation endpoint.
type MarcaClient struct {
	httpClient *http.Client
	url        string
	timeout    time.Duration
	cb         *gobreaker.CircuitBreaker
	bulkhead   *resilience.Bulkhead
	cfg        resilience.Config
	signer     *TokenSigner
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewMarcaClient creates a new MarcaClient. timeout bounds each Validate call; zero
// leaves only the http.Client timeout. signer may be nil.
func NewMarcaClient(
	httpClient *http.Client,
	url string,
	timeout time.Duration,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	signer *TokenSigner,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *MarcaClient {
	cfg.Retryable = func(err error) bool {
		var build *requestBuildError
		return !errors.As(err, &build)
	}
	return &MarcaClient{
		httpClient: httpClient,
		url:        url,
		timeout:    timeout,
		cb:         cb,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		cfg:        cfg,
		signer:     signer,
		metrics:    metrics,
		logger:     logger,
	}
}

// NewMarcaBreaker builds the circuit breaker for MarcaClient. Only transport
// failures and 5xx answers count against it; 4xx answers and caller
// cancellations do not.
func NewMarcaBreaker(metrics *observability.Metrics, logger *zap.Logger) *gobreaker.CircuitBreaker {
	return resilience.NewCircuitBreaker("marca", resilience.BreakerSettings{
		IsSuccessful: func(err error) bool {
			// the caller gave up; says nothing about the network's health
			if errors.Is(err, context.Canceled) {
				return true
			}
			var gw *domain.ErrGateway
			if errors.As(err, &gw) {
				return gw.StatusCode() < http.StatusInternalServerError
			}
			return err == nil
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetBreakerState(name, float64(to))
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// rawResponse is a downstream answer read as text, before any parsing.
type rawResponse struct {
	status int
	body   []byte
}

// requestBuildError marks failures preparing the HTTP request, as opposed to sending it.
type requestBuildError struct{ err error }

func (e *requestBuildError) Error() string { return e.err.Error() }
func (e *requestBuildError) Unwrap() error { return e.err }

// Validate POSTs req to the card network and returns its parsed body.
// Every failure is a *domain.ErrGateway.
func (c *MarcaClient) Validate(ctx context.Context, req *domain.CanonicalOutboundRequest) (domain.ValidationResult, error) {
	ctx, span := tracer.Start(ctx, "MarcaClient.Validate")
	defer span.End()
	span.SetAttributes(attribute.String("transaction.id", req.CodigoUnicoTransaccion))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.metrics.IncrDownstreamError("request_build")
		return nil, &domain.ErrGateway{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Error construyendo la solicitud a la MARCA: %v", err),
			Err:     err,
		}
	}

	if err := c.bulkhead.Acquire(ctx); err != nil {
		c.metrics.IncrDownstreamError("bulkhead")
		return nil, &domain.ErrGateway{
			Status:  http.StatusServiceUnavailable,
			Message: fmt.Sprintf("%s: capacidad agotada (%v)", networkErrorPrefix, err),
			Err:     err,
		}
	}
	defer c.bulkhead.Release()

	c.logger.Debug("marca: sending request",
		append(redact.OutboundFields(req, nil), zap.String("url", c.url))...,
	)

	result, err := c.cb.Execute(func() (any, error) {
		var raw *rawResponse
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			r, err := c.post(ctx, body)
			if err != nil {
				return err
			}
			raw = r
			return nil
		})
		if innerErr != nil {
			return nil, c.transportError(innerErr)
		}
		return c.interpret(req, raw)
	})

	if err != nil {
		var gw *domain.ErrGateway
		switch {
		case errors.As(err, &gw):
			span.SetAttributes(attribute.Int("http.status_code", gw.StatusCode()))
			return nil, gw
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			c.metrics.IncrDownstreamError("circuit_open")
			return nil, &domain.ErrGateway{
				Status:  http.StatusServiceUnavailable,
				Message: fmt.Sprintf("%s: circuito abierto", networkErrorPrefix),
				Err:     err,
			}
		default:
			return nil, c.transportError(err)
		}
	}

	return result.(domain.ValidationResult), nil
}

// post performs a single attempt and returns the body as raw text.
func (c *MarcaClient) post(ctx context.Context, body []byte) (*rawResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, &requestBuildError{err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID(ctx))

	if c.signer != nil {
		token, err := c.signer.Sign()
		if err != nil {
			return nil, &requestBuildError{err: fmt.Errorf("sign token: %w", err)}
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	c.metrics.ObserveDownstream(resp.StatusCode, time.Since(start))

	return &rawResponse{status: resp.StatusCode, body: data}, nil
}

// interpret applies the response policy: a non-2xx status wins over whatever the
// body contains; a 2xx body that is not a JSON object becomes a synthetic invalid result.
// Any text quoted from the body has req's card number and CVV masked.
func (c *MarcaClient) interpret(req *domain.CanonicalOutboundRequest, raw *rawResponse) (domain.ValidationResult, error) {
	var parsed domain.ValidationResult
	parseErr := json.Unmarshal(raw.body, &parsed)
	if parseErr == nil && parsed == nil {
		parseErr = errors.New("null body")
	}
	quoted := excerpt(redact.Scrub(string(raw.body), req.NumeroTarjeta, req.CVV))

	if raw.status < 200 || raw.status >= 300 {
		c.metrics.IncrDownstreamError(fmt.Sprintf("status_%d", raw.status))
		detail := quoted
		if parseErr == nil {
			if msg, ok := parsed[domain.ResultMessage].(string); ok && msg != "" {
				detail = redact.Scrub(msg, req.NumeroTarjeta, req.CVV)
			}
		}
		message := fmt.Sprintf("La MARCA respondió %d %s", raw.status, http.StatusText(raw.status))
		if detail != "" {
			message += ": " + detail
		}
		return nil, &domain.ErrGateway{Status: raw.status, Message: message}
	}

	if parseErr != nil {
		c.metrics.IncrDownstreamError("invalid_json")
		c.logger.Warn("marca: response is not a JSON object",
			zap.Int("status", raw.status),
			zap.String("body_excerpt", quoted),
		)
		return domain.ValidationResult{
			domain.ResultValid:   false,
			domain.ResultMessage: fmt.Sprintf("Respuesta no válida de la MARCA: %s", quoted),
		}, nil
	}

	if msg, ok := parsed[domain.ResultMessage].(string); ok {
		parsed[domain.ResultMessage] = redact.Scrub(msg, req.NumeroTarjeta, req.CVV)
	}
	return parsed, nil
}

func (c *MarcaClient) transportError(err error) *domain.ErrGateway {
	var build *requestBuildError
	if errors.As(err, &build) {
		c.metrics.IncrDownstreamError("request_build")
		return &domain.ErrGateway{
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Error construyendo la solicitud a la MARCA: %v", build.err),
			Err:     err,
		}
	}

	reason := "network"
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.Is(err, context.Canceled):
		reason = "canceled"
	}
	c.metrics.IncrDownstreamError(reason)
	return &domain.ErrGateway{
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("%s: %v", networkErrorPrefix, err),
		Err:     err,
	}
}

// BreakerState exposes the circuit breaker state for health reporting.
func (c *MarcaClient) BreakerState() gobreaker.State {
	return c.cb.State()
}

// excerpt truncates s to excerptLimit characters, appending "..." when cut.
func excerpt(s string) string {
	if utf8.RuneCountInString(s) <= excerptLimit {
		return s
	}
	runes := []rune(s)
	return string(runes[:excerptLimit]) + "..."
}

// requestID forwards the inbound request id, or mints one.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
