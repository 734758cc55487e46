// Package app wires the validator's collaborators. Both the HTTP server and the
// Lambda entry point build their handlers from here.
package app

import (
	"net/http"

	"github.com/boddenberg/card-validation-bfa-go/internal/config"
	"github.com/boddenberg/card-validation-bfa-go/internal/handler"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/client"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/redact"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/card-validation-bfa-go/internal/service"

	"go.uber.org/zap"
)

// App holds the fully wired validation pipeline.
type App struct {
	Service *service.CardValidation
	Marca   *client.MarcaClient
	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// New builds the pipeline from cfg. httpClient may be nil, in which case one is
// created with cfg.MarcaTimeout.
func New(cfg *config.Config, httpClient *http.Client, logger *zap.Logger) *App {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.MarcaTimeout}
	}

	metrics := observability.NewMetrics()

	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := client.NewMarcaBreaker(metrics, logger)
	signer := client.NewTokenSigner(cfg.MarcaAuthSecret, cfg.MarcaAuthIssuer, cfg.MarcaAuthAudience, cfg.MarcaAuthTTL)
	if signer == nil {
		logger.Debug("outbound auth disabled: MARCA_AUTH_SECRET not set")
	}

	marca := client.NewMarcaClient(httpClient, cfg.MarcaAPIURL, cfg.MarcaTimeout, cb, resilienceCfg, signer, metrics, logger)

	svc := service.NewCardValidation(
		service.NewNormalizer(cfg.AllowZeroAmount),
		marca,
		redact.NewFingerprinter(cfg.PANPepper),
		cfg.StrictContract,
		metrics,
		logger,
	)

	return &App{
		Service: svc,
		Marca:   marca,
		Metrics: metrics,
		Logger:  logger,
	}
}

// Router returns the chi router serving the validation and operational endpoints.
func (a *App) Router() http.Handler {
	return handler.NewRouter(a.Service, a.Marca, a.Metrics, a.Logger)
}

// LambdaHandler returns the API Gateway proxy handler.
func (a *App) LambdaHandler() handler.LambdaHandler {
	return handler.NewLambdaHandler(a.Service, a.Logger)
}
