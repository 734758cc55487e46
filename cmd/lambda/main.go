package main

import (
	"context"

	"github.com/boddenberg/card-validation-bfa-go/internal/app"
	"github.com/boddenberg/card-validation-bfa-go/internal/config"
	"github.com/boddenberg/card-validation-bfa-go/internal/infra/observability"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel, "card-validation-bfa-lambda")
	defer logger.Sync()

	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "card-validation-bfa-lambda")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdownTracer(context.Background())

	application := app.New(cfg, nil, logger)

	logger.Info("lambda handler ready", zap.String("marca_api_url", cfg.MarcaAPIURL))
	lambda.Start(application.LambdaHandler())
}
