package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/boddenberg/card-validation-bfa-go/internal/domain"
	"github.com/boddenberg/card-validation-bfa-go/internal/service"

	"github.com/aws/aws-lambda-go/events"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// LambdaHandler is the signature accepted by lambda.Start for API Gateway proxy events.
type LambdaHandler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// NewLambdaHandler adapts the validation pipeline to API Gateway proxy integration.
// It never returns an error: every failure is already a client response.
func NewLambdaHandler(svc *service.CardValidation, logger *zap.Logger) LambdaHandler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		ctx, span := tracer.Start(ctx, "lambda validarMarca")
		defer span.End()
		span.SetAttributes(attribute.String("faas.invocation_id", req.RequestContext.RequestID))

		switch req.HTTPMethod {
		case http.MethodOptions:
			return proxyResponse(http.StatusOK, ""), nil
		case http.MethodPost, "":
			// direct invocations carry no method
		default:
			return proxyResponse(http.StatusMethodNotAllowed, `{"tarjetaValida":false,"mensaje":"Método no permitido"}`), nil
		}

		body := []byte(req.Body)
		if req.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(req.Body)
			if err != nil {
				logger.Debug("lambda: invalid base64 body",
					zap.String("request_id", req.RequestContext.RequestID),
					zap.Error(err),
				)
				resp := service.MapToClientResponse(nil, &domain.ErrInvalidBody{Reason: "base64 inválido"})
				return toProxyResponse(resp), nil
			}
			body = decoded
		}

		return toProxyResponse(svc.HandleBody(ctx, body)), nil
	}
}

func toProxyResponse(resp domain.ClientResponse) events.APIGatewayProxyResponse {
	body, err := json.Marshal(resp.Body)
	if err != nil {
		return proxyResponse(http.StatusInternalServerError, `{"tarjetaValida":false,"mensaje":"error serializando la respuesta"}`)
	}
	return proxyResponse(resp.StatusCode, string(body))
}

func proxyResponse(status int, body string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    domain.ResponseHeaders(),
		Body:       body,
	}
}
