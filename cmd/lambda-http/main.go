// Command lambda-http serves the API from API Gateway HTTP APIs (payload v2).
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"mission-backend/internal/bootstrap"
	"mission-backend/internal/shared/config"
	"mission-backend/internal/shared/server/respond"
	"mission-backend/internal/shared/telemetry"
)

// proxy is built on the first invocation and reused while the sandbox is warm.
var proxy = sync.OnceValues(func() (*ginadapter.GinLambdaV2, error) {
	app, err := bootstrap.Build(config.Load())
	if err != nil {
		return nil, err
	}
	telemetry.Info("lambda.cold_start", map[string]any{"env": app.Config.Env})
	return ginadapter.NewV2(app.Router), nil
})

func handler(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p, err := proxy()
	if err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{
			"request_id": req.RequestContext.RequestID,
			"error":      err.Error(),
		})
		return errorResponse(http.StatusInternalServerError, "internal_error", "bootstrap failed"), nil
	}
	return p.ProxyWithContext(ctx, req)
}

func errorResponse(status int, code, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(respond.ErrorResponse{Error: respond.ErrorBody{Code: code, Message: message}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	lambda.Start(handler)
}
