package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"

	"cvio-backend/internal/bootstrap"
	"cvio-backend/internal/shared/config"
	"cvio-backend/internal/shared/telemetry"
)

const bootstrapFailedBody = `{"error":{"code":"internal","message":"service unavailable"}}`

// proxy builds the router on the first invocation and reuses it for the
// lifetime of the execution environment.
type proxy struct {
	build   func() (*gin.Engine, error)
	once    sync.Once
	adapter *ginadapter.GinLambdaV2
	err     error
}

func (p *proxy) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	p.once.Do(func() {
		router, err := p.build()
		if err != nil {
			p.err = err
			return
		}
		p.adapter = ginadapter.NewV2(router)
	})
	if p.err != nil {
		telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": p.err})
		return events.APIGatewayV2HTTPResponse{
			StatusCode: http.StatusInternalServerError,
			Body:       bootstrapFailedBody,
			Headers:    map[string]string{"Content-Type": "application/json"},
		}, nil
	}
	return p.adapter.ProxyWithContext(ctx, req)
}

func buildRouter() (*gin.Engine, error) {
	cfg := config.Load()
	if err := telemetry.Init(cfg.Env, cfg.LogLevel); err != nil {
		return nil, err
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return nil, err
	}
	telemetry.Info("lambda.cold_start", map[string]any{"store": cfg.Store, "object_store": cfg.ObjectStoreType})
	return app.Router, nil
}

func main() {
	p := &proxy{build: buildRouter}
	lambda.Start(p.handle)
}
