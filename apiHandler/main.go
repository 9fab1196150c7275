package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"gitlab.connectwisedev.com/inventory-service/pkg/bootstrap"
	"gitlab.connectwisedev.com/inventory-service/pkg/config"
	"gitlab.connectwisedev.com/inventory-service/pkg/httpapi"
	"gitlab.connectwisedev.com/inventory-service/pkg/lambdaproxy"
	"gitlab.connectwisedev.com/inventory-service/pkg/logger"
)

var (
	deps    *bootstrap.Deps
	handler func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
)

func init() {
	config.LoadEnv(logger.Bootstrap())
	cfg := config.Load()
	log := logger.New(cfg)

	var err error
	deps, err = bootstrap.Build(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize service")
	}
	handler = lambdaproxy.Handler(httpapi.NewRouter(deps.App(), cfg.CORSOrigins))
}

func main() {
	defer deps.Close()
	lambda.Start(handler)
}
