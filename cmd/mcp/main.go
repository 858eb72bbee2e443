package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/api/middleware"
	"github.com/hirosato/staging-ledger/internal/app"
	envconfig "github.com/hirosato/staging-ledger/internal/common/config"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
	dynamoClient "github.com/hirosato/staging-ledger/internal/platform/dynamodb/client"
	"github.com/hirosato/staging-ledger/internal/platform/logger"
)

func main() {
	config, err := envconfig.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(config.Environment, config.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	db, err := dynamoClient.NewDynamoDBClient(ctx, config.AWSRegion, log)
	if err != nil {
		log.Fatal("failed to initialize DynamoDB client", zap.Error(err))
	}

	application, err := app.New(ctx, config, db, log.With(zap.String("sessionId", config.SessionID)))
	if err != nil {
		log.Fatal("failed to start staging session", zap.Error(err))
	}

	registry, err := application.Registry()
	if err != nil {
		log.Fatal("failed to register MCP handlers", zap.Error(err))
	}

	mcpService := mcp.NewService(log, registry)
	handler := NewMCPRequestHandler(mcpService, application.Store, !config.IsProd())

	chain := middleware.Chain(handler.HandleRequest,
		middleware.NewRecoveryMiddleware(),
		middleware.NewLoggingMiddleware(config.Environment == "dev"),
	)

	lambda.Start(func(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return chain(ctx, log, request)
	})
}
