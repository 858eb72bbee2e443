package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/app"
	envconfig "github.com/hirosato/staging-ledger/internal/common/config"
	dynamoClient "github.com/hirosato/staging-ledger/internal/platform/dynamodb/client"
	"github.com/hirosato/staging-ledger/internal/platform/logger"
)

// Example: DYNAMODB_TABLE_NAME=staging-dev STAGING_SESSION_ID=acme go run ./cmd/stagingctl post
func main() {
	if err := newRootCmd(openApp).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func openApp(ctx context.Context, opts rootOptions) (*app.App, error) {
	config, err := envconfig.LoadFromEnv()
	if err != nil {
		return nil, err
	}
	if opts.sessionID != "" {
		config.SessionID = opts.sessionID
	}

	level := config.LogLevel
	if opts.verbose {
		level = "debug"
	}
	log, err := logger.NewLogger("dev", level)
	if err != nil {
		return nil, err
	}

	db, err := dynamoClient.NewDynamoDBClient(ctx, config.AWSRegion, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize DynamoDB client: %w", err)
	}

	return app.New(ctx, config, db, log.With(zap.String("sessionId", config.SessionID)))
}
