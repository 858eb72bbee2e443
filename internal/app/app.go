// Package app wires the staging store, posting pipeline and command bus
// for the Lambda entry point and the operator CLI.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/api/mcp/resources"
	"github.com/hirosato/staging-ledger/internal/api/mcp/tools"
	"github.com/hirosato/staging-ledger/internal/common/config"
	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
	"github.com/hirosato/staging-ledger/internal/domain/posting"
	"github.com/hirosato/staging-ledger/internal/domain/session"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
	"github.com/hirosato/staging-ledger/internal/platform/dynamodb/client"
	"github.com/hirosato/staging-ledger/internal/platform/dynamodb/repository"
	"github.com/hirosato/staging-ledger/internal/platform/resilience"
)

// App holds the long lived objects of one process
type App struct {
	Logger  *zap.Logger
	Store   *staging.Store
	Ledger  *ledger.Service
	Guard   *resilience.LedgerGuard
	Bus     *command.Bus
	Session *session.Session

	detach func()
}

// New builds the object graph on top of db and loads the staging rows.
// The session is attached to the bus before New returns.
func New(ctx context.Context, cfg *config.Config, db client.Client, logger *zap.Logger) (*App, error) {
	factory := repository.NewFactory(db, cfg.DynamoDBTableName, cfg.SessionID, logger)

	ledgerService := ledger.NewService(factory.VoucherRepository(), logger)
	guard := resilience.NewLedgerGuard(ledgerService, resilience.Config{
		Timeout:             cfg.LedgerTimeout,
		ConsecutiveFailures: cfg.BreakerFailures,
		Cooldown:            cfg.BreakerCooldown,
	}, logger)

	store := staging.NewStore(factory.StagingRepository(), logger, cfg.SaveWindow)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load staging rows: %w", err)
	}

	pipeline := posting.NewPipeline(guard, store, logger,
		posting.WithCurrency(cfg.LedgerCurrency),
		posting.WithVoucherType(cfg.VoucherType),
	)

	bus := command.NewBus(logger)
	sess := session.New(store, pipeline, logger)

	return &App{
		Logger:  logger,
		Store:   store,
		Ledger:  ledgerService,
		Guard:   guard,
		Bus:     bus,
		Session: sess,
		detach:  sess.Attach(bus),
	}, nil
}

// Registry returns an MCP registry exposing every staging tool and resource
func (a *App) Registry() (*mcp.HandlerRegistry, error) {
	registry := mcp.NewHandlerRegistry()

	toolHandlers := []mcp.ToolHandler{
		tools.NewPostStagingRowsTool(a.Bus),
		tools.NewCheckBalanceTool(a.Bus),
		tools.NewAddStagingRowTool(a.Bus, a.Store),
		tools.NewUpdateStagingRowTool(a.Store),
		tools.NewDeleteStagingRowTool(a.Store),
		tools.NewClearStagingRowsTool(a.Bus),
		tools.NewResetStagingRowsTool(a.Bus),
		tools.NewGetVouchersTool(a.Ledger),
	}
	for _, h := range toolHandlers {
		if err := registry.RegisterTool(h); err != nil {
			return nil, err
		}
	}

	if err := registry.RegisterResource(resources.NewStagingRowsResource(a.Store)); err != nil {
		return nil, err
	}
	return registry, nil
}

// Flush writes pending field edits immediately
func (a *App) Flush(ctx context.Context) {
	a.Store.Flush(ctx)
}

// Close detaches the session from the bus and flushes the store
func (a *App) Close(ctx context.Context) {
	if a.detach != nil {
		a.detach()
		a.detach = nil
	}
	a.Store.Close(ctx)
}
