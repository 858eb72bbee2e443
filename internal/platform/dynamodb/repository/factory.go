package repository

import (
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
	"github.com/hirosato/staging-ledger/internal/platform/dynamodb/client"
)

// Factory creates repository instances scoped to one staging session
type Factory struct {
	client    client.Client
	tableName string
	sessionID string
	logger    *zap.Logger
}

// NewFactory creates a new repository factory
func NewFactory(client client.Client, tableName, sessionID string, logger *zap.Logger) *Factory {
	return &Factory{
		client:    client,
		tableName: tableName,
		sessionID: sessionID,
		logger:    logger,
	}
}

// StagingRepository returns an implementation of the staging.Repository interface
func (f *Factory) StagingRepository() staging.Repository {
	return NewDynamoDBStagingRepository(f.client, f.tableName, f.sessionID, f.logger)
}

// VoucherRepository returns an implementation of the ledger.Repository interface.
// Vouchers posted from a session land in the ledger of the same name.
func (f *Factory) VoucherRepository() ledger.Repository {
	return NewDynamoDBVoucherRepository(f.client, f.tableName, f.sessionID, f.logger)
}
