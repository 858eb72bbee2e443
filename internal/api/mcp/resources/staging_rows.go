package resources

import (
	"context"
	"encoding/json"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

type StagingRowsResource struct {
	store *staging.Store
}

func NewStagingRowsResource(store *staging.Store) *StagingRowsResource {
	return &StagingRowsResource{store: store}
}

func (r *StagingRowsResource) GetURI() string {
	return "myapp://staging-rows"
}

func (r *StagingRowsResource) GetName() string {
	return "Staging Rows"
}

func (r *StagingRowsResource) GetDescription() string {
	return "The staging rows of the current session in display order, including posting status"
}

func (r *StagingRowsResource) GetMimeType() string {
	return "application/json"
}

func (r *StagingRowsResource) Read(ctx context.Context) (*mcp.ReadResourceResult, error) {
	data, err := json.Marshal(r.store.Rows())
	if err != nil {
		return nil, errors.NewInternalError("failed to encode staging rows", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []mcp.ResourceContent{
			{
				URI:      r.GetURI(),
				MimeType: r.GetMimeType(),
				Text:     string(data),
			},
		},
	}, nil
}
