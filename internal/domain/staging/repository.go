package staging

import (
	"context"
)

// Repository is the staging persistence collaborator
type Repository interface {
	// ListRows returns every staged row of the session
	ListRows(ctx context.Context) ([]Row, error)

	// CreateRow stores a new row and returns it with its canonical ID
	CreateRow(ctx context.Context, row Row) (Row, error)

	// UpdateRowFields writes the named fields of one row
	UpdateRowFields(ctx context.Context, id string, fields map[Field]any) error

	// DeleteRow removes one row
	DeleteRow(ctx context.Context, id string) error

	// DeleteAllRows removes every row of the session
	DeleteAllRows(ctx context.Context) error

	// ResetSampleRows replaces the session rows with the sample data set
	ResetSampleRows(ctx context.Context) error
}
