package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

func TestHandlerRegistry_Register(t *testing.T) {
	tests := []struct {
		name     string
		register func(t *testing.T, r *HandlerRegistry) error
		wantErr  error
	}{
		{
			name:     "tool",
			register: func(t *testing.T, r *HandlerRegistry) error { return r.RegisterTool(&mockTool{name: "check-balance"}) },
		},
		{
			name: "duplicate tool",
			register: func(t *testing.T, r *HandlerRegistry) error {
				require.NoError(t, r.RegisterTool(&mockTool{name: "check-balance"}))
				return r.RegisterTool(&mockTool{name: "check-balance"})
			},
			wantErr: errors.NewConflictError(""),
		},
		{
			name:     "unnamed tool",
			register: func(t *testing.T, r *HandlerRegistry) error { return r.RegisterTool(&mockTool{}) },
			wantErr:  errors.NewValidationError(""),
		},
		{
			name: "duplicate resource",
			register: func(t *testing.T, r *HandlerRegistry) error {
				require.NoError(t, r.RegisterResource(&mockResource{uri: "myapp://staging-rows"}))
				return r.RegisterResource(&mockResource{uri: "myapp://staging-rows"})
			},
			wantErr: errors.NewConflictError(""),
		},
		{
			name:     "resource without URI",
			register: func(t *testing.T, r *HandlerRegistry) error { return r.RegisterResource(&mockResource{}) },
			wantErr:  errors.NewValidationError(""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.register(t, NewHandlerRegistry())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandlerRegistry_Lookup(t *testing.T) {
	r := NewHandlerRegistry()
	require.NoError(t, r.RegisterTool(&mockTool{name: "post-staging-rows"}))
	require.NoError(t, r.RegisterResource(&mockResource{uri: "myapp://staging-rows"}))

	tool, err := r.Tool("post-staging-rows")
	require.NoError(t, err)
	assert.Equal(t, "post-staging-rows", tool.GetName())

	_, err = r.Tool("echo")
	assert.ErrorIs(t, err, errors.NewNotFoundError(""))
	assert.Equal(t, "Tool not found: echo", errors.Reason(err))

	_, err = r.Resource("myapp://hello")
	assert.ErrorIs(t, err, errors.NewNotFoundError(""))
}
