package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{
			name:       "app error keeps its status",
			err:        errors.NewConflictError("posting already in progress"),
			wantStatus: http.StatusConflict,
			wantCode:   errors.CodeConflict,
			wantMsg:    "posting already in progress",
		},
		{
			name:       "wrapped app error is unwrapped",
			err:        fmt.Errorf("dispatch: %w", errors.NewNotFoundError("row not found")),
			wantStatus: http.StatusNotFound,
			wantCode:   errors.CodeNotFound,
			wantMsg:    "row not found",
		},
		{
			name:       "plain error is hidden",
			err:        fmt.Errorf("dial tcp: connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   errors.CodeInternal,
			wantMsg:    "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := FromError(tt.err, "req-1")
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
			assert.False(t, body.Success)
			assert.Equal(t, tt.wantCode, body.Error)
			assert.Equal(t, tt.wantMsg, body.ErrorDescription.Message)
			assert.Equal(t, "req-1", body.Metadata.RequestID)
		})
	}
}

func TestOK(t *testing.T) {
	resp := OK(map[string]int{"posted": 3}, "req-2")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])

	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 3, body.Data["posted"])
}

func TestRaw(t *testing.T) {
	resp := Raw(map[string]string{"jsonrpc": "2.0"}, http.StatusOK, "")
	assert.JSONEq(t, `{"jsonrpc":"2.0"}`, resp.Body)
}
