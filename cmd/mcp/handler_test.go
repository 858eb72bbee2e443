package main

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/mcp"
)

type countingFlusher struct {
	calls int
}

func (f *countingFlusher) Flush(ctx context.Context) {
	f.calls++
}

func newTestHandler() (*MCPRequestHandler, *countingFlusher) {
	store := &countingFlusher{}
	service := mcp.NewService(zap.NewNop(), mcp.NewHandlerRegistry())
	return NewMCPRequestHandler(service, store, false), store
}

func TestHandleRequest(t *testing.T) {
	tests := []struct {
		name        string
		request     events.APIGatewayProxyRequest
		wantStatus  int
		wantRPCCode int
		wantFlushes int
	}{
		{
			name:       "preflight",
			request:    events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions, Path: "/"},
			wantStatus: http.StatusOK,
		},
		{
			name:        "get on root",
			request:     events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/"},
			wantStatus:  http.StatusMethodNotAllowed,
			wantRPCCode: mcp.InvalidRequest,
		},
		{
			name:       "unknown path",
			request:    events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/rows"},
			wantStatus: http.StatusNotFound,
		},
		{
			name:        "malformed body",
			request:     events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/", Body: "{"},
			wantStatus:  http.StatusOK,
			wantRPCCode: mcp.ParseError,
			wantFlushes: 1,
		},
		{
			name: "tools list",
			request: events.APIGatewayProxyRequest{
				HTTPMethod: http.MethodPost,
				Path:       "/",
				Body:       `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`,
			},
			wantStatus:  http.StatusOK,
			wantFlushes: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := newTestHandler()

			resp, err := h.HandleRequest(context.Background(), zap.NewNop(), tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantFlushes, store.calls)

			if tt.wantRPCCode != 0 {
				var body mcp.JSONRPCResponse
				require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
				require.NotNil(t, body.Error)
				assert.Equal(t, tt.wantRPCCode, body.Error.Code)
			}
		})
	}
}

func TestHandleRequest_MethodNotAllowedHeader(t *testing.T) {
	h, _ := newTestHandler()

	resp, err := h.HandleRequest(context.Background(), zap.NewNop(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodDelete, Path: "/"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, resp.Headers["Allow"])
}
