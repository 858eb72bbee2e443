package main

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/api/response"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
)

// flusher persists edits that are still waiting for their save window
type flusher interface {
	Flush(ctx context.Context)
}

// MCPRequestHandler serves JSON-RPC requests from API Gateway
type MCPRequestHandler struct {
	mcpService *mcp.Service
	store      flusher
	devMode    bool
}

// NewMCPRequestHandler creates a new MCP request handler
func NewMCPRequestHandler(mcpService *mcp.Service, store flusher, devMode bool) *MCPRequestHandler {
	return &MCPRequestHandler{
		mcpService: mcpService,
		store:      store,
		devMode:    devMode,
	}
}

// HandleRequest handles one API Gateway event. Pending staging edits are
// flushed before returning because the runtime may freeze the process
// between invocations.
func (h *MCPRequestHandler) HandleRequest(ctx context.Context, logger *zap.Logger, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if request.HTTPMethod == http.MethodOptions {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    response.DefaultHeaders(),
		}, nil
	}

	if h.devMode {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		logger.Debug("memory status", zap.Uint64("allocMB", m.Alloc/1024/1024))
	}

	if request.Path == "/" && request.HTTPMethod != http.MethodPost {
		return methodNotAllowed(), nil
	}

	// MCP servers handle JSON-RPC requests on the root path
	if request.Path != "/" {
		return response.NotFound("Endpoint not found"), nil
	}

	defer h.store.Flush(ctx)

	var rpcRequest mcp.JSONRPCRequest
	if err := json.Unmarshal([]byte(request.Body), &rpcRequest); err != nil {
		logger.Warn("failed to parse JSON-RPC request", zap.Error(err))
		return jsonRPCError(mcp.ParseError, "Parse error", err.Error(), http.StatusOK), nil
	}

	httpResponse := h.mcpService.HandleRequest(ctx, rpcRequest)
	return response.Raw(httpResponse.JSONRPCResponse, httpResponse.StatusCode, request.RequestContext.RequestID), nil
}

func jsonRPCError(code int, message string, data any, status int) events.APIGatewayProxyResponse {
	return response.Raw(mcp.JSONRPCResponse{
		JSONRPC: "2.0",
		Error: &mcp.JSONRPCError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}, status, "")
}

func methodNotAllowed() events.APIGatewayProxyResponse {
	resp := jsonRPCError(mcp.InvalidRequest, "Method Not Allowed", nil, http.StatusMethodNotAllowed)
	resp.Headers["Allow"] = http.MethodPost
	return resp
}
