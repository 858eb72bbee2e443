package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

// HTTPResponse encapsulates both JSON-RPC response and HTTP status code
type HTTPResponse struct {
	JSONRPCResponse JSONRPCResponse
	StatusCode      int
}

// NewSuccessHTTPResponse creates a successful HTTP response with JSON-RPC result
func NewSuccessHTTPResponse(id json.RawMessage, result any, statusCode int) HTTPResponse {
	return HTTPResponse{
		JSONRPCResponse: JSONRPCResponse{
			JSONRPC: jsonRPCVersion,
			ID:      id,
			Result:  result,
		},
		StatusCode: statusCode,
	}
}

// NewErrorHTTPResponse creates an error HTTP response with JSON-RPC error
func NewErrorHTTPResponse(id json.RawMessage, code int, message string, data any, statusCode int) HTTPResponse {
	return HTTPResponse{
		JSONRPCResponse: JSONRPCResponse{
			JSONRPC: jsonRPCVersion,
			ID:      id,
			Error: &JSONRPCError{
				Code:    code,
				Message: message,
				Data:    data,
			},
		},
		StatusCode: statusCode,
	}
}

// Service handles MCP protocol operations
type Service struct {
	logger     *zap.Logger
	serverInfo ServerInfo
	registry   *HandlerRegistry
}

// NewService creates a new MCP service
func NewService(logger *zap.Logger, registry *HandlerRegistry) *Service {
	return &Service{
		logger: logger,
		serverInfo: ServerInfo{
			Name:    "staging-ledger-mcp",
			Title:   "Staging area and voucher posting for double-entry ledgers.",
			Version: "1.0.0",
		},
		registry: registry,
	}
}

// HandleRequest processes a JSON-RPC request
func (s *Service) HandleRequest(ctx context.Context, request JSONRPCRequest) HTTPResponse {
	s.logger.Info("MCP request received", zap.String("method", request.Method))

	switch request.Method {
	case "initialize":
		return s.handleInitialize(request)
	case "initialized", "ping":
		return NewSuccessHTTPResponse(request.ID, map[string]any{}, http.StatusOK)
	case "notifications/initialized":
		return NewSuccessHTTPResponse(request.ID, map[string]any{}, http.StatusAccepted)
	case "resources/list":
		return NewSuccessHTTPResponse(request.ID, ListResourcesResult{Resources: s.registry.ListResources()}, http.StatusOK)
	case "resources/read":
		return s.handleReadResource(ctx, request)
	case "tools/list":
		return NewSuccessHTTPResponse(request.ID, ListToolsResult{Tools: s.registry.ListTools()}, http.StatusOK)
	case "tools/call":
		return s.handleCallTool(ctx, request)
	default:
		return NewErrorHTTPResponse(request.ID, MethodNotFound, fmt.Sprintf("Method not found: %s", request.Method), nil, http.StatusOK)
	}
}

func (s *Service) handleInitialize(request JSONRPCRequest) HTTPResponse {
	var params InitializeParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, "Invalid initialize params", err.Error(), http.StatusOK)
	}
	s.logger.Debug("client initialized", zap.String("client", params.ClientInfo.Name), zap.String("clientVersion", params.ClientInfo.Version))

	result := InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: ServerCapability{
			Resources: ListChangedCapability{ListChanged: true},
			Tools:     ListChangedCapability{ListChanged: true},
		},
		Instructions: "Use this MCP server to edit staged transaction rows, check their debit/credit balance " +
			"and post them to the ledger as vouchers grouped by document number.",
		ServerInfo: s.serverInfo,
	}

	return NewSuccessHTTPResponse(request.ID, result, http.StatusOK)
}

func (s *Service) handleReadResource(ctx context.Context, request JSONRPCRequest) HTTPResponse {
	var params ReadResourceParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, "Invalid read resource params", err.Error(), http.StatusOK)
	}

	handler, err := s.registry.Resource(params.URI)
	if err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, errors.Reason(err), nil, http.StatusOK)
	}

	result, err := handler.Read(ctx)
	if err != nil {
		s.logger.Error("Failed to read resource", zap.String("uri", params.URI), zap.Error(err))
		return NewErrorHTTPResponse(request.ID, InternalError, "Failed to read resource", errors.Reason(err), http.StatusOK)
	}

	return NewSuccessHTTPResponse(request.ID, result, http.StatusOK)
}

func (s *Service) handleCallTool(ctx context.Context, request JSONRPCRequest) HTTPResponse {
	var params CallToolParams
	if err := json.Unmarshal(request.Params, &params); err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, "Invalid call tool params", err.Error(), http.StatusOK)
	}

	handler, err := s.registry.Tool(params.Name)
	if err != nil {
		return NewErrorHTTPResponse(request.ID, InvalidParams, errors.Reason(err), nil, http.StatusOK)
	}

	result, err := handler.Execute(ctx, params.Arguments)
	if err != nil {
		s.logger.Error("Failed to execute tool", zap.String("tool", params.Name), zap.Error(err))
		// Tool failures are reported in the result so the client can show them
		result = &CallToolResult{
			Content: []ToolResultContent{{Type: "text", Text: errors.Reason(err)}},
			IsError: true,
		}
	}

	return NewSuccessHTTPResponse(request.ID, result, http.StatusOK)
}
