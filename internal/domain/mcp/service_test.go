package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

type mockTool struct {
	name   string
	result *CallToolResult
	err    error
	args   json.RawMessage
}

func (m *mockTool) GetName() string            { return m.name }
func (m *mockTool) GetDescription() string     { return "mock " + m.name }
func (m *mockTool) GetInputSchema() JSONSchema { return JSONSchema{Type: "object"} }
func (m *mockTool) Execute(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error) {
	m.args = arguments
	return m.result, m.err
}

type mockResource struct {
	uri    string
	result *ReadResourceResult
	err    error
}

func (m *mockResource) GetURI() string         { return m.uri }
func (m *mockResource) GetName() string        { return "mock" }
func (m *mockResource) GetDescription() string { return "mock resource" }
func (m *mockResource) GetMimeType() string    { return "application/json" }
func (m *mockResource) Read(ctx context.Context) (*ReadResourceResult, error) {
	return m.result, m.err
}

func call(t *testing.T, service *Service, method string, params any) HTTPResponse {
	t.Helper()
	var raw json.RawMessage
	if params != nil {
		var err error
		raw, err = json.Marshal(params)
		require.NoError(t, err)
	}
	return service.HandleRequest(context.Background(), JSONRPCRequest{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  raw,
	})
}

func decode[T any](t *testing.T, response HTTPResponse) T {
	t.Helper()
	var out T
	data, err := json.Marshal(response.JSONRPCResponse.Result)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestService_HandleInitialize(t *testing.T) {
	service := NewService(zap.NewNop(), NewHandlerRegistry())

	response := call(t, service, "initialize", InitializeParams{
		ProtocolVersion: "2024-11-05",
		ClientInfo:      ClientInfo{Name: "test-client", Version: "1.0.0"},
	})

	assert.Nil(t, response.JSONRPCResponse.Error)
	assert.Equal(t, 200, response.StatusCode)
	result := decode[InitializeResult](t, response)
	assert.Equal(t, "2024-11-05", result.ProtocolVersion)
	assert.Equal(t, "staging-ledger-mcp", result.ServerInfo.Name)
	assert.True(t, result.Capabilities.Tools.ListChanged)
}

func TestService_Lists(t *testing.T) {
	registry := NewHandlerRegistry()
	require.NoError(t, registry.RegisterTool(&mockTool{name: "b-tool"}))
	require.NoError(t, registry.RegisterTool(&mockTool{name: "a-tool"}))
	require.NoError(t, registry.RegisterResource(&mockResource{uri: "myapp://two"}))
	require.NoError(t, registry.RegisterResource(&mockResource{uri: "myapp://one"}))
	service := NewService(zap.NewNop(), registry)

	tools := decode[ListToolsResult](t, call(t, service, "tools/list", nil))
	require.Len(t, tools.Tools, 2)
	assert.Equal(t, "a-tool", tools.Tools[0].Name)

	resources := decode[ListResourcesResult](t, call(t, service, "resources/list", nil))
	require.Len(t, resources.Resources, 2)
	assert.Equal(t, "myapp://one", resources.Resources[0].URI)
}

func TestService_CallTool(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		registry := NewHandlerRegistry()
		tool := &mockTool{name: "post-staging-rows", result: TextResult("done")}
		require.NoError(t, registry.RegisterTool(tool))
		service := NewService(zap.NewNop(), registry)

		response := call(t, service, "tools/call", CallToolParams{
			Name:      "post-staging-rows",
			Arguments: json.RawMessage(`{"confirm":true}`),
		})

		result := decode[CallToolResult](t, response)
		assert.False(t, result.IsError)
		assert.Equal(t, "done", result.Content[0].Text)
		assert.JSONEq(t, `{"confirm":true}`, string(tool.args))
	})

	t.Run("tool error is returned as result", func(t *testing.T) {
		registry := NewHandlerRegistry()
		require.NoError(t, registry.RegisterTool(&mockTool{name: "clear-staging-rows", err: errors.NewValidationError("destructive operation requires confirmation")}))
		service := NewService(zap.NewNop(), registry)

		response := call(t, service, "tools/call", CallToolParams{Name: "clear-staging-rows"})

		assert.Nil(t, response.JSONRPCResponse.Error)
		result := decode[CallToolResult](t, response)
		assert.True(t, result.IsError)
		assert.Equal(t, "destructive operation requires confirmation", result.Content[0].Text)
	})

	t.Run("unknown tool", func(t *testing.T) {
		service := NewService(zap.NewNop(), NewHandlerRegistry())

		response := call(t, service, "tools/call", CallToolParams{Name: "missing"})

		require.NotNil(t, response.JSONRPCResponse.Error)
		assert.Equal(t, InvalidParams, response.JSONRPCResponse.Error.Code)
	})
}

func TestService_ReadResource(t *testing.T) {
	registry := NewHandlerRegistry()
	require.NoError(t, registry.RegisterResource(&mockResource{
		uri:    "myapp://staging-rows",
		result: &ReadResourceResult{Contents: []ResourceContent{{URI: "myapp://staging-rows", Text: "[]"}}},
	}))
	require.NoError(t, registry.RegisterResource(&mockResource{uri: "myapp://broken", err: errors.NewInternalError("failed", nil)}))
	service := NewService(zap.NewNop(), registry)

	result := decode[ReadResourceResult](t, call(t, service, "resources/read", ReadResourceParams{URI: "myapp://staging-rows"}))
	assert.Equal(t, "[]", result.Contents[0].Text)

	response := call(t, service, "resources/read", ReadResourceParams{URI: "myapp://broken"})
	require.NotNil(t, response.JSONRPCResponse.Error)
	assert.Equal(t, InternalError, response.JSONRPCResponse.Error.Code)
}

func TestService_Notifications(t *testing.T) {
	service := NewService(zap.NewNop(), NewHandlerRegistry())

	assert.Equal(t, 202, call(t, service, "notifications/initialized", nil).StatusCode)
	assert.Equal(t, 200, call(t, service, "ping", nil).StatusCode)

	response := call(t, service, "prompts/list", nil)
	require.NotNil(t, response.JSONRPCResponse.Error)
	assert.Equal(t, MethodNotFound, response.JSONRPCResponse.Error.Code)
}
