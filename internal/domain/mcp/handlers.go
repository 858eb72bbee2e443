package mcp

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

// ToolHandler is a callable tool. GetName must be unique within a registry.
type ToolHandler interface {
	GetName() string
	GetDescription() string
	GetInputSchema() JSONSchema
	Execute(ctx context.Context, arguments json.RawMessage) (*CallToolResult, error)
}

// ResourceHandler is a readable resource keyed by its URI
type ResourceHandler interface {
	GetURI() string
	GetName() string
	GetDescription() string
	GetMimeType() string
	Read(ctx context.Context) (*ReadResourceResult, error)
}

// HandlerRegistry holds the tools and resources a Service exposes.
// It is safe for concurrent use.
type HandlerRegistry struct {
	mu        sync.RWMutex
	tools     map[string]ToolHandler
	resources map[string]ResourceHandler
}

func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		tools:     make(map[string]ToolHandler),
		resources: make(map[string]ResourceHandler),
	}
}

// RegisterTool adds handler. A second tool with the same name is a conflict.
func (r *HandlerRegistry) RegisterTool(handler ToolHandler) error {
	name := handler.GetName()
	if name == "" {
		return errors.NewValidationError("tool name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.tools[name]; dup {
		return errors.NewConflictError("tool already registered").WithDetail("name", name)
	}
	r.tools[name] = handler
	return nil
}

// RegisterResource adds handler. A second resource with the same URI is a conflict.
func (r *HandlerRegistry) RegisterResource(handler ResourceHandler) error {
	uri := handler.GetURI()
	if uri == "" {
		return errors.NewValidationError("resource URI is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.resources[uri]; dup {
		return errors.NewConflictError("resource already registered").WithDetail("uri", uri)
	}
	r.resources[uri] = handler
	return nil
}

// Tool looks up a tool by name, returning a NOT_FOUND AppError when absent
func (r *HandlerRegistry) Tool(name string) (ToolHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if handler, ok := r.tools[name]; ok {
		return handler, nil
	}
	return nil, errors.NewNotFoundError("Tool not found: " + name)
}

// Resource looks up a resource by URI, returning a NOT_FOUND AppError when absent
func (r *HandlerRegistry) Resource(uri string) (ResourceHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if handler, ok := r.resources[uri]; ok {
		return handler, nil
	}
	return nil, errors.NewNotFoundError("Resource not found: " + uri)
}

// ListTools describes every tool, ordered by name
func (r *HandlerRegistry) ListTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for name, h := range r.tools {
		out = append(out, Tool{Name: name, Description: h.GetDescription(), InputSchema: h.GetInputSchema()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListResources describes every resource, ordered by URI
func (r *HandlerRegistry) ListResources() []Resource {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Resource, 0, len(r.resources))
	for uri, h := range r.resources {
		out = append(out, Resource{URI: uri, Name: h.GetName(), Description: h.GetDescription(), MimeType: h.GetMimeType()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}
