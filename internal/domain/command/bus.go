// Package command routes operator commands to the staging session that is
// currently active.
//
// At most one handler is registered at a time. Dispatching with no handler
// registered does nothing and reports Handled=false.
package command

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Handler executes commands
type Handler interface {
	Handle(ctx context.Context, cmd Command) (any, error)
}

// Outcome is the result of a dispatch
type Outcome struct {
	Handled bool
	Result  any
}

// Bus delivers commands to the active handler
type Bus struct {
	mu     sync.RWMutex
	active Handler
	logger *zap.Logger
}

// NewBus creates a bus with no active handler
func NewBus(logger *zap.Logger) *Bus {
	return &Bus{logger: logger}
}

// Register makes h the active handler, replacing any previous one
func (b *Bus) Register(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.active = h
}

// Unregister clears the active handler if it is h
func (b *Bus) Unregister(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.active == h {
		b.active = nil
	}
}

// Active reports whether a handler is registered
func (b *Bus) Active() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.active != nil
}

// Dispatch sends cmd to the active handler
func (b *Bus) Dispatch(ctx context.Context, cmd Command) (Outcome, error) {
	b.mu.RLock()
	h := b.active
	b.mu.RUnlock()

	if h == nil {
		b.logger.Debug("command ignored, no active handler", zap.String("command", string(cmd.CommandName())))
		return Outcome{}, nil
	}

	result, err := h.Handle(ctx, cmd)
	if err != nil {
		b.logger.Warn("command failed", zap.String("command", string(cmd.CommandName())), zap.Error(err))
		return Outcome{Handled: true}, err
	}
	return Outcome{Handled: true, Result: result}, nil
}
