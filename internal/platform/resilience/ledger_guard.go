// Package resilience protects calls to the ledger with a per-call timeout
// and a circuit breaker.
package resilience

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/posting"
)

// Config tunes the guard
type Config struct {
	Timeout             time.Duration
	ConsecutiveFailures uint32
	Cooldown            time.Duration
}

// DefaultConfig returns the guard settings used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Timeout:             10 * time.Second,
		ConsecutiveFailures: 5,
		Cooldown:            30 * time.Second,
	}
}

// LedgerGuard decorates a posting.Ledger
type LedgerGuard struct {
	next    posting.Ledger
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ posting.Ledger = (*LedgerGuard)(nil)

// NewLedgerGuard wraps next
func NewLedgerGuard(next posting.Ledger, cfg Config, logger *zap.Logger) *LedgerGuard {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.ConsecutiveFailures == 0 {
		cfg.ConsecutiveFailures = defaults.ConsecutiveFailures
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = defaults.Cooldown
	}

	settings := gobreaker.Settings{
		Name:        "ledger",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		// a rejected voucher says nothing about ledger availability
		IsSuccessful: func(err error) bool {
			return err == nil || isRejection(err)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("ledger circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &LedgerGuard{
		next:    next,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// CreateVoucher forwards to the wrapped ledger unless the breaker is open
func (g *LedgerGuard) CreateVoucher(ctx context.Context, req *ledger.CreateVoucherRequest) (*ledger.Voucher, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		voucher, err := g.next.CreateVoucher(callCtx, req)
		if err != nil && stderrors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("ledger did not answer within %s: %w", g.timeout, err)
		}
		return voucher, err
	})
	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			g.logger.Warn("ledger call rejected by circuit breaker", zap.String("docNo", req.DocNo))
			return nil, errors.NewInternalError("ledger is unavailable", err)
		}
		return nil, err
	}
	return result.(*ledger.Voucher), nil
}

// State reports the breaker state
func (g *LedgerGuard) State() string {
	return g.breaker.State().String()
}

func isRejection(err error) bool {
	var appErr errors.AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	switch appErr.Code {
	case errors.CodeValidation, errors.CodeConflict:
		return true
	}
	return false
}
