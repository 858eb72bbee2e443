// Package session binds one operator's staging area to the command bus.
package session

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/balance"
	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/posting"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

// PostResult is returned for command.Post
type PostResult struct {
	Summary posting.Summary `json:"summary"`
	Message string          `json:"message"`
}

// BalanceReport is returned for command.CheckBalance
type BalanceReport struct {
	Result  balance.Result `json:"result"`
	Message string         `json:"message"`
}

// Session handles staging commands for a single operator
type Session struct {
	store    *staging.Store
	pipeline *posting.Pipeline
	logger   *zap.Logger
}

// New creates a session over an already loaded store
func New(store *staging.Store, pipeline *posting.Pipeline, logger *zap.Logger) *Session {
	return &Session{
		store:    store,
		pipeline: pipeline,
		logger:   logger,
	}
}

// Store returns the staging store behind the session
func (s *Session) Store() *staging.Store {
	return s.store
}

// Attach registers the session on bus and returns a function that detaches it
func (s *Session) Attach(bus *command.Bus) func() {
	bus.Register(s)
	return func() {
		bus.Unregister(s)
	}
}

// Handle implements command.Handler
func (s *Session) Handle(ctx context.Context, cmd command.Command) (any, error) {
	switch c := cmd.(type) {
	case command.Post:
		return s.post(ctx)
	case command.CheckBalance:
		return s.checkBalance(ctx)
	case command.AddRow:
		return s.store.Create(ctx)
	case command.ClearAll:
		if err := s.store.Clear(ctx, c.Confirmed); err != nil {
			return nil, err
		}
		return s.store.Rows(), nil
	case command.ResetSample:
		if err := s.store.Reset(ctx, c.Confirmed); err != nil {
			return nil, err
		}
		return s.store.Rows(), nil
	case command.Reload:
		if err := s.store.Load(ctx); err != nil {
			return nil, err
		}
		return s.store.Rows(), nil
	default:
		return nil, errors.NewValidationError(fmt.Sprintf("unsupported command %q", cmd.CommandName()))
	}
}

func (s *Session) post(ctx context.Context) (PostResult, error) {
	summary, err := s.pipeline.PostLatest(ctx, s.store)
	if err != nil {
		return PostResult{}, err
	}
	return PostResult{Summary: summary, Message: summary.Message()}, nil
}

// checkBalance reloads the rows and checks every one not posted yet
func (s *Session) checkBalance(ctx context.Context) (BalanceReport, error) {
	current, err := s.store.Refresh(ctx)
	if err != nil {
		return BalanceReport{}, err
	}
	var rows []staging.Row
	for _, row := range current {
		if !row.IsPosted() {
			rows = append(rows, row)
		}
	}
	result := staging.CheckBalance(rows)
	return BalanceReport{Result: result, Message: DescribeBalance(result)}, nil
}

// DescribeBalance renders a balance result for the operator
func DescribeBalance(r balance.Result) string {
	var msg string
	switch r.Status {
	case balance.StatusEmpty:
		return "No lines to check."
	case balance.StatusBalanced:
		msg = fmt.Sprintf("Balanced: debit %d, credit %d.", r.TotalDebit, r.TotalCredit)
	case balance.StatusUnbalanced:
		msg = fmt.Sprintf("Not balanced: debit %d, credit %d, difference %d.", r.TotalDebit, r.TotalCredit, r.Difference)
	case balance.StatusIncomplete:
		lines := make([]string, 0, len(r.IncompleteLines))
		for _, n := range r.DisplayIncompleteLines() {
			lines = append(lines, fmt.Sprint(n))
		}
		msg = fmt.Sprintf("Incomplete: line(s) %s have no account.", strings.Join(lines, ", "))
	}
	if r.OffBalanceSheetLines > 0 {
		msg += fmt.Sprintf(" %d off-balance-sheet line(s) excluded.", r.OffBalanceSheetLines)
	}
	return msg
}
