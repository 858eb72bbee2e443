package staging

import (
	"context"
	stderrors "errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

// ErrConfirmationRequired is returned when a destructive operation was not confirmed
var ErrConfirmationRequired = errors.NewValidationError("destructive operation requires confirmation")

// ErrStoreClosed is returned for edits made after Close
var ErrStoreClosed = errors.NewConflictError("staging store is closed")

// Store keeps the operator-visible mirror of the staging rows and
// persists edits to the Repository in the background.
//
// The mirror is the source of truth for display until the next reload:
// failed writes are logged and never roll it back.
type Store struct {
	repo   Repository
	logger *zap.Logger

	mu     sync.RWMutex
	rows   []Row
	closed bool

	saver *debouncer
}

// NewStore creates a store with an empty mirror. Call Load to fill it.
func NewStore(repo Repository, logger *zap.Logger, saveWindow time.Duration) *Store {
	s := &Store{
		repo:   repo,
		logger: logger,
	}
	s.saver = newDebouncer(saveWindow, s.persist)
	return s
}

// Load replaces the mirror with the rows held by the repository
func (s *Store) Load(ctx context.Context) error {
	rows, err := s.repo.ListRows(ctx)
	if err != nil {
		return errors.NewPersistenceError("list", err)
	}
	sortRows(rows)

	s.mu.Lock()
	s.rows = rows
	s.mu.Unlock()

	s.logger.Debug("staging rows loaded", zap.Int("count", len(rows)))
	return nil
}

// Rows returns a copy of the mirror in display order
func (s *Store) Rows() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]Row, len(s.rows))
	copy(rows, s.rows)
	return rows
}

// Get returns the mirrored row with id
func (s *Store) Get(id string) (Row, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.rows[i], true
	}
	return Row{}, false
}

// Create adds an empty row. The row only becomes addressable once the
// repository has assigned its ID.
func (s *Store) Create(ctx context.Context) (Row, error) {
	s.mu.RLock()
	next := 1
	for _, row := range s.rows {
		if row.RowIndex >= next {
			next = row.RowIndex + 1
		}
	}
	s.mu.RUnlock()

	created, err := s.repo.CreateRow(ctx, Row{RowIndex: next, Status: StatusPending})
	if err != nil {
		return Row{}, errors.NewPersistenceError("create", err)
	}

	s.mu.Lock()
	s.rows = append(s.rows, created)
	s.mu.Unlock()

	return created, nil
}

// Update applies an operator edit to the mirror immediately and schedules
// a debounced write of the row.
func (s *Store) Update(id string, field Field, raw string) (Row, error) {
	value, err := ParseFieldValue(field, raw)
	if err != nil {
		return Row{}, err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Row{}, ErrStoreClosed
	}
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Row{}, errors.NewNotFoundError("staged row not found").WithDetail("id", id)
	}
	s.rows[i].apply(field, value)
	updated := s.rows[i]
	s.mu.Unlock()

	s.saver.schedule(id, field, value)
	return updated, nil
}

// Edit is Update for callers sharing the session with other processes.
// An unknown id triggers one Refresh so rows created elsewhere can be edited.
func (s *Store) Edit(ctx context.Context, id string, field Field, raw string) (Row, error) {
	row, err := s.Update(id, field, raw)
	if !stderrors.Is(err, errors.NewNotFoundError("")) {
		return row, err
	}
	if _, rerr := s.Refresh(ctx); rerr != nil {
		return Row{}, rerr
	}
	return s.Update(id, field, raw)
}

// Delete removes a row from the repository and then from the mirror
func (s *Store) Delete(ctx context.Context, id string) error {
	s.saver.cancel(id)

	if err := s.repo.DeleteRow(ctx, id); err != nil {
		return errors.NewPersistenceError("delete", err)
	}

	s.mu.Lock()
	if i := s.indexOf(id); i >= 0 {
		s.rows = append(s.rows[:i], s.rows[i+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// Clear deletes every row. confirmed must carry the operator's consent.
func (s *Store) Clear(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	s.saver.cancelAll()

	if err := s.repo.DeleteAllRows(ctx); err != nil {
		return errors.NewPersistenceError("clear", err)
	}
	return s.Load(ctx)
}

// Reset restores the sample data set. confirmed must carry the operator's consent.
func (s *Store) Reset(ctx context.Context, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	s.saver.cancelAll()

	if err := s.repo.ResetSampleRows(ctx); err != nil {
		return errors.NewPersistenceError("reset", err)
	}
	return s.Load(ctx)
}

// MarkRows records a posting outcome on every row in ids, synchronously.
// The mirror is updated even when the write fails.
func (s *Store) MarkRows(ctx context.Context, ids []string, outcome Outcome) error {
	fields := outcome.Fields()

	s.mu.Lock()
	for _, id := range ids {
		if i := s.indexOf(id); i >= 0 {
			for field, value := range fields {
				s.rows[i].apply(field, value)
			}
		}
	}
	s.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := s.repo.UpdateRowFields(ctx, id, fields); err != nil {
			s.logger.Error("failed to write row status",
				zap.String("rowId", id),
				zap.String("status", string(outcome.Status)),
				zap.Error(err))
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.NewPersistenceError("status write", stderrors.Join(errs...))
	}
	return nil
}

// Flush writes all pending edits now
func (s *Store) Flush(ctx context.Context) {
	s.saver.flush(ctx)
}

// Refresh writes pending edits and reloads the mirror, returning the
// rows as the repository now holds them.
func (s *Store) Refresh(ctx context.Context) ([]Row, error) {
	s.saver.flush(ctx)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s.Rows(), nil
}

// Close flushes pending edits and rejects further ones
func (s *Store) Close(ctx context.Context) {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.saver.flush(ctx)
}

// Pending returns the number of rows with unsaved edits
func (s *Store) Pending() int {
	return s.saver.size()
}

// persist is the debounced write. Errors are logged, the mirror stays as is.
func (s *Store) persist(ctx context.Context, id string, fields map[Field]any) {
	if err := s.repo.UpdateRowFields(ctx, id, fields); err != nil {
		s.logger.Error("failed to save staged row",
			zap.String("rowId", id),
			zap.Int("fields", len(fields)),
			zap.Error(errors.NewPersistenceError("update", err)))
		return
	}
	s.logger.Debug("staged row saved", zap.String("rowId", id), zap.Int("fields", len(fields)))
}

func (s *Store) indexOf(id string) int {
	for i := range s.rows {
		if s.rows[i].ID == id {
			return i
		}
	}
	return -1
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RowIndex != rows[j].RowIndex {
			return rows[i].RowIndex < rows[j].RowIndex
		}
		return rows[i].ID < rows[j].ID
	})
}
