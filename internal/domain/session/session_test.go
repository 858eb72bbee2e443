package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/balance"
	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/posting"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

type memRepository struct {
	mu     sync.Mutex
	rows   map[string]staging.Row
	nextID int
}

func newMemRepository(rows ...staging.Row) *memRepository {
	r := &memRepository{rows: make(map[string]staging.Row)}
	for _, row := range rows {
		r.rows[row.ID] = row
	}
	return r
}

func (r *memRepository) ListRows(ctx context.Context) ([]staging.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rows := make([]staging.Row, 0, len(r.rows))
	for _, row := range r.rows {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows, nil
}

func (r *memRepository) CreateRow(ctx context.Context, row staging.Row) (staging.Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	row.ID = fmt.Sprintf("new-%d", r.nextID)
	r.rows[row.ID] = row
	return row, nil
}

func (r *memRepository) UpdateRowFields(ctx context.Context, id string, fields map[staging.Field]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return fmt.Errorf("row %s not found", id)
	}
	for field, value := range fields {
		switch field {
		case staging.FieldStatus:
			row.Status = value.(staging.Status)
		case staging.FieldStatusNote:
			row.StatusNote = value.(string)
		case staging.FieldValidityFlag:
			row.ValidityFlag = value.(bool)
		case staging.FieldDocNo:
			row.DocNo = value.(string)
		case staging.FieldAmount:
			row.Amount = value.(int64)
		}
	}
	r.rows[id] = row
	return nil
}

func (r *memRepository) DeleteRow(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memRepository) DeleteAllRows(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]staging.Row)
	return nil
}

func (r *memRepository) ResetSampleRows(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = make(map[string]staging.Row)
	for i, row := range staging.SampleRows() {
		row.ID = fmt.Sprintf("sample-%d", i+1)
		row.Status = staging.StatusPending
		r.rows[row.ID] = row
	}
	return nil
}

type stubLedger struct {
	docNos []string
}

func (l *stubLedger) CreateVoucher(ctx context.Context, req *ledger.CreateVoucherRequest) (*ledger.Voucher, error) {
	l.docNos = append(l.docNos, req.DocNo)
	return &ledger.Voucher{VoucherID: "V-" + req.DocNo, DocNo: req.DocNo}, nil
}

func newTestSession(t *testing.T, repo *memRepository) (*Session, *stubLedger) {
	t.Helper()
	store := staging.NewStore(repo, zap.NewNop(), staging.DefaultSaveWindow)
	require.NoError(t, store.Load(context.Background()))
	t.Cleanup(func() { store.Close(context.Background()) })

	l := &stubLedger{}
	pipeline := posting.NewPipeline(l, store, zap.NewNop())
	return New(store, pipeline, zap.NewNop()), l
}

func TestSession_Post(t *testing.T) {
	repo := newMemRepository()
	require.NoError(t, repo.ResetSampleRows(context.Background()))
	s, l := newTestSession(t, repo)
	bus := command.NewBus(zap.NewNop())
	detach := s.Attach(bus)
	defer detach()

	outcome, err := bus.Dispatch(context.Background(), command.Post{})

	require.NoError(t, err)
	require.True(t, outcome.Handled)
	result := outcome.Result.(PostResult)
	assert.Equal(t, 3, result.Summary.PostedDocCount)
	assert.Equal(t, 1, result.Summary.InvalidRowCount)
	assert.Equal(t, []string{"PT001", "PC001", "NB001"}, l.docNos)
	assert.Equal(t, result.Summary.Message(), result.Message)

	row, ok := s.Store().Get("sample-1")
	require.True(t, ok)
	assert.Equal(t, "POSTED V-PT001", row.StatusNote)

	row, ok = s.Store().Get("sample-5")
	require.True(t, ok)
	assert.Equal(t, staging.StatusInvalid, row.Status)
	assert.Equal(t, "Missing: document number", row.StatusNote)

	outcome, err = bus.Dispatch(context.Background(), command.Post{})
	require.NoError(t, err)
	assert.Zero(t, outcome.Result.(PostResult).Summary.PostedDocCount)
	assert.Len(t, l.docNos, 3)
}

func TestSession_CheckBalance(t *testing.T) {
	posted := staging.Row{ID: "a", RowIndex: 1, DocNo: "X", DebitAccount: "111", Amount: 900, Status: staging.StatusPosted}
	debitOnly := staging.Row{ID: "b", RowIndex: 2, DocNo: "Y", DebitAccount: "111", CreditAccount: "003", Amount: 500}
	s, _ := newTestSession(t, newMemRepository(posted, debitOnly))

	result, err := s.Handle(context.Background(), command.CheckBalance{})

	require.NoError(t, err)
	report := result.(BalanceReport)
	assert.Equal(t, balance.StatusUnbalanced, report.Result.Status)
	assert.Equal(t, int64(500), report.Result.Difference)
	assert.Equal(t, 1, report.Result.OffBalanceSheetLines)
	assert.Equal(t, "Not balanced: debit 500, credit 0, difference 500. 1 off-balance-sheet line(s) excluded.", report.Message)
}

func TestSession_Rows(t *testing.T) {
	ctx := context.Background()

	t.Run("add row", func(t *testing.T) {
		s, _ := newTestSession(t, newMemRepository())

		result, err := s.Handle(ctx, command.AddRow{})

		require.NoError(t, err)
		row := result.(staging.Row)
		assert.Equal(t, "new-1", row.ID)
		assert.Len(t, s.Store().Rows(), 1)
	})

	t.Run("clear requires confirmation", func(t *testing.T) {
		repo := newMemRepository()
		require.NoError(t, repo.ResetSampleRows(ctx))
		s, _ := newTestSession(t, repo)

		_, err := s.Handle(ctx, command.ClearAll{})
		assert.ErrorIs(t, err, staging.ErrConfirmationRequired)
		assert.Len(t, s.Store().Rows(), 5)

		_, err = s.Handle(ctx, command.ClearAll{Confirmed: true})
		require.NoError(t, err)
		assert.Empty(t, s.Store().Rows())
	})

	t.Run("reset restores the sample rows", func(t *testing.T) {
		s, _ := newTestSession(t, newMemRepository())

		_, err := s.Handle(ctx, command.ResetSample{})
		assert.ErrorIs(t, err, staging.ErrConfirmationRequired)

		result, err := s.Handle(ctx, command.ResetSample{Confirmed: true})
		require.NoError(t, err)
		assert.Len(t, result.([]staging.Row), 5)
	})

	t.Run("reload picks up repository changes", func(t *testing.T) {
		repo := newMemRepository()
		s, _ := newTestSession(t, repo)
		_, err := repo.CreateRow(ctx, staging.Row{RowIndex: 1})
		require.NoError(t, err)

		result, err := s.Handle(ctx, command.Reload{})

		require.NoError(t, err)
		assert.Len(t, result.([]staging.Row), 1)
	})
}

func TestDescribeBalance(t *testing.T) {
	tests := []struct {
		name   string
		result balance.Result
		want   string
	}{
		{name: "empty", result: balance.Check(nil), want: "No lines to check."},
		{
			name:   "balanced",
			result: balance.Check([]balance.Line{{Account: "111", Debit: 10}, {Account: "511", Credit: 10}}),
			want:   "Balanced: debit 10, credit 10.",
		},
		{
			name:   "incomplete uses line numbers from one",
			result: balance.Check([]balance.Line{{Account: "111", Debit: 10}, {Account: "", Credit: 10}}),
			want:   "Incomplete: line(s) 2 have no account.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DescribeBalance(tt.result))
		})
	}
}

func TestSession_Post_SharedRepository(t *testing.T) {
	repo := newMemRepository()
	require.NoError(t, repo.ResetSampleRows(context.Background()))
	first, firstLedger := newTestSession(t, repo)
	second, secondLedger := newTestSession(t, repo)

	result, err := first.Handle(context.Background(), command.Post{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.(PostResult).Summary.PostedDocCount)

	result, err = second.Handle(context.Background(), command.Post{})

	require.NoError(t, err)
	assert.Zero(t, result.(PostResult).Summary.PostedDocCount)
	assert.Len(t, firstLedger.docNos, 3)
	assert.Empty(t, secondLedger.docNos)

	row, ok := second.Store().Get("sample-1")
	require.True(t, ok)
	assert.True(t, row.IsPosted())
}
