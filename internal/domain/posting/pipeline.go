// Package posting turns staged rows into ledger vouchers.
//
// A run filters out rows that were already posted, marks structurally
// incomplete rows invalid and holds back the rest of their document, groups
// the remaining rows by document number and submits one voucher per group. Groups are independent: a rejected group is marked
// failed and the run moves on.
package posting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

const (
	DefaultCurrency    = "VND"
	DefaultVoucherType = "GENERAL"
)

// ErrPostingInProgress is returned when a run is requested while another is active
var ErrPostingInProgress = errors.NewConflictError("a posting run is already in progress")

// Ledger accepts vouchers
type Ledger interface {
	CreateVoucher(ctx context.Context, req *ledger.CreateVoucherRequest) (*ledger.Voucher, error)
}

// StatusWriter records the outcome of a run on the staged rows
type StatusWriter interface {
	MarkRows(ctx context.Context, ids []string, outcome staging.Outcome) error
}

// Summary reports what one run did
type Summary struct {
	PostedDocCount   int      `json:"postedDocCount"`
	FailedDocNumbers []string `json:"failedDocNumbers"`
	InvalidRowCount  int      `json:"invalidRowCount"`
	BlockedRowCount  int      `json:"blockedRowCount"`
	SkippedRowCount  int      `json:"skippedRowCount"`
	NoOp             bool     `json:"noOp"`
}

// Message is the run-completion message shown to the operator
func (s Summary) Message() string {
	if s.NoOp {
		return "Nothing to post: there are no unposted rows."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Posting finished: %d voucher(s) posted", s.PostedDocCount)
	if len(s.FailedDocNumbers) > 0 {
		fmt.Fprintf(&b, ", %d failed (%s)", len(s.FailedDocNumbers), strings.Join(s.FailedDocNumbers, ", "))
	}
	if s.InvalidRowCount > 0 {
		fmt.Fprintf(&b, ", %d row(s) invalid", s.InvalidRowCount)
	}
	if s.BlockedRowCount > 0 {
		fmt.Fprintf(&b, ", %d row(s) held back by incomplete vouchers", s.BlockedRowCount)
	}
	b.WriteString(".")
	return b.String()
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithClock sets the source of the current date
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithCurrency sets the voucher currency
func WithCurrency(currency string) Option {
	return func(p *Pipeline) {
		if currency != "" {
			p.currency = currency
		}
	}
}

// WithVoucherType sets the voucher type
func WithVoucherType(voucherType string) Option {
	return func(p *Pipeline) {
		if voucherType != "" {
			p.voucherType = voucherType
		}
	}
}

// Pipeline runs posting. Only one run may be active at a time.
type Pipeline struct {
	ledger Ledger
	writer StatusWriter
	logger *zap.Logger

	now         func() time.Time
	currency    string
	voucherType string

	running sync.Mutex
}

// NewPipeline creates a posting pipeline
func NewPipeline(l Ledger, writer StatusWriter, logger *zap.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		ledger:      l,
		writer:      writer,
		logger:      logger,
		now:         time.Now,
		currency:    DefaultCurrency,
		voucherType: DefaultVoucherType,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RowSource supplies the staged rows as currently persisted
type RowSource interface {
	Refresh(ctx context.Context) ([]staging.Row, error)
}

// Post runs the pipeline over a snapshot of the staged rows.
// The only error it returns is ErrPostingInProgress; per-row and per-group
// problems are written back to the rows and reported in the Summary.
func (p *Pipeline) Post(ctx context.Context, rows []staging.Row) (Summary, error) {
	if !p.running.TryLock() {
		return Summary{}, ErrPostingInProgress
	}
	defer p.running.Unlock()

	return p.run(ctx, rows), nil
}

// PostLatest reads the rows from src once the run holds the lock, so rows
// another process posted since the caller last loaded them are skipped.
func (p *Pipeline) PostLatest(ctx context.Context, src RowSource) (Summary, error) {
	if !p.running.TryLock() {
		return Summary{}, ErrPostingInProgress
	}
	defer p.running.Unlock()

	rows, err := src.Refresh(ctx)
	if err != nil {
		return Summary{}, err
	}
	return p.run(ctx, rows), nil
}

func (p *Pipeline) run(ctx context.Context, rows []staging.Row) Summary {
	logger := p.logger.With(zap.String("runId", uuid.NewString()))
	summary := Summary{FailedDocNumbers: []string{}}

	pending := make([]staging.Row, 0, len(rows))
	for _, row := range rows {
		if row.IsPosted() {
			summary.SkippedRowCount++
			continue
		}
		pending = append(pending, row)
	}
	if len(pending) == 0 {
		summary.NoOp = true
		logger.Info("posting run skipped, no unposted rows", zap.Int("skipped", summary.SkippedRowCount))
		return summary
	}

	valid := make([]staging.Row, 0, len(pending))
	// blockers holds the first incomplete row of each document number
	blockers := make(map[string]staging.Row)
	for _, row := range pending {
		missing := MissingFields(row)
		if len(missing) == 0 {
			valid = append(valid, row)
			continue
		}
		summary.InvalidRowCount++
		verr := errors.NewStructuralValidationError(missing)
		p.mark(ctx, logger, []string{row.ID}, staging.Outcome{
			Status: staging.StatusInvalid,
			Note:   verr.Message,
			Valid:  false,
		})
		if docNo := strings.TrimSpace(row.DocNo); docNo != "" {
			if b, ok := blockers[docNo]; !ok || row.RowIndex < b.RowIndex {
				blockers[docNo] = row
			}
		}
	}

	postable := make([]staging.Row, 0, len(valid))
	held := make(map[string][]string)
	for _, row := range valid {
		docNo := strings.TrimSpace(row.DocNo)
		if _, ok := blockers[docNo]; ok {
			held[docNo] = append(held[docNo], row.ID)
			continue
		}
		postable = append(postable, row)
	}
	for docNo, ids := range held {
		summary.BlockedRowCount += len(ids)
		blocker := blockers[docNo]
		logger.Warn("voucher held back by incomplete row",
			zap.String("docNo", docNo),
			zap.String("blockingRowId", blocker.ID),
			zap.Int("rows", len(ids)))
		p.mark(ctx, logger, ids, staging.Outcome{
			Status: staging.StatusInvalid,
			Note:   fmt.Sprintf("Blocked: row %d of %s is incomplete", blocker.RowIndex, docNo),
			Valid:  false,
		})
	}

	today := p.now()
	groups := GroupRows(postable, today)
	for _, group := range groups {
		if p.postGroup(ctx, logger, group, today) {
			summary.PostedDocCount++
		} else {
			summary.FailedDocNumbers = append(summary.FailedDocNumbers, group.DocNo)
		}
	}

	logger.Info("posting run finished",
		zap.Int("groups", len(groups)),
		zap.Int("posted", summary.PostedDocCount),
		zap.Strings("failed", summary.FailedDocNumbers),
		zap.Int("invalidRows", summary.InvalidRowCount),
		zap.Int("blockedRows", summary.BlockedRowCount),
		zap.Int("skippedRows", summary.SkippedRowCount))
	return summary
}

// postGroup submits one voucher and records the result on its rows
func (p *Pipeline) postGroup(ctx context.Context, logger *zap.Logger, group Group, today time.Time) bool {
	logger = logger.With(zap.String("docNo", group.DocNo))

	if result := staging.CheckBalance(group.Rows); !result.IsBalanced {
		logger.Warn("voucher is not balanced",
			zap.Int64("totalDebit", result.TotalDebit),
			zap.Int64("totalCredit", result.TotalCredit),
			zap.Int64("difference", result.Difference))
	}

	voucher, err := p.ledger.CreateVoucher(ctx, p.voucherRequest(group, today))
	if err != nil {
		perr := errors.NewPostingError(group.DocNo, err)
		logger.Error("voucher posting failed", zap.Error(perr))
		p.mark(ctx, logger, group.RowIDs(), staging.Outcome{
			Status: staging.StatusFailed,
			Note:   "Posting failed: " + errors.Reason(err),
			Valid:  false,
		})
		return false
	}

	logger.Info("voucher posted", zap.String("voucherId", voucher.VoucherID), zap.Int("rows", len(group.Rows)))
	p.mark(ctx, logger, group.RowIDs(), staging.Outcome{
		Status: staging.StatusPosted,
		Note:   staging.PostedMarker + " " + voucher.VoucherID,
		Valid:  true,
	})
	return true
}

func (p *Pipeline) voucherRequest(group Group, today time.Time) *ledger.CreateVoucherRequest {
	lines := make([]ledger.CreateVoucherLine, len(group.Rows))
	for i, row := range group.Rows {
		lines[i] = ledger.CreateVoucherLine{
			Description:   row.Description,
			DebitAccount:  strings.TrimSpace(row.DebitAccount),
			CreditAccount: strings.TrimSpace(row.CreditAccount),
			Amount:        row.Amount,
			PartnerCode:   row.PartnerCode,
			ItemCode:      row.ItemCode,
			SubItemCode:   row.SubItemCode,
		}
	}

	return &ledger.CreateVoucherRequest{
		DocNo:       group.DocNo,
		DocDate:     group.Date,
		PostDate:    today.Format(ledger.DateLayout),
		Description: group.Description,
		Type:        p.voucherType,
		TotalAmount: group.TotalAmount,
		Currency:    p.currency,
		FxRate:      decimal.NewFromInt(1),
		Status:      ledger.StatusPosted,
		Lines:       lines,
	}
}

// mark writes an outcome back. A failed write is logged and the run continues.
func (p *Pipeline) mark(ctx context.Context, logger *zap.Logger, ids []string, outcome staging.Outcome) {
	if err := p.writer.MarkRows(ctx, ids, outcome); err != nil {
		logger.Error("failed to record row status",
			zap.Strings("rowIds", ids),
			zap.String("status", string(outcome.Status)),
			zap.Error(err))
	}
}
