package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

// Service provides voucher-related business logic
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService creates a new voucher service
func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// CreateVoucher validates and stores a voucher.
// Debit/credit balance is not enforced here: vouchers arrive from staging
// where balance is an operator warning, not a precondition.
func (s *Service) CreateVoucher(ctx context.Context, req *CreateVoucherRequest) (*Voucher, error) {
	if err := validateVoucher(req); err != nil {
		return nil, err
	}

	voucher, err := s.repo.CreateVoucher(ctx, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("voucher created",
		zap.String("voucherId", voucher.VoucherID),
		zap.String("docNo", voucher.DocNo),
		zap.Int("lines", len(voucher.Lines)),
		zap.Int64("totalAmount", voucher.TotalAmount))
	return voucher, nil
}

// GetVoucher retrieves a voucher by ID
func (s *Service) GetVoucher(ctx context.Context, voucherID string) (*Voucher, error) {
	return s.repo.GetVoucher(ctx, voucherID)
}

// ListVouchersByDocNo retrieves every voucher posted under a document number
func (s *Service) ListVouchersByDocNo(ctx context.Context, docNo string) ([]Voucher, error) {
	if strings.TrimSpace(docNo) == "" {
		return nil, errors.NewValidationError("docNo is required")
	}
	return s.repo.ListVouchersByDocNo(ctx, docNo)
}

// validateVoucher checks the structure of a voucher request
func validateVoucher(req *CreateVoucherRequest) error {
	if req == nil {
		return errors.NewValidationError("voucher request is required")
	}
	if strings.TrimSpace(req.DocNo) == "" {
		return errors.NewValidationError("docNo is required")
	}
	if _, err := time.Parse(DateLayout, req.DocDate); err != nil {
		return errors.NewValidationError("voucher date must be in YYYY-MM-DD format")
	}
	if req.PostDate != "" {
		if _, err := time.Parse(DateLayout, req.PostDate); err != nil {
			return errors.NewValidationError("post date must be in YYYY-MM-DD format")
		}
	}
	if len(req.Lines) == 0 {
		return errors.NewValidationError("at least one line is required")
	}
	for i, line := range req.Lines {
		if strings.TrimSpace(line.DebitAccount) == "" || strings.TrimSpace(line.CreditAccount) == "" {
			return errors.NewValidationError(fmt.Sprintf("line %d must carry a debit and a credit account", i+1))
		}
		if line.Amount <= 0 {
			return errors.NewValidationError(fmt.Sprintf("line %d amount must be positive", i+1))
		}
	}
	if req.FxRate.IsNegative() {
		return errors.NewValidationError("fx rate must not be negative")
	}
	if total := req.LinesTotal(); total != req.TotalAmount {
		return errors.NewValidationError(fmt.Sprintf("total amount %d does not match lines total %d", req.TotalAmount, total))
	}
	return nil
}
