package ledger

import (
	"context"
)

// Repository defines the interface for voucher storage
type Repository interface {
	// Create a new voucher with its lines
	CreateVoucher(ctx context.Context, req *CreateVoucherRequest) (*Voucher, error)

	// Get a voucher by ID
	GetVoucher(ctx context.Context, voucherID string) (*Voucher, error)

	// List vouchers carrying a document number, oldest first
	ListVouchersByDocNo(ctx context.Context, docNo string) ([]Voucher, error)
}
