package ledger

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testRepository struct {
	created []*CreateVoucherRequest
}

func (r *testRepository) CreateVoucher(ctx context.Context, req *CreateVoucherRequest) (*Voucher, error) {
	r.created = append(r.created, req)
	return &Voucher{VoucherID: "v1", DocNo: req.DocNo, TotalAmount: req.TotalAmount}, nil
}

func (r *testRepository) GetVoucher(ctx context.Context, voucherID string) (*Voucher, error) {
	return &Voucher{VoucherID: voucherID}, nil
}

func (r *testRepository) ListVouchersByDocNo(ctx context.Context, docNo string) ([]Voucher, error) {
	return []Voucher{{DocNo: docNo}}, nil
}

func validRequest() *CreateVoucherRequest {
	return &CreateVoucherRequest{
		DocNo:       "A1",
		DocDate:     "2024-01-15",
		PostDate:    "2024-01-20",
		Description: "Cash sale",
		Type:        "GENERAL",
		TotalAmount: 2000,
		Currency:    "VND",
		FxRate:      decimal.NewFromInt(1),
		Status:      StatusPosted,
		Lines: []CreateVoucherLine{
			{DebitAccount: "111", CreditAccount: "511", Amount: 1000},
			{DebitAccount: "632", CreditAccount: "156", Amount: 1000},
		},
	}
}

func TestService_CreateVoucher(t *testing.T) {
	t.Run("valid voucher is stored", func(t *testing.T) {
		repo := &testRepository{}
		svc := NewService(repo, zap.NewNop())

		voucher, err := svc.CreateVoucher(context.Background(), validRequest())

		require.NoError(t, err)
		assert.Equal(t, "v1", voucher.VoucherID)
		assert.Len(t, repo.created, 1)
	})

	t.Run("single line voucher is accepted", func(t *testing.T) {
		repo := &testRepository{}
		svc := NewService(repo, zap.NewNop())
		req := validRequest()
		req.Lines = req.Lines[:1]
		req.TotalAmount = 1000

		_, err := svc.CreateVoucher(context.Background(), req)
		assert.NoError(t, err)
	})

	tests := []struct {
		name    string
		mutate  func(req *CreateVoucherRequest)
		message string
	}{
		{name: "missing docNo", mutate: func(req *CreateVoucherRequest) { req.DocNo = " " }, message: "docNo"},
		{name: "bad date", mutate: func(req *CreateVoucherRequest) { req.DocDate = "15/01/2024" }, message: "date"},
		{name: "bad post date", mutate: func(req *CreateVoucherRequest) { req.PostDate = "tomorrow" }, message: "post date"},
		{name: "no lines", mutate: func(req *CreateVoucherRequest) { req.Lines = nil; req.TotalAmount = 0 }, message: "at least one line"},
		{name: "missing account", mutate: func(req *CreateVoucherRequest) { req.Lines[1].CreditAccount = "" }, message: "line 2"},
		{name: "zero amount", mutate: func(req *CreateVoucherRequest) { req.Lines[0].Amount = 0; req.TotalAmount = 1000 }, message: "positive"},
		{name: "negative fx rate", mutate: func(req *CreateVoucherRequest) { req.FxRate = decimal.NewFromInt(-1) }, message: "fx rate"},
		{name: "total mismatch", mutate: func(req *CreateVoucherRequest) { req.TotalAmount = 1500 }, message: "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &testRepository{}
			svc := NewService(repo, zap.NewNop())
			req := validRequest()
			tt.mutate(req)

			_, err := svc.CreateVoucher(context.Background(), req)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "VALIDATION_ERROR")
			assert.Contains(t, err.Error(), tt.message)
			assert.Empty(t, repo.created)
		})
	}
}

func TestService_ListVouchersByDocNo(t *testing.T) {
	svc := NewService(&testRepository{}, zap.NewNop())

	_, err := svc.ListVouchersByDocNo(context.Background(), "")
	assert.Error(t, err)

	vouchers, err := svc.ListVouchersByDocNo(context.Background(), "A1")
	require.NoError(t, err)
	assert.Equal(t, "A1", vouchers[0].DocNo)
}
