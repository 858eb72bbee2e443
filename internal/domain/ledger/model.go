package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	// DateLayout is the format of voucher dates
	DateLayout = "2006-01-02"

	// StatusPosted is the status of a voucher committed from staging
	StatusPosted = "POSTED"
)

// Voucher is a committed double-entry accounting document
type Voucher struct {
	VoucherID   string          `json:"voucherId"`
	DocNo       string          `json:"docNo"`
	DocDate     string          `json:"docDate"`  //YYYY-MM-DD
	PostDate    string          `json:"postDate"` //YYYY-MM-DD
	Description string          `json:"description"`
	Type        string          `json:"type"`
	TotalAmount int64           `json:"totalAmount"`
	Currency    string          `json:"currency"`
	FxRate      decimal.Decimal `json:"fxRate"`
	Status      string          `json:"status"`
	Lines       []Line          `json:"lines"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Year returns the fiscal partition of the voucher
func (v *Voucher) Year() string {
	if len(v.DocDate) < 4 {
		return ""
	}
	return v.DocDate[:4]
}

// Line is one debit/credit pair of a voucher
type Line struct {
	LineID        string `json:"lineId"`
	Description   string `json:"description,omitempty"`
	DebitAccount  string `json:"debitAccount"`
	CreditAccount string `json:"creditAccount"`
	Amount        int64  `json:"amount"`
	PartnerCode   string `json:"partnerCode,omitempty"`
	ItemCode      string `json:"itemCode,omitempty"`
	SubItemCode   string `json:"subItemCode,omitempty"`
}

// CreateVoucherRequest is the payload of one voucher creation
type CreateVoucherRequest struct {
	DocNo       string              `json:"docNo"`
	DocDate     string              `json:"docDate"`
	PostDate    string              `json:"postDate"`
	Description string              `json:"description"`
	Type        string              `json:"type"`
	TotalAmount int64               `json:"totalAmount"`
	Currency    string              `json:"currency"`
	FxRate      decimal.Decimal     `json:"fxRate"`
	Status      string              `json:"status"`
	Lines       []CreateVoucherLine `json:"lines"`
}

// CreateVoucherLine is one line of a voucher creation request
type CreateVoucherLine struct {
	Description   string `json:"description,omitempty"`
	DebitAccount  string `json:"debitAccount"`
	CreditAccount string `json:"creditAccount"`
	Amount        int64  `json:"amount"`
	PartnerCode   string `json:"partnerCode,omitempty"`
	ItemCode      string `json:"itemCode,omitempty"`
	SubItemCode   string `json:"subItemCode,omitempty"`
}

// LinesTotal sums the line amounts
func (r *CreateVoucherRequest) LinesTotal() int64 {
	var total int64
	for _, line := range r.Lines {
		total += line.Amount
	}
	return total
}
