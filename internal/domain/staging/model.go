package staging

import (
	"strconv"
	"strings"
	"time"

	"github.com/hirosato/staging-ledger/internal/domain/balance"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
)

// PostedMarker prefixes the status note of a row that has been committed to the ledger.
// Rows written before Status existed only carry this marker, so it is still honoured.
const PostedMarker = "POSTED"

// Status is the posting state of a staged row
type Status string

const (
	StatusPending Status = "pending"
	StatusInvalid Status = "invalid"
	StatusPosted  Status = "posted"
	StatusFailed  Status = "failed"
)

// Field names a persisted attribute of a staged row
type Field string

const (
	FieldRowIndex      Field = "rowIndex"
	FieldDate          Field = "date"
	FieldDocNo         Field = "docNo"
	FieldDescription   Field = "description"
	FieldDebitAccount  Field = "debitAccount"
	FieldCreditAccount Field = "creditAccount"
	FieldAmount        Field = "amount"
	FieldPartnerCode   Field = "partnerCode"
	FieldItemCode      Field = "itemCode"
	FieldSubItemCode   Field = "subItemCode"
	FieldValidityFlag  Field = "validityFlag"
	FieldStatus        Field = "status"
	FieldStatusNote    Field = "statusNote"
)

// editableFields are the fields an operator may change directly
var editableFields = map[Field]bool{
	FieldDate:          true,
	FieldDocNo:         true,
	FieldDescription:   true,
	FieldDebitAccount:  true,
	FieldCreditAccount: true,
	FieldAmount:        true,
	FieldPartnerCode:   true,
	FieldItemCode:      true,
	FieldSubItemCode:   true,
}

// Row is one draft ledger line awaiting posting
type Row struct {
	ID            string    `json:"id" dynamodbav:"id"`
	RowIndex      int       `json:"rowIndex" dynamodbav:"rowIndex"`
	Date          string    `json:"date" dynamodbav:"date"`
	DocNo         string    `json:"docNo" dynamodbav:"docNo"`
	Description   string    `json:"description" dynamodbav:"description"`
	DebitAccount  string    `json:"debitAccount" dynamodbav:"debitAccount"`
	CreditAccount string    `json:"creditAccount" dynamodbav:"creditAccount"`
	Amount        int64     `json:"amount" dynamodbav:"amount"`
	PartnerCode   string    `json:"partnerCode,omitempty" dynamodbav:"partnerCode"`
	ItemCode      string    `json:"itemCode,omitempty" dynamodbav:"itemCode"`
	SubItemCode   string    `json:"subItemCode,omitempty" dynamodbav:"subItemCode"`
	ValidityFlag  bool      `json:"validityFlag" dynamodbav:"validityFlag"`
	Status        Status    `json:"status" dynamodbav:"status"`
	StatusNote    string    `json:"statusNote,omitempty" dynamodbav:"statusNote"`
	CreatedAt     time.Time `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" dynamodbav:"updatedAt"`
}

// IsPosted reports whether the row was already committed and must never be reprocessed
func (r Row) IsPosted() bool {
	return r.Status == StatusPosted || strings.HasPrefix(r.StatusNote, PostedMarker)
}

// BalanceLines expands the row into its debit side and its credit side
func (r Row) BalanceLines() []balance.Line {
	return []balance.Line{
		{Account: r.DebitAccount, Debit: r.Amount},
		{Account: r.CreditAccount, Credit: r.Amount},
	}
}

// BalanceLines expands rows for balance.Check, preserving order
func BalanceLines(rows []Row) []balance.Line {
	lines := make([]balance.Line, 0, len(rows)*2)
	for _, row := range rows {
		lines = append(lines, row.BalanceLines()...)
	}
	return lines
}

// CheckBalance runs balance.Check over rows and reports incomplete and
// off-balance-sheet entries per row rather than per side. IncompleteLines
// holds 0-based row indices.
func CheckBalance(rows []Row) balance.Result {
	result := balance.Check(BalanceLines(rows))

	incomplete := make([]int, 0, len(result.IncompleteLines))
	for _, idx := range result.IncompleteLines {
		row := idx / 2
		if n := len(incomplete); n > 0 && incomplete[n-1] == row {
			continue
		}
		incomplete = append(incomplete, row)
	}
	result.IncompleteLines = incomplete

	result.OffBalanceSheetLines = 0
	for _, row := range rows {
		if balance.IsOffBalanceSheet(row.DebitAccount) || balance.IsOffBalanceSheet(row.CreditAccount) {
			result.OffBalanceSheetLines++
		}
	}
	return result
}

// IsEditable reports whether an operator may edit field
func IsEditable(field Field) bool {
	return editableFields[field]
}

// SanitizeAmount strips every non-digit character and parses the rest.
// An empty result maps to zero.
func SanitizeAmount(raw string) (int64, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, nil
	}
	amount, err := strconv.ParseInt(b.String(), 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("amount is out of range")
	}
	return amount, nil
}

// ParseFieldValue converts operator input into the stored value for field
func ParseFieldValue(field Field, raw string) (any, error) {
	if !IsEditable(field) {
		return nil, errors.NewValidationError("field " + string(field) + " cannot be edited")
	}
	if field == FieldAmount {
		return SanitizeAmount(raw)
	}
	return raw, nil
}

// apply sets field on r. value must come from ParseFieldValue or a status update.
func (r *Row) apply(field Field, value any) {
	switch field {
	case FieldRowIndex:
		r.RowIndex, _ = value.(int)
	case FieldDate:
		r.Date, _ = value.(string)
	case FieldDocNo:
		r.DocNo, _ = value.(string)
	case FieldDescription:
		r.Description, _ = value.(string)
	case FieldDebitAccount:
		r.DebitAccount, _ = value.(string)
	case FieldCreditAccount:
		r.CreditAccount, _ = value.(string)
	case FieldAmount:
		r.Amount, _ = value.(int64)
	case FieldPartnerCode:
		r.PartnerCode, _ = value.(string)
	case FieldItemCode:
		r.ItemCode, _ = value.(string)
	case FieldSubItemCode:
		r.SubItemCode, _ = value.(string)
	case FieldValidityFlag:
		r.ValidityFlag, _ = value.(bool)
	case FieldStatus:
		r.Status, _ = value.(Status)
	case FieldStatusNote:
		r.StatusNote, _ = value.(string)
	}
}

// Outcome is the status write-back for a set of rows
type Outcome struct {
	Status Status
	Note   string
	Valid  bool
}

// Fields returns the persisted attributes that record o
func (o Outcome) Fields() map[Field]any {
	return map[Field]any{
		FieldStatus:       o.Status,
		FieldStatusNote:   o.Note,
		FieldValidityFlag: o.Valid,
	}
}
