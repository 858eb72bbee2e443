package staging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hirosato/staging-ledger/internal/domain/balance"
)

func TestSanitizeAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want int64
	}{
		{raw: "1000", want: 1000},
		{raw: "1,000,000", want: 1000000},
		{raw: "1.500 VND", want: 1500},
		{raw: "-250", want: 250},
		{raw: "", want: 0},
		{raw: "abc", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := SanitizeAmount(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("overflow", func(t *testing.T) {
		_, err := SanitizeAmount("99999999999999999999999")
		assert.Error(t, err)
	})
}

func TestParseFieldValue(t *testing.T) {
	t.Run("amount is sanitized", func(t *testing.T) {
		value, err := ParseFieldValue(FieldAmount, "2.000")
		require.NoError(t, err)
		assert.Equal(t, int64(2000), value)
	})

	t.Run("text fields are kept verbatim", func(t *testing.T) {
		value, err := ParseFieldValue(FieldDescription, " Cash sale ")
		require.NoError(t, err)
		assert.Equal(t, " Cash sale ", value)
	})

	t.Run("status fields are not editable", func(t *testing.T) {
		_, err := ParseFieldValue(FieldStatusNote, "POSTED")
		assert.Error(t, err)
	})
}

func TestRow_IsPosted(t *testing.T) {
	assert.True(t, Row{Status: StatusPosted}.IsPosted())
	assert.True(t, Row{StatusNote: "POSTED 01HXYZ"}.IsPosted(), "legacy marker")
	assert.False(t, Row{Status: StatusFailed, StatusNote: "Posting failed: timeout"}.IsPosted())
	assert.False(t, Row{}.IsPosted())
}

func TestBalanceLines(t *testing.T) {
	rows := []Row{
		{DebitAccount: "111", CreditAccount: "511", Amount: 1000},
		{DebitAccount: "632", CreditAccount: "156", Amount: 1000},
	}

	result := balance.Check(BalanceLines(rows))

	assert.Equal(t, balance.StatusBalanced, result.Status)
	assert.Equal(t, int64(2000), result.TotalDebit)
	assert.Equal(t, int64(2000), result.TotalCredit)
}

func TestCheckBalance(t *testing.T) {
	tests := []struct {
		name           string
		rows           []Row
		wantStatus     balance.Status
		wantIncomplete []int
		wantDisplay    []int
		wantOffBalance int
	}{
		{
			name: "missing credit account reports the row",
			rows: []Row{
				{DebitAccount: "111", CreditAccount: "511", Amount: 1000},
				{DebitAccount: "632", Amount: 1000},
			},
			wantStatus:     balance.StatusIncomplete,
			wantIncomplete: []int{1},
			wantDisplay:    []int{2},
		},
		{
			name: "row missing both accounts is listed once",
			rows: []Row{
				{Amount: 300},
				{DebitAccount: "111", CreditAccount: "511", Amount: 300},
			},
			wantStatus:     balance.StatusIncomplete,
			wantIncomplete: []int{0},
			wantDisplay:    []int{1},
		},
		{
			name: "memorandum row counts once",
			rows: []Row{
				{DebitAccount: "003", CreditAccount: "003", Amount: 5000},
				{DebitAccount: "111", CreditAccount: "511", Amount: 200},
			},
			wantStatus:     balance.StatusBalanced,
			wantIncomplete: []int{},
			wantDisplay:    []int{},
			wantOffBalance: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckBalance(tt.rows)

			assert.Equal(t, tt.wantStatus, result.Status)
			assert.Equal(t, tt.wantIncomplete, result.IncompleteLines)
			assert.Equal(t, tt.wantDisplay, result.DisplayIncompleteLines())
			assert.Equal(t, tt.wantOffBalance, result.OffBalanceSheetLines)
		})
	}
}
