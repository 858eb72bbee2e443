// Package balance computes debit/credit totals for a set of voucher lines.
//
// Check is a pure function over an immutable snapshot and may be called
// concurrently. Accounts whose code starts with "0" are off-balance-sheet
// memorandum accounts: they are single-entry and never take part in the
// debit == credit equation.
package balance

import "strings"

// Status is the outcome of a balance check
type Status string

const (
	StatusBalanced   Status = "balanced"
	StatusIncomplete Status = "incomplete"
	StatusUnbalanced Status = "unbalanced"
	StatusEmpty      Status = "empty"
)

// offBalancePrefix marks memorandum accounts
const offBalancePrefix = "0"

// Line is one side of a voucher line. Amounts are whole currency units.
type Line struct {
	Account string `json:"account"`
	Debit   int64  `json:"debit,omitempty"`
	Credit  int64  `json:"credit,omitempty"`
}

// Result summarises a set of lines
type Result struct {
	TotalDebit           int64  `json:"totalDebit"`
	TotalCredit          int64  `json:"totalCredit"`
	Difference           int64  `json:"difference"`
	IsBalanced           bool   `json:"isBalanced"`
	Status               Status `json:"status"`
	IncompleteLines      []int  `json:"incompleteLines"`
	OffBalanceSheetLines int    `json:"offBalanceSheetLines"`
}

// Check computes the balance result for lines
func Check(lines []Line) Result {
	result := Result{
		Status:          StatusEmpty,
		IncompleteLines: []int{},
	}
	if len(lines) == 0 {
		result.IsBalanced = true
		return result
	}

	for i, line := range lines {
		account := strings.TrimSpace(line.Account)
		switch {
		case account == "":
			result.IncompleteLines = append(result.IncompleteLines, i)
		case IsOffBalanceSheet(account):
			result.OffBalanceSheetLines++
		default:
			result.TotalDebit += line.Debit
			result.TotalCredit += line.Credit
		}
	}

	result.Difference = result.TotalDebit - result.TotalCredit
	result.IsBalanced = result.Difference == 0

	switch {
	case len(result.IncompleteLines) > 0:
		result.Status = StatusIncomplete
	case result.IsBalanced:
		result.Status = StatusBalanced
	default:
		result.Status = StatusUnbalanced
	}

	return result
}

// IsOffBalanceSheet reports whether account is a memorandum account
func IsOffBalanceSheet(account string) bool {
	return strings.HasPrefix(strings.TrimSpace(account), offBalancePrefix)
}

// DisplayIncompleteLines returns the incomplete line numbers 1-based, as operators count them.
func (r Result) DisplayIncompleteLines() []int {
	display := make([]int, len(r.IncompleteLines))
	for i, idx := range r.IncompleteLines {
		display[i] = idx + 1
	}
	return display
}
