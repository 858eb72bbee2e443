package repository

import "fmt"

const (
	typeStagingRow = "staging_row"
	typeVoucher    = "voucher"

	rowPrefix     = "ROW#"
	voucherPrefix = "VOUCHER#"

	// maxBatchWrite is the DynamoDB limit of requests per BatchWriteItem call
	maxBatchWrite = 25
)

func sessionPK(sessionID string) string {
	return fmt.Sprintf("SESSION#%s", sessionID)
}

func rowSK(rowID string) string {
	return rowPrefix + rowID
}

func ledgerYearPK(ledgerID, year string) string {
	return fmt.Sprintf("LEDGER#%s#YEAR#%s", ledgerID, year)
}

func voucherSK(voucherID string) string {
	return voucherPrefix + voucherID
}

func voucherGSI1PK(ledgerID, voucherID string) string {
	return fmt.Sprintf("LEDGER#%s#VOUCHER#%s", ledgerID, voucherID)
}

func docNoGSI2PK(ledgerID, docNo string) string {
	return fmt.Sprintf("LEDGER#%s#DOC#%s", ledgerID, docNo)
}
