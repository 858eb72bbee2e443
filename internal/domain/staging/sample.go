package staging

// SampleRows is the demonstration data set restored by a reset.
// It covers a two-line voucher, a single-line voucher, an off-balance-sheet
// memorandum posting and a row missing its document number.
func SampleRows() []Row {
	return []Row{
		{RowIndex: 1, Date: "2024-01-15", DocNo: "PT001", Description: "Cash sale of goods", DebitAccount: "111", CreditAccount: "511", Amount: 1000, PartnerCode: "KH001"},
		{RowIndex: 2, Date: "2024-01-15", DocNo: "PT001", Description: "Cost of goods sold", DebitAccount: "632", CreditAccount: "156", Amount: 1000, ItemCode: "HH01"},
		{RowIndex: 3, Date: "2024-01-16", DocNo: "PC001", Description: "Office supplies", DebitAccount: "642", CreditAccount: "111", Amount: 250, SubItemCode: "VPP"},
		{RowIndex: 4, Date: "2024-01-17", DocNo: "NB001", Description: "Goods held for consignment", DebitAccount: "003", CreditAccount: "003", Amount: 5000},
		{RowIndex: 5, Date: "2024-01-18", Description: "Bank deposit without voucher", DebitAccount: "112", CreditAccount: "111", Amount: 500},
	}
}
