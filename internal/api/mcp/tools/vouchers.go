package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/ledger"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
)

type GetVouchersTool struct {
	ledgerService *ledger.Service
}

func NewGetVouchersTool(ledgerService *ledger.Service) *GetVouchersTool {
	return &GetVouchersTool{ledgerService: ledgerService}
}

func (t *GetVouchersTool) GetName() string {
	return "get-vouchers"
}

func (t *GetVouchersTool) GetDescription() string {
	return "Looks up posted vouchers, either by voucher ID or by document number"
}

func (t *GetVouchersTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]any{
			"voucherId": map[string]string{
				"type":        "string",
				"description": "Voucher ID, as written in the POSTED note of a staging row",
			},
			"docNo": map[string]string{
				"type":        "string",
				"description": "Document number",
			},
		},
	}
}

func (t *GetVouchersTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		VoucherID string `json:"voucherId"`
		DocNo     string `json:"docNo"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}

	switch {
	case args.VoucherID != "":
		voucher, err := t.ledgerService.GetVoucher(ctx, args.VoucherID)
		if err != nil {
			return nil, err
		}
		return jsonResult(fmt.Sprintf("Voucher %s (%s).", voucher.VoucherID, voucher.DocNo), voucher)
	case args.DocNo != "":
		vouchers, err := t.ledgerService.ListVouchersByDocNo(ctx, args.DocNo)
		if err != nil {
			return nil, err
		}
		return jsonResult(fmt.Sprintf("%d voucher(s) posted as %s.", len(vouchers), args.DocNo), vouchers)
	default:
		return nil, errors.NewValidationError("voucherId or docNo is required")
	}
}
