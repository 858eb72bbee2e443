package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
	"github.com/hirosato/staging-ledger/internal/domain/session"
)

type PostStagingRowsTool struct {
	bus *command.Bus
}

func NewPostStagingRowsTool(bus *command.Bus) *PostStagingRowsTool {
	return &PostStagingRowsTool{bus: bus}
}

func (t *PostStagingRowsTool) GetName() string {
	return "post-staging-rows"
}

func (t *PostStagingRowsTool) GetDescription() string {
	return "Posts every unposted staging row to the ledger. Rows are grouped into one voucher per document number; " +
		"incomplete rows are marked invalid and failed vouchers do not stop the others."
}

func (t *PostStagingRowsTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{Type: "object"}
}

func (t *PostStagingRowsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	result, err := dispatch(ctx, t.bus, command.Post{})
	if err != nil {
		return nil, err
	}
	posted := result.(session.PostResult)
	return jsonResult(posted.Message, posted.Summary)
}

type CheckBalanceTool struct {
	bus *command.Bus
}

func NewCheckBalanceTool(bus *command.Bus) *CheckBalanceTool {
	return &CheckBalanceTool{bus: bus}
}

func (t *CheckBalanceTool) GetName() string {
	return "check-balance"
}

func (t *CheckBalanceTool) GetDescription() string {
	return "Checks that debits equal credits across the unposted staging rows. " +
		"Accounts starting with 0 are off-balance-sheet and excluded from the totals."
}

func (t *CheckBalanceTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{Type: "object"}
}

func (t *CheckBalanceTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	result, err := dispatch(ctx, t.bus, command.CheckBalance{})
	if err != nil {
		return nil, err
	}
	report := result.(session.BalanceReport)
	return jsonResult(report.Message, report.Result)
}
