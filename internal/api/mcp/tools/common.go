package tools

import (
	"context"
	"encoding/json"

	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
)

// ErrNoActiveSession is returned when a command reaches a bus with no session attached
var ErrNoActiveSession = errors.NewConflictError("no staging session is active")

func dispatch(ctx context.Context, bus *command.Bus, cmd command.Command) (any, error) {
	outcome, err := bus.Dispatch(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if !outcome.Handled {
		return nil, ErrNoActiveSession
	}
	return outcome.Result, nil
}

// decodeArgs unmarshals tool arguments. Missing arguments leave v untouched.
func decodeArgs(arguments json.RawMessage, v any) error {
	if len(arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(arguments, v); err != nil {
		return errors.NewValidationError("invalid arguments: " + err.Error())
	}
	return nil
}

// jsonResult renders a message followed by v as indented JSON
func jsonResult(message string, v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.NewInternalError("failed to encode result", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.ToolResultContent{
			{Type: "text", Text: message},
			{Type: "text", Text: string(data)},
		},
	}, nil
}

var confirmSchema = mcp.JSONSchema{
	Type: "object",
	Properties: map[string]any{
		"confirm": map[string]string{
			"type":        "boolean",
			"description": "Must be true. The operation cannot be undone.",
		},
	},
	Required: []string{"confirm"},
}
