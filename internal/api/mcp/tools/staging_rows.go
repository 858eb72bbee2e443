package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hirosato/staging-ledger/internal/domain/command"
	"github.com/hirosato/staging-ledger/internal/domain/errors"
	"github.com/hirosato/staging-ledger/internal/domain/mcp"
	"github.com/hirosato/staging-ledger/internal/domain/staging"
)

type AddStagingRowTool struct {
	bus   *command.Bus
	store *staging.Store
}

func NewAddStagingRowTool(bus *command.Bus, store *staging.Store) *AddStagingRowTool {
	return &AddStagingRowTool{bus: bus, store: store}
}

func (t *AddStagingRowTool) GetName() string {
	return "add-staging-row"
}

func (t *AddStagingRowTool) GetDescription() string {
	return "Appends a staging row. Any field given is applied to the new row right away."
}

func (t *AddStagingRowTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{Type: "object", Properties: rowFieldProperties()}
}

func (t *AddStagingRowTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var fields map[string]string
	if err := decodeArgs(arguments, &fields); err != nil {
		return nil, err
	}
	for name := range fields {
		if !staging.IsEditable(staging.Field(name)) {
			return nil, errors.NewValidationError(fmt.Sprintf("field %s cannot be edited", name))
		}
	}

	result, err := dispatch(ctx, t.bus, command.AddRow{})
	if err != nil {
		return nil, err
	}
	row := result.(staging.Row)

	for _, name := range sortedKeys(fields) {
		if row, err = t.store.Update(row.ID, staging.Field(name), fields[name]); err != nil {
			return nil, err
		}
	}
	return jsonResult(fmt.Sprintf("Added row %s.", row.ID), row)
}

type UpdateStagingRowTool struct {
	store *staging.Store
}

func NewUpdateStagingRowTool(store *staging.Store) *UpdateStagingRowTool {
	return &UpdateStagingRowTool{store: store}
}

func (t *UpdateStagingRowTool) GetName() string {
	return "update-staging-row"
}

func (t *UpdateStagingRowTool) GetDescription() string {
	return "Updates one field of a staging row. Amounts keep only their digits. Changes are saved shortly after the last edit."
}

func (t *UpdateStagingRowTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]any{
			"id": map[string]string{
				"type":        "string",
				"description": "Row ID",
			},
			"field": map[string]any{
				"type":        "string",
				"description": "Field to change",
				"enum":        editableFieldNames(),
			},
			"value": map[string]string{
				"type":        "string",
				"description": "New value",
			},
		},
		Required: []string{"id", "field", "value"},
	}
}

func (t *UpdateStagingRowTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		ID    string `json:"id"`
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.ID == "" || args.Field == "" {
		return nil, errors.NewValidationError("id and field are required")
	}

	row, err := t.store.Edit(ctx, args.ID, staging.Field(args.Field), args.Value)
	if err != nil {
		return nil, err
	}
	return jsonResult(fmt.Sprintf("Updated %s of row %s.", args.Field, args.ID), row)
}

type DeleteStagingRowTool struct {
	store *staging.Store
}

func NewDeleteStagingRowTool(store *staging.Store) *DeleteStagingRowTool {
	return &DeleteStagingRowTool{store: store}
}

func (t *DeleteStagingRowTool) GetName() string {
	return "delete-staging-row"
}

func (t *DeleteStagingRowTool) GetDescription() string {
	return "Deletes one staging row"
}

func (t *DeleteStagingRowTool) GetInputSchema() mcp.JSONSchema {
	return mcp.JSONSchema{
		Type: "object",
		Properties: map[string]any{
			"id": map[string]string{
				"type":        "string",
				"description": "Row ID",
			},
		},
		Required: []string{"id"},
	}
}

func (t *DeleteStagingRowTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		ID string `json:"id"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	if args.ID == "" {
		return nil, errors.NewValidationError("id is required")
	}
	if err := t.store.Delete(ctx, args.ID); err != nil {
		return nil, err
	}
	return mcp.TextResult(fmt.Sprintf("Deleted row %s.", args.ID)), nil
}

type ClearStagingRowsTool struct {
	bus *command.Bus
}

func NewClearStagingRowsTool(bus *command.Bus) *ClearStagingRowsTool {
	return &ClearStagingRowsTool{bus: bus}
}

func (t *ClearStagingRowsTool) GetName() string {
	return "clear-staging-rows"
}

func (t *ClearStagingRowsTool) GetDescription() string {
	return "Deletes every staging row"
}

func (t *ClearStagingRowsTool) GetInputSchema() mcp.JSONSchema {
	return confirmSchema
}

func (t *ClearStagingRowsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	if _, err := dispatch(ctx, t.bus, command.ClearAll{Confirmed: args.Confirm}); err != nil {
		return nil, err
	}
	return mcp.TextResult("All staging rows deleted."), nil
}

type ResetStagingRowsTool struct {
	bus *command.Bus
}

func NewResetStagingRowsTool(bus *command.Bus) *ResetStagingRowsTool {
	return &ResetStagingRowsTool{bus: bus}
}

func (t *ResetStagingRowsTool) GetName() string {
	return "reset-staging-rows"
}

func (t *ResetStagingRowsTool) GetDescription() string {
	return "Replaces every staging row with the sample data set"
}

func (t *ResetStagingRowsTool) GetInputSchema() mcp.JSONSchema {
	return confirmSchema
}

func (t *ResetStagingRowsTool) Execute(ctx context.Context, arguments json.RawMessage) (*mcp.CallToolResult, error) {
	var args struct {
		Confirm bool `json:"confirm"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return nil, err
	}
	result, err := dispatch(ctx, t.bus, command.ResetSample{Confirmed: args.Confirm})
	if err != nil {
		return nil, err
	}
	rows := result.([]staging.Row)
	return jsonResult(fmt.Sprintf("Staging reset to %d sample rows.", len(rows)), rows)
}

var editableFields = []staging.Field{
	staging.FieldDate,
	staging.FieldDocNo,
	staging.FieldDescription,
	staging.FieldDebitAccount,
	staging.FieldCreditAccount,
	staging.FieldAmount,
	staging.FieldPartnerCode,
	staging.FieldItemCode,
	staging.FieldSubItemCode,
}

func editableFieldNames() []string {
	names := make([]string, len(editableFields))
	for i, f := range editableFields {
		names[i] = string(f)
	}
	return names
}

func rowFieldProperties() map[string]any {
	props := make(map[string]any, len(editableFields))
	for _, f := range editableFields {
		props[string(f)] = map[string]string{"type": "string"}
	}
	return props
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
