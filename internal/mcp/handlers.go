package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/hpungsan/abacus/internal/calc"
	"github.com/hpungsan/abacus/internal/errors"
	"github.com/hpungsan/abacus/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	repo *ops.Repository
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(repo *ops.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// ListRequest represents the arguments for calculation_list.
type ListRequest struct {
	Limit *int `json:"limit,omitempty"`
}

// RecordRequest represents the arguments for calculation_record.
type RecordRequest struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// ListResult wraps the listed calculations. Tool results must be objects.
type ListResult struct {
	Items []calc.Calculation `json:"items"`
}

// HandleList handles the calculation_list tool.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	limit := ops.HistoryLimit
	if args.Limit != nil {
		if *args.Limit < 1 {
			return errorResult(errors.NewInvalidInput("limit must be positive")), nil
		}
		limit = *args.Limit
	}

	items, err := h.repo.ListRecent(ctx, limit)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(ListResult{Items: items})
}

// HandleRecord handles the calculation_record tool.
func (h *Handlers) HandleRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decode[RecordRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidInput(err.Error())), nil
	}

	c, err := h.repo.Create(ctx, ops.CreateInput{
		Expression: args.Expression,
		Result:     args.Result,
	})
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(c)
}

// HandleClear handles the calculation_clear tool.
func (h *Handlers) HandleClear(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := h.repo.ClearAll(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return successResult(out)
}

// errorResult builds an MCP error result. Details are dropped for internal
// errors so SQL text and file paths never reach the client.
func errorResult(err error) *mcp.CallToolResult {
	aErr := errors.From(err)

	errorObj := map[string]any{
		"code":    aErr.Code,
		"message": aErr.Message,
		"status":  aErr.Status,
	}
	if aErr.Code != errors.ErrInternal && aErr.Details != nil {
		errorObj["details"] = aErr.Details
	}

	content, _ := json.Marshal(map[string]any{"error": errorObj})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
