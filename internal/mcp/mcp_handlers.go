package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/tradecrew/matchengine/core"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	engine *core.Engine
}

func (h *toolHandler) handleFindMatchingContractors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetInt("job_id", 0)
	if jobID <= 0 {
		return mcp.NewToolResultError("job_id must be a positive integer"), nil
	}

	result, err := h.engine.FindMatchingContractors(ctx, int64(jobID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("matching failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(result, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handlePredictJobPrice(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jobID := request.GetInt("job_id", 0)
	if jobID <= 0 {
		return mcp.NewToolResultError("job_id must be a positive integer"), nil
	}

	pred, err := h.engine.PredictJobPrice(ctx, int64(jobID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("prediction failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(pred, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetContractorMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	contractorID := request.GetInt("contractor_id", 0)
	if contractorID <= 0 {
		return mcp.NewToolResultError("contractor_id must be a positive integer"), nil
	}

	metrics, ok := h.engine.Tracker().Snapshot(int64(contractorID))
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("no metrics tracked for contractor %d; run a sweep first", contractorID)), nil
	}

	jsonData, _ := json.MarshalIndent(metrics, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}
