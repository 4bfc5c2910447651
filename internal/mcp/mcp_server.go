// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/tradecrew/matchengine/core"
)

// NewMCPServer initializes and configures the matching MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(engine *core.Engine) *server.MCPServer {
	s := server.NewMCPServer(
		"Contractor Matching Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{engine: engine}

	// --- 1. Tool: find_matching_contractors ---
	s.AddTool(mcp.NewTool("find_matching_contractors",
		mcp.WithDescription("Find the ranked, fairness-rotated set of contractors for an open job."),
		mcp.WithNumber("job_id", mcp.Description("The job to match contractors against."), mcp.Required()),
	), h.handleFindMatchingContractors)

	// --- 2. Tool: predict_job_price ---
	s.AddTool(mcp.NewTool("predict_job_price",
		mcp.WithDescription("Estimate a fair price for a job from historical quotes on similar work."),
		mcp.WithNumber("job_id", mcp.Description("The job to estimate a price for."), mcp.Required()),
	), h.handlePredictJobPrice)

	// --- 3. Tool: get_contractor_metrics ---
	s.AddTool(mcp.NewTool("get_contractor_metrics",
		mcp.WithDescription("Return the tracked sub-score snapshot for one contractor."),
		mcp.WithNumber("contractor_id", mcp.Description("The contractor to inspect."), mcp.Required()),
	), h.handleGetContractorMetrics)

	return s
}

// StartMCPServer starts the matching MCP server on stdio.
func StartMCPServer(_ context.Context, engine *core.Engine) error {
	s := NewMCPServer(engine)
	return server.ServeStdio(s)
}
