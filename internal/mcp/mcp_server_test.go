package mcp_test

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecrew/matchengine/core"
	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/internal/datastore"
	"github.com/tradecrew/matchengine/internal/geocode"
	mcp_internal "github.com/tradecrew/matchengine/internal/mcp"
	"github.com/tradecrew/matchengine/schema"
)

func newTestServerEngine(t *testing.T) *core.Engine {
	t.Helper()
	store := datastore.NewMockStore()
	store.AddJob(schema.Job{ID: 1, TradeID: 1, Location: "Portland", Status: schema.JobStatusOpen})
	store.AddContractor(schema.Contractor{
		ID: 1, Name: "Rivera Plumbing", Address: "Portland",
		Coordinates: &schema.GeoPoint{Lat: 45.5152, Lng: -122.6784},
		Rating:      4.8,
		Active:      true,
		Trades:      []schema.TradeProfile{{TradeID: 1}},
	})

	cfg := contract.NewConfig()
	cfg.MaxRetries = 0
	engine, err := core.New(cfg, store, geocode.NewStatic())
	require.NoError(t, err)
	t.Cleanup(engine.Close)
	return engine
}

func TestMCPServerHandlers(t *testing.T) {
	engine := newTestServerEngine(t)
	s := mcp_internal.NewMCPServer(engine)
	ctx := context.Background()

	t.Run("find_matching_contractors invalid job_id", func(t *testing.T) {
		tool := s.GetTool("find_matching_contractors")
		require.NotNil(t, tool, "Tool find_matching_contractors should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "find_matching_contractors",
				Arguments: map[string]any{"job_id": 0.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "job_id must be a positive integer")
	})

	t.Run("find_matching_contractors unknown job", func(t *testing.T) {
		tool := s.GetTool("find_matching_contractors")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "find_matching_contractors",
				Arguments: map[string]any{"job_id": 404.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "job not found")
	})

	t.Run("find_matching_contractors success", func(t *testing.T) {
		tool := s.GetTool("find_matching_contractors")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "find_matching_contractors",
				Arguments: map[string]any{"job_id": 1.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "Rivera Plumbing")
	})

	t.Run("predict_job_price success", func(t *testing.T) {
		tool := s.GetTool("predict_job_price")
		require.NotNil(t, tool, "Tool predict_job_price should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "predict_job_price",
				Arguments: map[string]any{"job_id": 1.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "estimated_price")
	})

	t.Run("get_contractor_metrics before any sweep", func(t *testing.T) {
		tool := s.GetTool("get_contractor_metrics")
		require.NotNil(t, tool, "Tool get_contractor_metrics should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_contractor_metrics",
				Arguments: map[string]any{"contractor_id": 1.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "run a sweep first")
	})

	t.Run("get_contractor_metrics after sweep", func(t *testing.T) {
		engine.Tracker().Sweep(ctx)

		tool := s.GetTool("get_contractor_metrics")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "get_contractor_metrics",
				Arguments: map[string]any{"contractor_id": 1.0},
			},
		}
		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.False(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "reliability")
	})
}
