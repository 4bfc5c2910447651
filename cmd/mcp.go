package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tradecrew/matchengine/internal/mcp"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the matching MCP server",
	Long:  `Launch an MCP server that allows AI agents to match contractors and predict job prices via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr already, which keeps stdout clean for the
		// stdio protocol.
		return sharedSetup(cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		defer teardown()
		if err := engine.Start(); err != nil {
			return err
		}
		return mcp.StartMCPServer(rootCtx, engine)
	},
}
