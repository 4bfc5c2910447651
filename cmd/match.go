package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tradecrew/matchengine/internal/contract"
)

// matchCmd finds the ranked contractor distribution for a job.
var matchCmd = &cobra.Command{
	Use:   "match <job-id>",
	Short: "Find the best contractors for a job.",
	Long: `Score, rank and fairly distribute contractors for an open job.

Contractors are filtered by trade, activity, rating, radius and schedule
availability, scored on reliability, workload, quality and price
competitiveness, then drawn from quality tiers with rotation so the same top
contractors do not monopolize every match.

Examples:
  # Match contractors for job 42
  matchengine match 42

  # Widen the search radius and take more contractors
  matchengine match 42 --radius 80 --limit 15

  # Export the ranking to CSV
  matchengine match 42 --output csv --output-file matches.csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		defer teardown()

		jobID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			contract.LogFatal("Invalid job id", err)
		}

		result, err := engine.FindMatchingContractors(rootCtx, jobID)
		if err != nil {
			contract.LogFatal("Cannot match contractors", err)
		}
		if err := writer.WriteMatch(result, cfg); err != nil {
			contract.LogFatal("Cannot write match result", err)
		}
	},
}
