package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tradecrew/matchengine/internal/contract"
)

// priceCmd estimates a fair price for a job.
var priceCmd = &cobra.Command{
	Use:   "price <job-id>",
	Short: "Estimate a fair price for a job.",
	Long: `Predict a fair price for a job from historical quotes on similar work.

The estimate starts from average quote amounts on completed jobs of the same
trade and adjusts for location, description complexity and season. Confidence
grows with the number of similar jobs found.

Examples:
  # Estimate the price of job 42
  matchengine price 42

  # Emit the estimate as JSON for downstream tooling
  matchengine price 42 --output json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetup,
	Run: func(_ *cobra.Command, args []string) {
		defer teardown()

		jobID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			contract.LogFatal("Invalid job id", err)
		}

		pred, err := engine.PredictJobPrice(rootCtx, jobID)
		if err != nil {
			contract.LogFatal("Cannot predict price", err)
		}
		if err := writer.WritePrediction(pred, cfg); err != nil {
			contract.LogFatal("Cannot write prediction", err)
		}
	},
}
