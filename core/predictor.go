package core

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// complexityKeywords each add 10% to the complexity factor when found in the
// job description.
var complexityKeywords = []string{
	"urgent", "emergency", "complex", "extensive", "multiple",
	"specialized", "technical", "detailed", "custom",
}

// defaultBasePrice anchors the estimate when the marketplace has no
// completed-cost history at all (a brand-new deployment).
const defaultBasePrice = 250.0

// Confidence grows with sample size and saturates below certainty.
const (
	confidenceFloor   = 0.5
	confidencePerJob  = 0.05
	confidenceCeiling = 0.95
)

// Predictor estimates a job's fair price from historical quotes on similar
// completed jobs.
type Predictor struct {
	cfg   *contract.Config
	store contract.DataStore

	// clock supplies the month for the seasonality factor. Pricing keys off
	// the current calendar month rather than the job's scheduled month; a
	// job scheduled months ahead for summer work arguably should price at
	// summer rates, but that change is deferred until product signs off.
	clock func() time.Time

	log *zap.Logger
}

// NewPredictor builds a Predictor.
func NewPredictor(cfg *contract.Config, store contract.DataStore, clock func() time.Time, log *zap.Logger) *Predictor {
	return &Predictor{cfg: cfg, store: store, clock: clock, log: log}
}

// Predict estimates the fair price for job. It fails with
// ErrMissingTradeInfo when the job carries no trade identifier; callers
// scoring contractors treat that as "use the neutral default", not a hard
// error.
func (p *Predictor) Predict(ctx context.Context, job *schema.Job) (schema.PricePrediction, error) {
	if job.TradeID == 0 {
		return schema.PricePrediction{}, contract.ErrMissingTradeInfo
	}

	allJobs, err := contract.Retry(ctx, p.cfg, func() ([]schema.Job, error) {
		return p.store.GetAllJobs(ctx)
	})
	if err != nil {
		return schema.PricePrediction{}, err
	}

	// Similar jobs: completed, same trade.
	var similar []schema.Job
	for _, j := range allJobs {
		if j.Status == schema.JobStatusCompleted && j.TradeID == job.TradeID && j.ID != job.ID {
			similar = append(similar, j)
		}
	}

	amounts := p.historicalQuoteAmounts(ctx, similar)

	base := mean(amounts)
	if base == 0 {
		// No quote history for the trade: fall back to the marketwide
		// average completed cost, then to the fixed anchor.
		base = meanCompletedCost(allJobs)
		if base == 0 {
			base = defaultBasePrice
		}
	}

	factors := schema.PriceFactors{
		Trade:       tradeFactor(allJobs, job.TradeID),
		Location:    locationFactor(allJobs, job.Location),
		Complexity:  complexityFactor(job.Description),
		Seasonality: seasonalityFactor(p.clock().Month()),
	}

	estimate := base * factors.Trade * factors.Location * factors.Complexity * factors.Seasonality
	confidence := math.Min(confidenceCeiling, confidenceFloor+confidencePerJob*float64(len(amounts)))

	return schema.PricePrediction{
		JobID:          job.ID,
		EstimatedPrice: estimate,
		Confidence:     confidence,
		Factors:        factors,
		SampleSize:     len(amounts),
	}, nil
}

// historicalQuoteAmounts gathers the quote amounts placed on the similar
// jobs. A single job's quote lookup failing narrows the sample instead of
// failing the prediction.
func (p *Predictor) historicalQuoteAmounts(ctx context.Context, similar []schema.Job) []float64 {
	var amounts []float64
	for _, j := range similar {
		quotes, err := contract.Retry(ctx, p.cfg, func() ([]schema.Quote, error) {
			return p.store.GetQuotesByJob(ctx, j.ID)
		})
		if err != nil {
			p.log.Debug("skipping quotes for similar job",
				zap.Int64("job_id", j.ID), zap.Error(err))
			continue
		}
		for _, q := range quotes {
			amounts = append(amounts, q.Amount)
		}
	}
	return amounts
}

// tradeFactor is the ratio of the trade's mean completed cost to the
// marketwide mean completed cost; 1 when either side has no data.
func tradeFactor(jobs []schema.Job, tradeID int64) float64 {
	var tradeSum, allSum float64
	tradeN, allN := 0, 0
	for _, j := range jobs {
		if j.Status != schema.JobStatusCompleted || j.ActualCost <= 0 {
			continue
		}
		allSum += j.ActualCost
		allN++
		if j.TradeID == tradeID {
			tradeSum += j.ActualCost
			tradeN++
		}
	}
	if tradeN == 0 || allN == 0 {
		return 1
	}
	return (tradeSum / float64(tradeN)) / (allSum / float64(allN))
}

// locationFactor is the analogous ratio restricted to jobs sharing the same
// location string; 1 when there is no local history.
func locationFactor(jobs []schema.Job, location string) float64 {
	loc := strings.TrimSpace(strings.ToLower(location))
	if loc == "" {
		return 1
	}
	var localSum, allSum float64
	localN, allN := 0, 0
	for _, j := range jobs {
		if j.Status != schema.JobStatusCompleted || j.ActualCost <= 0 {
			continue
		}
		allSum += j.ActualCost
		allN++
		if strings.TrimSpace(strings.ToLower(j.Location)) == loc {
			localSum += j.ActualCost
			localN++
		}
	}
	if localN == 0 || allN == 0 {
		return 1
	}
	return (localSum / float64(localN)) / (allSum / float64(allN))
}

// complexityFactor adds 10% per complexity keyword found in the description.
func complexityFactor(description string) float64 {
	desc := strings.ToLower(description)
	factor := 1.0
	for _, kw := range complexityKeywords {
		if strings.Contains(desc, kw) {
			factor += 0.1
		}
	}
	return factor
}

// seasonalityFactor prices peak season (summer) and holiday season (winter)
// above the shoulder months.
func seasonalityFactor(month time.Month) float64 {
	switch month {
	case time.June, time.July, time.August:
		return 1.2
	case time.December, time.January, time.February:
		return 1.1
	default:
		return 1.0
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func meanCompletedCost(jobs []schema.Job) float64 {
	var sum float64
	n := 0
	for _, j := range jobs {
		if j.Status == schema.JobStatusCompleted && j.ActualCost > 0 {
			sum += j.ActualCost
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
