package core

import (
	"sort"

	"github.com/tradecrew/matchengine/internal/contract"
	"github.com/tradecrew/matchengine/schema"
)

// Tier thresholds relative to the configured maximum radius.
const (
	tierTopRating  = 4.5
	tierGoodRating = 4.0
	tierTopRadius  = 0.3
	tierGoodRadius = 0.6
)

// SelectDistribution partitions scored, in-radius contractors into
// quality/proximity tiers and performs fairness-rotation selection within
// each tier. It draws up to InitialBatchSize from the top tier, the same
// again from the good tier while capacity remains, and fills the rest from
// the remaining pool, capped at MaxContractors overall. The tiering is the
// load-balancing mechanism that keeps the same top-rated contractors from
// monopolizing all job leads.
func SelectDistribution(scores []schema.ContractorScore, cfg *contract.Config) []schema.ContractorScore {
	var top, good, rest []schema.ContractorScore

	for _, s := range scores {
		switch {
		case s.Contractor.Rating >= tierTopRating && s.DistanceKm <= tierTopRadius*cfg.MaxRadiusKm:
			s.Tier = schema.TierTop
			top = append(top, s)
		case s.Contractor.Rating >= tierGoodRating && s.DistanceKm <= tierGoodRadius*cfg.MaxRadiusKm:
			s.Tier = schema.TierGood
			good = append(good, s)
		default:
			s.Tier = schema.TierRest
			rest = append(rest, s)
		}
	}

	rotate(top)
	rotate(good)
	rotate(rest)

	selected := make([]schema.ContractorScore, 0, cfg.MaxContractors)
	selected = drawBatch(selected, top, cfg.InitialBatchSize, cfg.MaxContractors)
	selected = drawBatch(selected, good, cfg.InitialBatchSize, cfg.MaxContractors)
	selected = drawBatch(selected, rest, cfg.MaxContractors, cfg.MaxContractors)
	return selected
}

// rotate orders a tier for fairness: contractors who have not worked
// recently come first (zero LastJobAt, meaning never worked, is oldest of
// all), with score ties broken by higher match score and then by id for
// deterministic output.
func rotate(tier []schema.ContractorScore) {
	sort.Slice(tier, func(i, j int) bool {
		a, b := tier[i], tier[j]
		if !a.LastJobAt.Equal(b.LastJobAt) {
			return a.LastJobAt.Before(b.LastJobAt)
		}
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		return a.Contractor.ID < b.Contractor.ID
	})
}

// drawBatch appends up to batch entries from tier while staying under limit.
func drawBatch(selected, tier []schema.ContractorScore, batch, limit int) []schema.ContractorScore {
	for _, s := range tier {
		if len(selected) >= limit || batch <= 0 {
			break
		}
		selected = append(selected, s)
		batch--
	}
	return selected
}
