package scoring

import (
	"time"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
)

// Scorer wires the pure factor model and savings calculators together with
// the configuration they need (pricing table, approval-threshold bytes).
type Scorer struct {
	pricing               config.PricingConfig
	approvalRequiredBytes int64
	now                   func() time.Time
}

func New(pricing config.PricingConfig, approvalRequiredBytes int64, now func() time.Time) *Scorer {
	if now == nil {
		now = time.Now
	}
	return &Scorer{pricing: pricing, approvalRequiredBytes: approvalRequiredBytes, now: now}
}

// Score computes score(recommendations[]) -> (scores[],
// savings_details[], savings_summary). It is pure and deterministic.
func (s *Scorer) Score(recommendations []models.Recommendation) ([]models.RiskScore, []models.SavingsEstimate, models.SavingsSummary) {
	now := s.now()
	scores := make([]models.RiskScore, 0, len(recommendations))
	savingsDetails := make([]models.SavingsEstimate, 0, len(recommendations))

	for _, rec := range recommendations {
		scores = append(scores, ScoreOne(rec, s.approvalRequiredBytes, now))
		savingsDetails = append(savingsDetails, EstimateSavings(rec, s.pricing))
	}

	summary := Summarize(savingsDetails)
	return scores, savingsDetails, summary
}
