// Package scoring implements the weighted multi-factor risk model: pure,
// deterministic functions from a Recommendation to a RiskScore and a
// SavingsEstimate. Nothing in this package performs I/O.
package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
)

var reversibilityByType = map[models.RecommendationType]float64{
	models.ChangeStorageClass:     90,
	models.AddLifecyclePolicy:     100,
	models.DeleteIncompleteUpload: 100,
	models.DeleteOldVersion:       70,
	models.DeleteStaleObject:      0,
}

var dataLossRiskByType = map[models.RecommendationType]float64{
	models.DeleteStaleObject:      100,
	models.DeleteOldVersion:       60,
	models.DeleteIncompleteUpload: 10,
	models.ChangeStorageClass:     5,
	models.AddLifecyclePolicy:     0,
}

func reversibilityScore(t models.RecommendationType) float64 { return reversibilityByType[t] }
func dataLossRiskScore(t models.RecommendationType) float64  { return dataLossRiskByType[t] }

// ageConfidenceScore is stepwise on days since last modification; unknown
// age (no last_modified) scores 35.
func ageConfidenceScore(daysSinceModified int) float64 {
	switch {
	case daysSinceModified < 0:
		return 35
	case daysSinceModified >= 365:
		return 95
	case daysSinceModified >= 180:
		return 80
	case daysSinceModified >= 90:
		return 65
	case daysSinceModified >= 30:
		return 45
	default:
		return 25
	}
}

// sizeImpactScore is stepwise on object size in GB.
func sizeImpactScore(sizeBytes int64) float64 {
	gb := float64(sizeBytes) / (1024 * 1024 * 1024)
	switch {
	case gb >= 100:
		return 100
	case gb >= 10:
		return 80
	case gb >= 1:
		return 60
	case gb >= 0.1:
		return 35
	default:
		return 15
	}
}

var coldKeywords = []string{"cold", "stale", "infrequent"}

// accessConfidenceScore starts from whether last_modified is known, then
// adds 10 if the reason text signals a cold-access pattern.
func accessConfidenceScore(hasLastModified bool, reason string) float64 {
	score := 35.0
	if hasLastModified {
		score = 50.0
	}
	lower := strings.ToLower(reason)
	for _, kw := range coldKeywords {
		if strings.Contains(lower, kw) {
			score += 10
			break
		}
	}
	if score > 100 {
		score = 100
	}
	return score
}

func computeFactors(rec models.Recommendation, now time.Time) models.FactorScores {
	days := rec.DaysSince(now)
	return models.FactorScores{
		Reversibility:    reversibilityScore(rec.Type),
		DataLossRisk:     dataLossRiskScore(rec.Type),
		AgeConfidence:    ageConfidenceScore(days),
		SizeImpact:       sizeImpactScore(rec.SizeBytes),
		AccessConfidence: accessConfidenceScore(rec.LastModified != nil, rec.Reason),
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func roundClamp(v float64) float64 {
	return clamp(math.Round(v))
}

// Config bundles the pricing table the savings calculators need alongside
// the pure factor model.
type Config struct {
	Pricing config.PricingConfig
}
