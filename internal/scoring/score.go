package scoring

import (
	"fmt"
	"time"

	"github.com/coldstore/sentinel/internal/models"
)

const approvalRequiredBytesDefault = 10 * 1024 * 1024 * 1024

// ScoreOne computes the full RiskScore for a single recommendation.
// approvalRequiredBytes is the size threshold past which approval is always
// required, regardless of the computed risk score (config.ScannerThresholds.ApprovalRequiredBytes).
func ScoreOne(rec models.Recommendation, approvalRequiredBytes int64, now time.Time) models.RiskScore {
	if approvalRequiredBytes <= 0 {
		approvalRequiredBytes = approvalRequiredBytesDefault
	}
	factors := computeFactors(rec, now)

	riskRaw := (100-factors.Reversibility)*0.30 +
		factors.DataLossRisk*0.25 +
		(100-factors.AgeConfidence)*0.20 +
		factors.SizeImpact*0.15 +
		(100-factors.AccessConfidence)*0.10
	riskScore := roundClamp(riskRaw)

	confidenceRaw := (factors.Reversibility + factors.AgeConfidence + factors.AccessConfidence) / 3
	confidenceScore := roundClamp(confidenceRaw)

	impactScore := impactScoreFor(rec.EstimatedMonthlySavings)

	riskLevel := riskLevelFor(riskScore)
	confidenceLevel := confidenceLevelFor(confidenceScore)

	requiresApproval := riskScore >= 55 || rec.Type == models.DeleteStaleObject || rec.SizeBytes >= approvalRequiredBytes
	safeToAutomate := riskScore < 30 && confidenceScore >= 70 && rec.Type != models.DeleteStaleObject

	return models.RiskScore{
		RecommendationID:        rec.ID,
		RiskScore:               riskScore,
		ConfidenceScore:         confidenceScore,
		ImpactScore:             impactScore,
		RiskLevel:               riskLevel,
		ConfidenceLevel:         confidenceLevel,
		SafeToAutomate:          safeToAutomate,
		RequiresApproval:        requiresApproval,
		FactorScores:            factors,
		FactorExplanations:      explain(rec, factors),
		ExecutionRecommendation: executionRecommendation(safeToAutomate, requiresApproval, riskScore, confidenceScore),
	}
}

func impactScoreFor(monthlySavings float64) float64 {
	switch {
	case monthlySavings >= 100:
		return 100
	case monthlySavings >= 50:
		return 80
	case monthlySavings >= 10:
		return 60
	case monthlySavings >= 1:
		return 40
	default:
		return 20
	}
}

func riskLevelFor(riskScore float64) models.RiskLevel {
	switch {
	case riskScore < 30:
		return models.RiskLow
	case riskScore < 60:
		return models.RiskMedium
	default:
		return models.RiskHigh
	}
}

func confidenceLevelFor(confidenceScore float64) models.ConfidenceLevel {
	switch {
	case confidenceScore >= 70:
		return models.ConfidenceHigh
	case confidenceScore >= 50:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

func executionRecommendation(safeToAutomate, requiresApproval bool, riskScore, confidenceScore float64) string {
	switch {
	case safeToAutomate:
		return "Safe to automate."
	case requiresApproval && riskScore >= 70:
		return "Manual review required."
	case requiresApproval:
		return "Explicit approval required."
	case confidenceScore < 50:
		return "Collect more usage evidence."
	default:
		return "Include in validated execution batch."
	}
}

func explain(rec models.Recommendation, f models.FactorScores) []string {
	return []string{
		fmt.Sprintf("reversibility %.0f: %s is %s to reverse", f.Reversibility, rec.Type, reversibilityWord(f.Reversibility)),
		fmt.Sprintf("data loss risk %.0f for %s", f.DataLossRisk, rec.Type),
		fmt.Sprintf("age confidence %.0f based on days since last modification", f.AgeConfidence),
		fmt.Sprintf("size impact %.0f for %d bytes", f.SizeImpact, rec.SizeBytes),
		fmt.Sprintf("access confidence %.0f", f.AccessConfidence),
	}
}

func reversibilityWord(score float64) string {
	if score >= 70 {
		return "easy"
	}
	if score >= 30 {
		return "moderate"
	}
	return "hard"
}
