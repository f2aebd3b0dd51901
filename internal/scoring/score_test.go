package scoring

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
)

func fixedNow() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }

func TestDeleteStaleObjectAlwaysRequiresApprovalNeverSafe(t *testing.T) {
	rec := models.Recommendation{
		ID:           "r1",
		Type:         models.DeleteStaleObject,
		SizeBytes:    1,
		LastModified: timePtr(fixedNow().AddDate(-2, 0, 0)),
	}
	score := ScoreOne(rec, 10*1024*1024*1024, fixedNow())
	assert.True(t, score.RequiresApproval)
	assert.False(t, score.SafeToAutomate)
}

func TestLargeObjectForcesApprovalRegardlessOfRisk(t *testing.T) {
	rec := models.Recommendation{
		ID:           "r2",
		Type:         models.ChangeStorageClass,
		SizeBytes:    20 * 1024 * 1024 * 1024,
		LastModified: timePtr(fixedNow().AddDate(-1, 0, 0)),
	}
	score := ScoreOne(rec, 10*1024*1024*1024, fixedNow())
	assert.True(t, score.RequiresApproval)
}

func TestScoringIsPureAndDeterministic(t *testing.T) {
	rec := models.Recommendation{
		ID:           "r3",
		Type:         models.ChangeStorageClass,
		SizeBytes:    5 * 1024 * 1024 * 1024,
		LastModified: timePtr(fixedNow().AddDate(0, -6, 0)),
		Reason:       "cold and infrequently accessed",
	}
	first := ScoreOne(rec, 10*1024*1024*1024, fixedNow())
	second := ScoreOne(rec, 10*1024*1024*1024, fixedNow())
	assert.Equal(t, first, second)
}

func TestRiskLevelBoundaries(t *testing.T) {
	assert.Equal(t, models.RiskLow, riskLevelFor(29.9))
	assert.Equal(t, models.RiskMedium, riskLevelFor(30))
	assert.Equal(t, models.RiskMedium, riskLevelFor(59.9))
	assert.Equal(t, models.RiskHigh, riskLevelFor(60))
}

func TestConfidenceLevelBoundaries(t *testing.T) {
	assert.Equal(t, models.ConfidenceHigh, confidenceLevelFor(70))
	assert.Equal(t, models.ConfidenceMedium, confidenceLevelFor(50))
	assert.Equal(t, models.ConfidenceLow, confidenceLevelFor(49.9))
}

func TestAgeConfidenceStepFunction(t *testing.T) {
	assert.Equal(t, 95.0, ageConfidenceScore(400))
	assert.Equal(t, 80.0, ageConfidenceScore(200))
	assert.Equal(t, 65.0, ageConfidenceScore(100))
	assert.Equal(t, 45.0, ageConfidenceScore(40))
	assert.Equal(t, 25.0, ageConfidenceScore(5))
	assert.Equal(t, 35.0, ageConfidenceScore(-1))
}

func TestExecutionRecommendationPriority(t *testing.T) {
	assert.Equal(t, "Safe to automate.", executionRecommendation(true, true, 10, 90))
	assert.Equal(t, "Manual review required.", executionRecommendation(false, true, 70, 90))
	assert.Equal(t, "Explicit approval required.", executionRecommendation(false, true, 55, 90))
	assert.Equal(t, "Collect more usage evidence.", executionRecommendation(false, false, 10, 40))
	assert.Equal(t, "Include in validated execution batch.", executionRecommendation(false, false, 10, 60))
}

func TestChangeStorageClassSavingsScenarioA(t *testing.T) {
	pricing := config.PricingConfig{
		RatePerGBMonth: map[string]float64{
			config.Standard:                0.023,
			config.GlacierInstantRetrieval: 0.004,
		},
		TransitionRequestCost: map[string]float64{
			config.GlacierInstantRetrieval: 20.0,
		},
		MinimumStorageDurationDays: map[string]int{
			config.GlacierInstantRetrieval: 90,
		},
	}
	rec := models.Recommendation{
		ID:                 "r4",
		Type:               models.ChangeStorageClass,
		SizeBytes:          1073741824,
		StorageClass:       strPtrLocal(config.Standard),
		TargetStorageClass: strPtrLocal(config.GlacierInstantRetrieval),
		LastModified:       timePtr(fixedNow().AddDate(0, -4, 0)),
	}
	est := EstimateSavings(rec, pricing)
	assert.InDelta(t, 0.019, est.MonthlySavings, 0.0005)
	assert.Equal(t, "high", est.Confidence)
	require.NotNil(t, est.BreakEvenDays)
}

func TestDeleteIncompleteUploadZeroSizeUsesFallbackGB(t *testing.T) {
	pricing := config.PricingConfig{RatePerGBMonth: map[string]float64{config.Standard: 0.023}}
	rec := models.Recommendation{ID: "r5", Type: models.DeleteIncompleteUpload, SizeBytes: 0}
	est := EstimateSavings(rec, pricing)
	assert.InDelta(t, 0.00023, est.MonthlySavings, 1e-9)
	assert.Equal(t, "low", est.Confidence)
}

func TestSummarizeBucketsByEstimateConfidenceNotRiskConfidence(t *testing.T) {
	details := []models.SavingsEstimate{
		{RecommendationID: "a", Confidence: "high", MonthlySavings: 10},
		{RecommendationID: "b", Confidence: "medium", MonthlySavings: 5},
		{RecommendationID: "c", Confidence: "low", MonthlySavings: 1},
	}
	summary := Summarize(details)
	assert.Equal(t, 1, summary.HighConfidenceCount)
	assert.Equal(t, 1, summary.MediumConfidenceCount)
	assert.Equal(t, 1, summary.LowConfidenceCount)
	assert.InDelta(t, 16, summary.TotalMonthlySavings, 1e-9)
}

func timePtr(t time.Time) *time.Time { return &t }
func strPtrLocal(s string) *string   { return &s }
