package scoring

import (
	"math"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
)

const gib = 1024 * 1024 * 1024

// EstimateSavings computes the per-recommendation SavingsEstimate using the
// type-specific cost model.
func EstimateSavings(rec models.Recommendation, pricing config.PricingConfig) models.SavingsEstimate {
	switch rec.Type {
	case models.ChangeStorageClass:
		return estimateChangeStorageClass(rec, pricing)
	case models.AddLifecyclePolicy:
		return estimateAddLifecyclePolicy(rec, pricing)
	case models.DeleteIncompleteUpload:
		return estimateDeleteIncompleteUpload(rec, pricing)
	default: // DeleteStaleObject, DeleteOldVersion
		return estimateDelete(rec, pricing)
	}
}

func estimateChangeStorageClass(rec models.Recommendation, pricing config.PricingConfig) models.SavingsEstimate {
	fromClass := config.Standard
	if rec.StorageClass != nil {
		fromClass = *rec.StorageClass
	}
	toClass := ""
	if rec.TargetStorageClass != nil {
		toClass = *rec.TargetStorageClass
	}

	sizeGB := float64(rec.SizeBytes) / gib
	current := sizeGB * pricing.Rate(fromClass)
	projected := sizeGB * pricing.Rate(toClass)
	savings := math.Max(0, current-projected)
	transitionCost := pricing.TransitionRate(toClass) / 1000

	var minDurationRisk float64
	if minDays, ok := pricing.MinDurationDays(toClass); ok {
		minDurationRisk = projected * (float64(minDays) / 30)
	}

	var breakEvenDays *int
	if savings > 0 {
		d := int(math.Floor(transitionCost / savings * 30))
		breakEvenDays = &d
	}

	confidence := "low"
	switch {
	case rec.LastModified != nil && rec.SizeBytes > 0:
		confidence = "high"
	case rec.SizeBytes > 0:
		confidence = "medium"
	}

	netFirstMonth := savings - transitionCost
	return models.SavingsEstimate{
		RecommendationID:     rec.ID,
		CurrentMonthlyCost:   current,
		ProjectedMonthlyCost: projected,
		MonthlySavings:       savings,
		TransitionCost:       transitionCost,
		MinDurationRisk:      minDurationRisk,
		NetFirstMonth:        netFirstMonth,
		NetAnnual:            savings*12 - transitionCost,
		BreakEvenDays:        breakEvenDays,
		Confidence:           confidence,
		Assumptions:          []string{"rate table is current", "no early-deletion penalty beyond minimum-duration risk"},
	}
}

func estimateAddLifecyclePolicy(rec models.Recommendation, pricing config.PricingConfig) models.SavingsEstimate {
	sizeGB := float64(rec.SizeBytes) / gib
	var projected, current float64
	if rec.SizeBytes > 0 {
		current = sizeGB * pricing.Rate(config.Standard)
		projected = 0.7*sizeGB*pricing.Rate(config.Standard) + 0.3*sizeGB*pricing.Rate(config.GlacierInstantRetrieval)
	} else {
		current = rec.EstimatedMonthlySavings
		projected = 0
	}
	savings := math.Max(0, current-projected)
	return models.SavingsEstimate{
		RecommendationID:     rec.ID,
		CurrentMonthlyCost:   current,
		ProjectedMonthlyCost: projected,
		MonthlySavings:       savings,
		NetFirstMonth:        savings,
		NetAnnual:            savings * 12,
		Confidence:           "low",
		Assumptions:          []string{"assumes 30% of bucket contents migrate to GLACIER_IR under the new policy"},
	}
}

func estimateDeleteIncompleteUpload(rec models.Recommendation, pricing config.PricingConfig) models.SavingsEstimate {
	rate := pricing.Rate(config.Standard)
	sizeGB := float64(rec.SizeBytes) / gib
	if rec.SizeBytes == 0 {
		sizeGB = 0.01
	}
	current := sizeGB * rate
	confidence := "low"
	if rec.SizeBytes > 0 {
		confidence = "medium"
	}
	return models.SavingsEstimate{
		RecommendationID:     rec.ID,
		CurrentMonthlyCost:   current,
		ProjectedMonthlyCost: 0,
		MonthlySavings:       current,
		NetFirstMonth:        current,
		NetAnnual:            current * 12,
		Confidence:           confidence,
		Assumptions:          []string{"incomplete-upload part sizes are estimates absent an explicit parts listing"},
	}
}

func estimateDelete(rec models.Recommendation, pricing config.PricingConfig) models.SavingsEstimate {
	class := config.Standard
	if rec.StorageClass != nil {
		class = *rec.StorageClass
	}
	current := float64(rec.SizeBytes) / gib * pricing.Rate(class)
	confidence := "medium"
	if rec.SizeBytes > 0 {
		confidence = "high"
	}
	return models.SavingsEstimate{
		RecommendationID:     rec.ID,
		CurrentMonthlyCost:   current,
		ProjectedMonthlyCost: 0,
		MonthlySavings:       current,
		NetFirstMonth:        current,
		NetAnnual:            current * 12,
		Confidence:           confidence,
		Assumptions:          []string{"object is permanently removed, no retrieval cost modeled"},
	}
}

// Summarize aggregates per-recommendation savings into the overall
// SavingsSummary. Confidence counts bucket each estimate's own confidence
// tag, not the risk scorer's confidence_level; the two are independent
// axes, one on the cost model and one on the risk model.
func Summarize(savingsDetails []models.SavingsEstimate) models.SavingsSummary {
	summary := models.SavingsSummary{RecommendationCount: len(savingsDetails)}
	for _, s := range savingsDetails {
		summary.TotalMonthlySavings += s.MonthlySavings
		summary.TotalAnnualSavings += s.NetAnnual
		summary.TotalTransitionCost += s.TransitionCost
		summary.TotalNetFirstMonth += s.NetFirstMonth

		switch s.Confidence {
		case "high":
			summary.HighConfidenceCount++
		case "medium":
			summary.MediumConfidenceCount++
		default:
			summary.LowConfidenceCount++
		}
	}
	return summary
}
