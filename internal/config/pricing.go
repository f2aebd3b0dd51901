package config

import "math"

const gib = 1024 * 1024 * 1024

// StorageClass names recognized by the pricing table. These are plain
// strings, not a closed enum, because the object store can report classes
// this process doesn't have a rate for (new AWS storage classes, etc.) —
// callers treat a missing entry as "rate unknown" rather than a compile-time
// error.
const (
	Standard                = "STANDARD"
	IntelligentTiering      = "INTELLIGENT_TIERING"
	StandardIA              = "STANDARD_IA"
	OneZoneIA               = "ONEZONE_IA"
	GlacierInstantRetrieval = "GLACIER_IR"
	Glacier                 = "GLACIER"
	DeepArchive             = "DEEP_ARCHIVE"
)

// PricingConfig is the per-storage-class rate table plus the transition and
// minimum-duration tables keyed by target class. It is loaded once and never
// mutated; the monthly_savings helper and the scorer/executor both take it
// as a plain value.
type PricingConfig struct {
	// RatePerGBMonth maps a storage class to its per-GB-month rate in USD.
	RatePerGBMonth map[string]float64
	// TransitionRequestCost maps a target storage class to the per-1000-request
	// transition cost in USD.
	TransitionRequestCost map[string]float64
	// MinimumStorageDurationDays maps a target storage class to its minimum
	// billable storage duration in days, when one applies.
	MinimumStorageDurationDays map[string]int
}

func defaultPricingConfig() PricingConfig {
	return PricingConfig{
		RatePerGBMonth: map[string]float64{
			Standard:                0.023,
			IntelligentTiering:      0.0125,
			StandardIA:              0.0125,
			OneZoneIA:               0.01,
			GlacierInstantRetrieval: 0.004,
			Glacier:                 0.0036,
			DeepArchive:             0.00099,
		},
		TransitionRequestCost: map[string]float64{
			IntelligentTiering:      2.50,
			StandardIA:              10.0,
			OneZoneIA:               10.0,
			GlacierInstantRetrieval: 20.0,
			Glacier:                 30.0,
			DeepArchive:             30.0,
		},
		MinimumStorageDurationDays: map[string]int{
			StandardIA:              30,
			OneZoneIA:               30,
			GlacierInstantRetrieval: 90,
			Glacier:                 90,
			DeepArchive:             180,
		},
	}
}

// Rate returns the per-GB-month rate for class, or 0 if unknown.
func (p PricingConfig) Rate(class string) float64 {
	return p.RatePerGBMonth[class]
}

// TransitionRate returns the per-1000-request transition cost for the target
// class, or 0 if unknown.
func (p PricingConfig) TransitionRate(targetClass string) float64 {
	return p.TransitionRequestCost[targetClass]
}

// MinDurationDays returns the minimum billable storage duration in days for
// targetClass and whether one is defined at all.
func (p PricingConfig) MinDurationDays(targetClass string) (int, bool) {
	d, ok := p.MinimumStorageDurationDays[targetClass]
	return d, ok
}

// MonthlySavings computes the monthly savings of moving sizeBytes from
// fromClass to toClass, rounded to 4 decimal places.
func (p PricingConfig) MonthlySavings(sizeBytes int64, fromClass, toClass string) float64 {
	delta := p.Rate(fromClass) - p.Rate(toClass)
	savings := delta * float64(sizeBytes) / gib
	return math.Round(savings*10000) / 10000
}
