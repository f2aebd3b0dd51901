package scanner

import (
	"strings"
	"time"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
)

// glacierVariants are storage classes the storage-class analyzer treats as
// "already archived" — no further CHANGE_STORAGE_CLASS recommendation is
// useful once an object is in one of these.
var glacierVariants = map[string]bool{
	config.GlacierInstantRetrieval: true,
	config.Glacier:                 true,
	config.DeepArchive:             true,
}

func daysSince(now time.Time, t time.Time) int {
	if t.IsZero() {
		return -1
	}
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d.Hours() / 24)
}

// analyzeStorageClass implements the storage-class analyzer: a stale,
// STANDARD-class object old enough gets a GLACIER_IR recommendation; a
// merely-large not-yet-stale one gets a zero-savings nudge toward
// INTELLIGENT_TIERING. The stale rule always wins when both would fire.
func analyzeStorageClass(bucket string, obj objectstore.ObjectInfo, thresholds config.ScannerThresholds, pricing config.PricingConfig, now time.Time) []models.Recommendation {
	if glacierVariants[obj.StorageClass] {
		return nil
	}
	if obj.StorageClass != config.Standard && obj.StorageClass != "" {
		return nil
	}
	if obj.Size < thresholds.MinObjectBytesToScore {
		return nil
	}
	age := daysSince(now, obj.LastModified)
	lastModified := obj.LastModified

	if age >= thresholds.StaleDays {
		target := config.GlacierInstantRetrieval
		savings := pricing.MonthlySavings(obj.Size, config.Standard, target)
		return []models.Recommendation{{
			Bucket:                  bucket,
			Key:                     strPtr(obj.Key),
			Type:                    models.ChangeStorageClass,
			RiskLevel:               models.RiskMedium,
			Reason:                  "object has not been modified in over the stale-days threshold",
			RecommendedAction:       "transition to " + target,
			EstimatedMonthlySavings: savings,
			SizeBytes:               obj.Size,
			StorageClass:            strPtr(obj.StorageClass),
			LastModified:            timePtr(lastModified),
			TargetStorageClass:      strPtr(target),
		}}
	}

	if obj.Size >= thresholds.LargeObjectBytes && age >= 30 && age < thresholds.StaleDays {
		target := config.IntelligentTiering
		return []models.Recommendation{{
			Bucket:                  bucket,
			Key:                     strPtr(obj.Key),
			Type:                    models.ChangeStorageClass,
			RiskLevel:               models.RiskLow,
			Reason:                  "large object with infrequent recent access, not yet stale",
			RecommendedAction:       "transition to " + target,
			EstimatedMonthlySavings: 0,
			SizeBytes:               obj.Size,
			StorageClass:            strPtr(obj.StorageClass),
			LastModified:            timePtr(lastModified),
			TargetStorageClass:      strPtr(target),
		}}
	}
	return nil
}

// analyzeAccessPatternObject implements the per-object half of the
// access-pattern analyzer.
func analyzeAccessPatternObject(bucket string, obj objectstore.ObjectInfo, thresholds config.ScannerThresholds, pricing config.PricingConfig, now time.Time) []models.Recommendation {
	age := daysSince(now, obj.LastModified)
	if age < thresholds.VeryStaleDays {
		return nil
	}
	class := obj.StorageClass
	if class == "" {
		class = config.Standard
	}
	return []models.Recommendation{{
		Bucket:                  bucket,
		Key:                     strPtr(obj.Key),
		Type:                    models.DeleteStaleObject,
		RiskLevel:               models.RiskHigh,
		Reason:                  "object has not been modified in over the very-stale-days threshold",
		RecommendedAction:       "delete object",
		EstimatedMonthlySavings: pricing.MonthlySavings(obj.Size, class, ""),
		SizeBytes:               obj.Size,
		StorageClass:            strPtr(class),
		LastModified:            timePtr(obj.LastModified),
	}}
}

// analyzeAccessPatternPrefix implements the prefix-aggregation half of the
// access-pattern analyzer: groups objects by their first path segment and
// emits one finding per qualifying prefix.
func analyzeAccessPatternPrefix(bucket string, objs []objectstore.ObjectInfo, thresholds config.ScannerThresholds, pricing config.PricingConfig, now time.Time) []models.Recommendation {
	type group struct {
		count      int
		totalSize  int64
		newestMod  time.Time
		classCount map[string]int
	}
	groups := map[string]*group{}
	for _, o := range objs {
		prefix := firstSegment(o.Key)
		if prefix == "" {
			continue
		}
		g, ok := groups[prefix]
		if !ok {
			g = &group{classCount: map[string]int{}}
			groups[prefix] = g
		}
		g.count++
		g.totalSize += o.Size
		if o.LastModified.After(g.newestMod) {
			g.newestMod = o.LastModified
		}
		class := o.StorageClass
		if class == "" {
			class = config.Standard
		}
		g.classCount[class]++
	}

	var recs []models.Recommendation
	for prefix, g := range groups {
		if g.count < thresholds.PrefixAggregationMinCount {
			continue
		}
		age := daysSince(now, g.newestMod)
		if age < thresholds.PrefixAggregationStaleDays {
			continue
		}
		dominant := config.Standard
		best := -1
		for class, n := range g.classCount {
			if n > best {
				best = n
				dominant = class
			}
		}
		recs = append(recs, models.Recommendation{
			Bucket:                  bucket,
			Key:                     strPtr(prefix + "/"),
			Type:                    models.DeleteStaleObject,
			RiskLevel:               models.RiskHigh,
			Reason:                  "prefix of stale objects eligible for aggregate cleanup",
			RecommendedAction:       "delete objects under prefix",
			EstimatedMonthlySavings: pricing.MonthlySavings(g.totalSize, dominant, ""),
			SizeBytes:               g.totalSize,
			StorageClass:            strPtr(dominant),
			LastModified:            timePtr(g.newestMod),
		})
	}
	return recs
}

func firstSegment(key string) string {
	idx := strings.Index(key, "/")
	if idx <= 0 {
		return ""
	}
	return key[:idx]
}

// analyzeLifecycle implements the bucket-level lifecycle analyzer.
func analyzeLifecycle(bucket string, totalSize int64, rules []objectstore.LifecycleRule, pricing config.PricingConfig) []models.Recommendation {
	const hundredMB = 100 * 1024 * 1024
	if totalSize < hundredMB {
		return nil
	}
	if len(rules) == 0 {
		return []models.Recommendation{{
			Bucket:                  bucket,
			Type:                    models.AddLifecyclePolicy,
			RiskLevel:               models.RiskLow,
			Reason:                  "bucket has no lifecycle configuration",
			RecommendedAction:       "add a lifecycle policy",
			EstimatedMonthlySavings: 0.10 * pricing.Rate(config.Standard) * float64(totalSize) / (1024 * 1024 * 1024),
			SizeBytes:               totalSize,
		}}
	}

	var recs []models.Recommendation
	hasAbortIncomplete := false
	hasTransitions := false
	for _, r := range rules {
		if !r.Enabled {
			continue
		}
		if r.AbortIncompleteUploadDays > 0 {
			hasAbortIncomplete = true
		}
		if r.TransitionStorageClass != "" {
			hasTransitions = true
		}
	}
	if !hasAbortIncomplete {
		recs = append(recs, models.Recommendation{
			Bucket:                  bucket,
			Type:                    models.AddLifecyclePolicy,
			RiskLevel:               models.RiskLow,
			Reason:                  "lifecycle configuration has no abort-incomplete-multipart-upload rule",
			RecommendedAction:       "add an abort-incomplete-multipart-upload rule",
			EstimatedMonthlySavings: 0,
			SizeBytes:               totalSize,
		})
	}
	if !hasTransitions && totalSize > 1024*1024*1024 {
		recs = append(recs, models.Recommendation{
			Bucket:                  bucket,
			Type:                    models.AddLifecyclePolicy,
			RiskLevel:               models.RiskLow,
			Reason:                  "lifecycle configuration has no storage-class transition rule",
			RecommendedAction:       "add a storage-class transition rule",
			EstimatedMonthlySavings: 0.30 * pricing.Rate(config.Standard) * float64(totalSize) / (1024 * 1024 * 1024),
			SizeBytes:               totalSize,
		})
	}
	return recs
}

// analyzeMultipart implements the bucket-level multipart analyzer.
func analyzeMultipart(bucket string, uploads []objectstore.MultipartUpload, thresholds config.ScannerThresholds, pricing config.PricingConfig, now time.Time) []models.Recommendation {
	var recs []models.Recommendation
	for _, u := range uploads {
		age := daysSince(now, u.Initiated)
		if age < thresholds.MultipartAgeDays {
			continue
		}
		recs = append(recs, models.Recommendation{
			Bucket:                  bucket,
			Key:                     strPtr(u.Key),
			Type:                    models.DeleteIncompleteUpload,
			RiskLevel:               models.RiskLow,
			Reason:                  "incomplete multipart upload older than the multipart-age threshold",
			RecommendedAction:       "abort incomplete multipart upload",
			EstimatedMonthlySavings: 0,
			SizeBytes:               0,
			LastModified:            timePtr(u.Initiated),
		})
	}
	return recs
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
