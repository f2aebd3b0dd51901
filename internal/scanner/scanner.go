// Package scanner enumerates an object store's buckets, fans the work out
// across a bounded worker pool, and runs the recommendation analyzers over
// each bucket's objects, lifecycle configuration, and in-flight multipart
// uploads.
package scanner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
)

// Scanner runs the scan pipeline against a Client using the thresholds and
// pricing table it was built with.
type Scanner struct {
	client     objectstore.Client
	thresholds config.ScannerThresholds
	pricing    config.PricingConfig
	now        func() time.Time
}

// New builds a Scanner. now defaults to time.Now when nil; tests substitute
// a fixed clock so age-based thresholds are deterministic.
func New(client objectstore.Client, thresholds config.ScannerThresholds, pricing config.PricingConfig, now func() time.Time) *Scanner {
	if now == nil {
		now = time.Now
	}
	return &Scanner{client: client, thresholds: thresholds, pricing: pricing, now: now}
}

type bucketResult struct {
	bucket   string
	findings []models.Recommendation
	err      string
}

// Scan enumerates accessible buckets (after filters), analyzes each
// concurrently, deduplicates the findings, and stamps them with fresh IDs.
// It never returns a cloud error for a single bad bucket — those are
// captured in the returned error list instead.
func (s *Scanner) Scan(ctx context.Context, filters models.ScanFilters) ([]models.Recommendation, []string, error) {
	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list buckets: %w", err)
	}

	selected := filterBuckets(buckets, filters, s.thresholds.BucketPrefixSkipList)

	fanOut := s.thresholds.BucketFanOut
	if fanOut <= 0 {
		fanOut = 8
	}

	results := make([]bucketResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)

	for i, b := range selected {
		i, b := i, b
		g.Go(func() error {
			findings, scanErr := s.scanBucket(gctx, b)
			results[i] = bucketResult{bucket: b, findings: findings, err: scanErr}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var all []models.Recommendation
	var scanErrors []string
	for _, r := range results {
		all = append(all, r.findings...)
		if r.err != "" {
			scanErrors = append(scanErrors, r.err)
		}
	}

	deduped := dedupeFindings(all)
	for i := range deduped {
		deduped[i].ID = uuid.NewString()
	}
	return deduped, scanErrors, nil
}

func filterBuckets(buckets []objectstore.BucketInfo, filters models.ScanFilters, skipPrefixes []string) []string {
	include := toSet(filters.IncludeBuckets)
	exclude := toSet(filters.ExcludeBuckets)

	var out []string
	for _, b := range buckets {
		if len(include) > 0 && !include[b.Name] {
			continue
		}
		if exclude[b.Name] {
			continue
		}
		if hasAnyPrefix(b.Name, skipPrefixes) {
			continue
		}
		out = append(out, b.Name)
	}
	return out
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, i := range items {
		set[i] = true
	}
	return set
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// scanBucket reads the bucket's lifecycle configuration, object list, and
// multipart uploads, then runs every analyzer over them. It returns a
// human-readable error string (not a Go error) on bucket-level failure so
// the caller can attach it to the run without aborting the whole scan.
func (s *Scanner) scanBucket(ctx context.Context, bucket string) ([]models.Recommendation, string) {
	now := s.now()

	objs, err := s.client.ListObjects(ctx, bucket, s.thresholds.MaxObjectsPerBucket)
	if err != nil {
		if objectstore.KindOf(err) == objectstore.NotFound {
			return nil, fmt.Sprintf("bucket %s: not found, skipped", bucket)
		}
		objs, err = retryOnce(func() ([]objectstore.ObjectInfo, error) {
			return s.client.ListObjects(ctx, bucket, s.thresholds.MaxObjectsPerBucket)
		})
		if err != nil {
			return nil, fmt.Sprintf("bucket %s: list objects failed: %v", bucket, err)
		}
	}

	rules, err := s.client.GetLifecycle(ctx, bucket)
	if err != nil && objectstore.KindOf(err) != objectstore.AccessDenied {
		rules, err = retryOnce(func() ([]objectstore.LifecycleRule, error) {
			return s.client.GetLifecycle(ctx, bucket)
		})
		if err != nil {
			rules = nil
		}
	}

	uploads, err := s.client.ListMultipartUploads(ctx, bucket, "")
	if err != nil && objectstore.KindOf(err) != objectstore.AccessDenied {
		uploads, err = retryOnce(func() ([]objectstore.MultipartUpload, error) {
			return s.client.ListMultipartUploads(ctx, bucket, "")
		})
		if err != nil {
			uploads = nil
		}
	}

	var findings []models.Recommendation
	var totalSize int64
	for _, o := range objs {
		totalSize += o.Size
		findings = append(findings, analyzeStorageClass(bucket, o, s.thresholds, s.pricing, now)...)
		findings = append(findings, analyzeAccessPatternObject(bucket, o, s.thresholds, s.pricing, now)...)
	}
	findings = append(findings, analyzeAccessPatternPrefix(bucket, objs, s.thresholds, s.pricing, now)...)
	findings = append(findings, analyzeLifecycle(bucket, totalSize, rules, s.pricing)...)
	findings = append(findings, analyzeMultipart(bucket, uploads, s.thresholds, s.pricing, now)...)

	return findings, ""
}

func retryOnce[T any](fn func() (T, error)) (T, error) {
	v, err := fn()
	if err == nil {
		return v, nil
	}
	return fn()
}

// dedupeFindings drops duplicates keyed by (bucket, key, type), keeping the
// first emission. Per-object rules are appended before prefix-aggregate
// rules in scanBucket, so ties naturally favor the per-object finding.
func dedupeFindings(findings []models.Recommendation) []models.Recommendation {
	seen := make(map[string]bool, len(findings))
	out := make([]models.Recommendation, 0, len(findings))
	for _, f := range findings {
		key := findingKey(f)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, f)
	}
	return out
}

func findingKey(f models.Recommendation) string {
	key := ""
	if f.Key != nil {
		key = *f.Key
	}
	return f.Bucket + "\x00" + key + "\x00" + string(f.Type)
}
