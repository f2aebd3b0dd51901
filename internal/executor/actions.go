package executor

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
)

// preChangeState captures the pre-action state required to roll back rec's type,
// used both to decide how to perform the action and to let rollback invert
// it later.
func preChangeState(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	switch rec.Type {
	case models.ChangeStorageClass:
		return preStateChangeStorageClass(ctx, client, rec)
	case models.AddLifecyclePolicy:
		return preStateAddLifecyclePolicy(ctx, client, rec)
	case models.DeleteIncompleteUpload:
		return preStateDeleteIncompleteUpload(ctx, client, rec)
	case models.DeleteStaleObject:
		return preStateDeleteStaleObject(ctx, client, rec)
	default:
		return map[string]interface{}{}, nil
	}
}

func preStateChangeStorageClass(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	key := keyOf(rec)
	meta, err := client.HeadObject(ctx, rec.Bucket, key)
	if err != nil {
		return nil, err
	}
	tags, err := client.GetObjectTags(ctx, rec.Bucket, key)
	if err != nil {
		tags = nil
	}
	return map[string]interface{}{
		"bucket":        rec.Bucket,
		"key":           key,
		"storage_class": meta.StorageClass,
		"size_bytes":    meta.Size,
		"etag":          meta.ETag,
		"last_modified": meta.LastModified,
		"tags":          tags,
	}, nil
}

func preStateAddLifecyclePolicy(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	rules, err := client.GetLifecycle(ctx, rec.Bucket)
	if err != nil && objectstore.KindOf(err) != objectstore.NotFound {
		return nil, err
	}
	state := map[string]interface{}{"bucket": rec.Bucket}
	if len(rules) == 0 {
		state["existing_lifecycle_rules"] = nil
	} else {
		state["existing_lifecycle_rules"] = rules
	}
	return state, nil
}

func preStateDeleteIncompleteUpload(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	key := keyOf(rec)
	uploads, err := client.ListMultipartUploads(ctx, rec.Bucket, key)
	if err != nil {
		return nil, err
	}
	var uploadIDs []string
	for _, u := range uploads {
		if u.Key == key {
			uploadIDs = append(uploadIDs, u.UploadID)
		}
	}
	return map[string]interface{}{
		"bucket":     rec.Bucket,
		"key":        key,
		"upload_ids": uploadIDs,
	}, nil
}

func preStateDeleteStaleObject(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	key := keyOf(rec)
	meta, err := client.HeadObject(ctx, rec.Bucket, key)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bucket":        rec.Bucket,
		"key":           key,
		"size_bytes":    meta.Size,
		"storage_class": meta.StorageClass,
		"last_modified": meta.LastModified,
		"warning":       "irreversible deletion",
	}, nil
}

// performAction executes the live mutation for rec's type and returns the
// synthesized post_change_state.
func performAction(ctx context.Context, client objectstore.Client, rec models.Recommendation, pre map[string]interface{}) (map[string]interface{}, error) {
	switch rec.Type {
	case models.ChangeStorageClass:
		return performChangeStorageClass(ctx, client, rec)
	case models.AddLifecyclePolicy:
		return performAddLifecyclePolicy(ctx, client, rec, pre)
	case models.DeleteIncompleteUpload:
		return performDeleteIncompleteUpload(ctx, client, rec, pre)
	case models.DeleteStaleObject:
		return performDeleteStaleObject(ctx, client, rec)
	default:
		return nil, fmt.Errorf("no action verb for type %s", rec.Type)
	}
}

func performChangeStorageClass(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	key := keyOf(rec)
	target := config.GlacierInstantRetrieval
	if rec.TargetStorageClass != nil {
		target = *rec.TargetStorageClass
	}
	if err := client.CopySelfWithClass(ctx, rec.Bucket, key, target); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bucket":        rec.Bucket,
		"key":           key,
		"storage_class": target,
	}, nil
}

// lifecycleRuleIDArchive and lifecycleRuleIDAbort are the stable rule IDs
// the executor writes, so a second run merges onto the same rules instead
// of appending duplicates.
const (
	lifecycleRuleIDArchive = "coldstore-archive-90d"
	lifecycleRuleIDAbort   = "coldstore-abort-multipart-7d"
)

func performAddLifecyclePolicy(ctx context.Context, client objectstore.Client, rec models.Recommendation, pre map[string]interface{}) (map[string]interface{}, error) {
	var existing []objectstore.LifecycleRule
	if raw, ok := pre["existing_lifecycle_rules"].([]objectstore.LifecycleRule); ok {
		existing = raw
	}

	byID := map[string]objectstore.LifecycleRule{}
	for _, r := range existing {
		byID[r.ID] = r
	}
	byID[lifecycleRuleIDArchive] = objectstore.LifecycleRule{
		ID: lifecycleRuleIDArchive, Enabled: true,
		TransitionDays: 90, TransitionStorageClass: config.GlacierInstantRetrieval,
	}
	byID[lifecycleRuleIDAbort] = objectstore.LifecycleRule{
		ID: lifecycleRuleIDAbort, Enabled: true, AbortIncompleteUploadDays: 7,
	}

	merged := make([]objectstore.LifecycleRule, 0, len(byID))
	for _, r := range byID {
		merged = append(merged, r)
	}

	if err := client.PutLifecycle(ctx, rec.Bucket, merged); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bucket":     rec.Bucket,
		"rule_count": len(merged),
		"rule_ids":   []string{lifecycleRuleIDArchive, lifecycleRuleIDAbort},
	}, nil
}

func performDeleteIncompleteUpload(ctx context.Context, client objectstore.Client, rec models.Recommendation, pre map[string]interface{}) (map[string]interface{}, error) {
	key := keyOf(rec)
	var uploadIDs []string
	switch v := pre["upload_ids"].(type) {
	case []string:
		uploadIDs = v
	}
	for _, id := range uploadIDs {
		if err := client.AbortMultipartUpload(ctx, rec.Bucket, key, id); err != nil {
			return nil, err
		}
	}
	return map[string]interface{}{
		"bucket":        rec.Bucket,
		"key":           key,
		"aborted_count": strconv.Itoa(len(uploadIDs)),
	}, nil
}

const deletionMarkerTagKey = "coldstore-pending-deletion"

func performDeleteStaleObject(ctx context.Context, client objectstore.Client, rec models.Recommendation) (map[string]interface{}, error) {
	key := keyOf(rec)
	tags, err := client.GetObjectTags(ctx, rec.Bucket, key)
	if err != nil {
		tags = map[string]string{}
	}
	if tags == nil {
		tags = map[string]string{}
	}
	tags[deletionMarkerTagKey] = time.Now().UTC().Format(time.RFC3339)
	if err := client.PutObjectTags(ctx, rec.Bucket, key, tags); err != nil {
		return nil, err
	}
	if err := client.DeleteObject(ctx, rec.Bucket, key, ""); err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"bucket": rec.Bucket,
		"key":    key,
		"status": "deleted",
	}, nil
}

// dryRunPostState synthesizes the post_change_state a live run would have
// produced, without mutating anything.
func dryRunPostState(rec models.Recommendation) map[string]interface{} {
	key := keyOf(rec)
	switch rec.Type {
	case models.ChangeStorageClass:
		target := config.GlacierInstantRetrieval
		if rec.TargetStorageClass != nil {
			target = *rec.TargetStorageClass
		}
		return map[string]interface{}{"bucket": rec.Bucket, "key": key, "would_set_storage_class": target}
	case models.AddLifecyclePolicy:
		return map[string]interface{}{"bucket": rec.Bucket, "would_write_rule_ids": []string{lifecycleRuleIDArchive, lifecycleRuleIDAbort}}
	case models.DeleteIncompleteUpload:
		return map[string]interface{}{"bucket": rec.Bucket, "key": key, "would_abort_uploads": true}
	case models.DeleteStaleObject:
		return map[string]interface{}{"bucket": rec.Bucket, "key": key, "would_delete": true}
	default:
		return map[string]interface{}{}
	}
}

func keyOf(rec models.Recommendation) string {
	if rec.Key == nil {
		return ""
	}
	return *rec.Key
}
