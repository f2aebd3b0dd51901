// Package rollback inverts executed actions recorded in the audit log. It
// mirrors the executor's per-record, audit-first shape but walks the
// opposite direction: instead of performing an action and writing a row, it
// reads a row and performs the action that undoes it.
package rollback

import (
	"context"

	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
)

// eligibleTypes are the only recommendation types the manager knows how to
// invert. DELETE_INCOMPLETE_UPLOAD and DELETE_STALE_OBJECT are irreversible
// by construction and never carry rollback_available=true.
var eligibleTypes = map[models.RecommendationType]bool{
	models.ChangeStorageClass: true,
	models.AddLifecyclePolicy: true,
}

// StatusUpdate is what the caller (pipeline glue, in practice the run
// store) should apply to one audit row after a rollback attempt.
type StatusUpdate struct {
	AuditID string
	Status  models.RollbackStatus
	Message string
}

// Manager carries out rollback against one external-resource client.
type Manager struct {
	client objectstore.Client
}

func New(client objectstore.Client) *Manager {
	return &Manager{client: client}
}

// Rollback inverts the given audit records. records must be the exact set the
// caller resolved from request (by execution_id or explicit audit_ids) and
// are processed in submission order. Rollback does not mutate records or
// the store itself; it returns the response plus the status updates the
// caller should apply to each audit row.
func (m *Manager) Rollback(ctx context.Context, req models.RollbackRequest, records []models.ExecutionAuditRecord) (models.RollbackResponse, []StatusUpdate) {
	resp := models.RollbackResponse{RunID: req.RunID}
	var updates []StatusUpdate

	for _, rec := range records {
		if ctx.Err() != nil {
			break
		}
		resp.Attempted++

		if !isEligible(rec) {
			resp.Skipped++
			resp.Results = append(resp.Results, models.RollbackResult{
				AuditID: rec.AuditID, Status: models.ActionSkipped, Message: "not eligible",
			})
			continue
		}

		if req.DryRun {
			resp.DryRunCount++
			resp.Results = append(resp.Results, models.RollbackResult{
				AuditID: rec.AuditID, Status: models.ActionDryRun, Message: "would roll back",
			})
			continue
		}

		err := m.invert(ctx, rec)
		if err != nil {
			resp.Failed++
			resp.Results = append(resp.Results, models.RollbackResult{
				AuditID: rec.AuditID, Status: models.ActionFailed, Message: err.Error(),
			})
			updates = append(updates, StatusUpdate{AuditID: rec.AuditID, Status: models.RollbackFailed, Message: err.Error()})
			if req.StopOnFailure {
				break
			}
			continue
		}

		resp.RolledBack++
		resp.Results = append(resp.Results, models.RollbackResult{
			AuditID: rec.AuditID, Status: models.ActionExecuted, Message: "rolled back",
		})
		updates = append(updates, StatusUpdate{AuditID: rec.AuditID, Status: models.RollbackRolledBack, Message: "rolled back"})
	}

	return resp, updates
}

func isEligible(rec models.ExecutionAuditRecord) bool {
	return rec.RollbackAvailable && rec.ActionStatus == models.ActionExecuted && eligibleTypes[rec.RecommendationType]
}

func (m *Manager) invert(ctx context.Context, rec models.ExecutionAuditRecord) error {
	switch rec.RecommendationType {
	case models.ChangeStorageClass:
		return m.invertChangeStorageClass(ctx, rec)
	case models.AddLifecyclePolicy:
		return m.invertAddLifecyclePolicy(ctx, rec)
	default:
		return nil
	}
}

func (m *Manager) invertChangeStorageClass(ctx context.Context, rec models.ExecutionAuditRecord) error {
	key := ""
	if rec.Key != nil {
		key = *rec.Key
	}
	original := config.Standard
	if v, ok := rec.PreChangeState["storage_class"].(string); ok && v != "" {
		original = v
	}

	if err := m.client.CopySelfWithClass(ctx, rec.Bucket, key, original); err != nil {
		if objectstore.KindOf(err) == objectstore.InvalidState {
			return &objectstore.Error{Kind: objectstore.InvalidState, Op: "Rollback", Bucket: rec.Bucket, Key: key, Message: "restore first"}
		}
		return err
	}
	return nil
}

func (m *Manager) invertAddLifecyclePolicy(ctx context.Context, rec models.ExecutionAuditRecord) error {
	existing, hadRules := rec.PreChangeState["existing_lifecycle_rules"]
	if !hadRules || existing == nil {
		return m.client.DeleteLifecycle(ctx, rec.Bucket)
	}

	rules, err := decodeLifecycleRules(existing)
	if err != nil {
		return err
	}
	return m.client.PutLifecycle(ctx, rec.Bucket, rules)
}

// decodeLifecycleRules tolerates both the in-process shape (the executor
// stored a []objectstore.LifecycleRule directly in pre_change_state) and
// the shape a JSON round-trip through the run store produces
// ([]interface{} of map[string]interface{}).
func decodeLifecycleRules(v interface{}) ([]objectstore.LifecycleRule, error) {
	switch rules := v.(type) {
	case []objectstore.LifecycleRule:
		return rules, nil
	case []interface{}:
		out := make([]objectstore.LifecycleRule, 0, len(rules))
		for _, raw := range rules {
			m, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			out = append(out, objectstore.LifecycleRule{
				ID:                          stringField(m, "ID", "id"),
				Prefix:                      stringField(m, "Prefix", "prefix"),
				Enabled:                     boolField(m, "Enabled", "enabled"),
				ExpirationDays:              intField(m, "ExpirationDays", "expiration_days"),
				NoncurrentVersionExpireDays: intField(m, "NoncurrentVersionExpireDays", "noncurrent_version_expire_days"),
				AbortIncompleteUploadDays:   intField(m, "AbortIncompleteUploadDays", "abort_incomplete_upload_days"),
				TransitionDays:              intField(m, "TransitionDays", "transition_days"),
				TransitionStorageClass:      stringField(m, "TransitionStorageClass", "transition_storage_class"),
			})
		}
		return out, nil
	default:
		return nil, nil
	}
}

func stringField(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok {
			return v
		}
	}
	return ""
}

func boolField(m map[string]interface{}, keys ...string) bool {
	for _, k := range keys {
		if v, ok := m[k].(bool); ok {
			return v
		}
	}
	return false
}

func intField(m map[string]interface{}, keys ...string) int {
	for _, k := range keys {
		switch v := m[k].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
	}
	return 0
}

// SelectRecords narrows all of a run's audit rows to the set a
// RollbackRequest targets: all rows for execution_id when set, else the
// explicit audit_ids, else every row for the run.
func SelectRecords(req models.RollbackRequest, all []models.ExecutionAuditRecord) []models.ExecutionAuditRecord {
	if req.ExecutionID != nil {
		var out []models.ExecutionAuditRecord
		for _, r := range all {
			if r.ExecutionID == *req.ExecutionID {
				out = append(out, r)
			}
		}
		return out
	}
	if len(req.AuditIDs) > 0 {
		want := make(map[string]bool, len(req.AuditIDs))
		for _, id := range req.AuditIDs {
			want[id] = true
		}
		var out []models.ExecutionAuditRecord
		for _, r := range all {
			if want[r.AuditID] {
				out = append(out, r)
			}
		}
		return out
	}
	return all
}
