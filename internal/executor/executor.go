// Package executor validates, gates, and carries out recommendations under
// admission control, recording one audit row per attempted action: evaluate
// eligibility, check permissions, act (or simulate), record.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coldstore/sentinel/internal/admission"
	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
)

// Executor carries out one ExecuteRequest against a run's recommendations
// and scores, producing an ExecuteResponse and its audit rows.
type Executor struct {
	client    objectstore.Client
	admission *admission.Engine
	policy    config.ExecutorPolicy
	now       func() time.Time
}

func New(client objectstore.Client, admissionEngine *admission.Engine, policy config.ExecutorPolicy, now func() time.Time) *Executor {
	if now == nil {
		now = time.Now
	}
	return &Executor{client: client, admission: admissionEngine, policy: policy, now: now}
}

// resolveMode implements the mode-resolution rule.
func resolveMode(req models.ExecuteRequest) (models.ExecutionMode, bool) {
	if req.Mode == models.ModeDryRun {
		return models.ModeDryRun, true
	}
	if req.DryRun != nil {
		return req.Mode, *req.DryRun
	}
	return req.Mode, false
}

// Execute carries out the per-action pipeline. recommendations and scores must
// belong to the same run; run.Scored() must already be true (the caller —
// the HTTP boundary — is responsible for the 409 when it is not).
func (e *Executor) Execute(ctx context.Context, req models.ExecuteRequest, run models.Run) models.ExecuteResponse {
	mode, dryRun := resolveMode(req)
	executionID := uuid.NewString()

	maxActions := req.MaxActions
	if maxActions <= 0 {
		maxActions = e.policy.MaxActions
	}

	resp := models.ExecuteResponse{
		ExecutionID: executionID,
		RunID:       run.RunID,
		Mode:        mode,
		DryRun:      dryRun,
	}

	failures := 0
	for i, rec := range run.Recommendations {
		if ctx.Err() != nil {
			break
		}

		if i >= maxActions {
			resp.Skipped++
			resp.ActionResults = append(resp.ActionResults, e.newAudit(executionID, run.RunID, rec, models.ActionSkipped,
				"max actions reached", nil, false, nil, nil))
			continue
		}

		score, hasScore := run.ScoreFor(rec.ID)
		if !hasScore {
			resp.Failed++
			resp.ActionResults = append(resp.ActionResults, e.newAudit(executionID, run.RunID, rec, models.ActionFailed,
				"Missing risk score", nil, false, nil, nil))
			failures++
			if e.failureThresholdReached(failures, &resp) {
				break
			}
			continue
		}

		if !e.modeEligible(mode, score) {
			resp.Skipped++
			resp.ActionResults = append(resp.ActionResults, e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionSkipped,
				"not eligible under "+string(mode)+" mode", nil, false, nil, nil, score.RequiresApproval))
			continue
		}
		resp.Eligible++

		if rec.Type == models.DeleteStaleObject && !e.policy.AllowDestructive {
			resp.Blocked++
			resp.ActionResults = append(resp.ActionResults, e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionBlocked,
				"set allow_destructive to enable", nil, false, nil, nil, score.RequiresApproval))
			continue
		}

		required := RequiredPermissionsFor(rec.Type)
		allowed, missing, err := e.admission.Evaluate(ctx, required)
		if err != nil {
			resp.Failed++
			resp.ActionResults = append(resp.ActionResults, e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionFailed,
				"admission evaluation error: "+err.Error(), required, false, nil, nil, score.RequiresApproval))
			failures++
			if e.failureThresholdReached(failures, &resp) {
				break
			}
			continue
		}
		if !allowed {
			resp.Blocked++
			audit := e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionBlocked,
				"missing required permissions", required, false, nil, nil, score.RequiresApproval)
			audit.MissingPermissions = missing
			resp.ActionResults = append(resp.ActionResults, audit)
			continue
		}

		if dryRun {
			post := dryRunPostState(rec)
			resp.Executed++
			resp.ActionResults = append(resp.ActionResults, e.newAuditSimulated(executionID, run.RunID, rec, models.ActionDryRun,
				"simulated", required, true, map[string]interface{}{}, post, score.RequiresApproval))
			continue
		}

		pre, err := preChangeState(ctx, e.client, rec)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s/%s: %v", rec.Bucket, keyOf(rec), err))
			resp.ActionResults = append(resp.ActionResults, e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionFailed,
				err.Error(), required, true, nil, pre, score.RequiresApproval))
			failures++
			if e.failureThresholdReached(failures, &resp) {
				break
			}
			e.sleepAfterFailure()
			continue
		}

		post, err := performAction(ctx, e.client, rec, pre)
		if err != nil {
			resp.Failed++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%s/%s: %v", rec.Bucket, keyOf(rec), err))
			resp.ActionResults = append(resp.ActionResults, e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionFailed,
				err.Error(), required, true, post, pre, score.RequiresApproval))
			failures++
			if e.failureThresholdReached(failures, &resp) {
				break
			}
			e.sleepAfterFailure()
			continue
		}

		resp.Executed++
		resp.ActionResults = append(resp.ActionResults, e.newAuditWithApproval(executionID, run.RunID, rec, models.ActionExecuted,
			"executed", required, true, post, pre, score.RequiresApproval))
		e.sleepBetweenActions()
	}

	return resp
}

func (e *Executor) modeEligible(mode models.ExecutionMode, score models.RiskScore) bool {
	switch mode {
	case models.ModeDryRun, models.ModeFull:
		return true
	case models.ModeSafe:
		return score.SafeToAutomate
	case models.ModeStandard:
		return !score.RequiresApproval
	default:
		return false
	}
}

func (e *Executor) failureThresholdReached(failures int, resp *models.ExecuteResponse) bool {
	if e.policy.MaxFailures > 0 && failures >= e.policy.MaxFailures {
		resp.Errors = append(resp.Errors, fmt.Sprintf("stopped: exceeded %d failures", e.policy.MaxFailures))
		return true
	}
	return false
}

func (e *Executor) sleepBetweenActions() {
	if e.policy.DelayBetweenActions > 0 {
		time.Sleep(e.policy.DelayBetweenActions)
	}
}

func (e *Executor) sleepAfterFailure() {
	if e.policy.DelayAfterFailure > 0 {
		time.Sleep(e.policy.DelayAfterFailure)
	}
}

func (e *Executor) newAudit(executionID, runID string, rec models.Recommendation, status models.ActionStatus, message string, required []string, permitted bool, post, pre map[string]interface{}) models.ExecutionAuditRecord {
	return e.newAuditWithApproval(executionID, runID, rec, status, message, required, permitted, post, pre, false)
}

func (e *Executor) newAuditWithApproval(executionID, runID string, rec models.Recommendation, status models.ActionStatus, message string, required []string, permitted bool, post, pre map[string]interface{}, requiresApproval bool) models.ExecutionAuditRecord {
	rollbackAvailable := status == models.ActionExecuted && models.Reversible(rec.Type)
	rollbackStatus := models.RollbackNotApplicable
	if rollbackAvailable {
		rollbackStatus = models.RollbackPending
	}
	return models.ExecutionAuditRecord{
		AuditID:             uuid.NewString(),
		ExecutionID:         executionID,
		RunID:               runID,
		RecommendationID:    rec.ID,
		RecommendationType:  rec.Type,
		Bucket:              rec.Bucket,
		Key:                 rec.Key,
		ActionStatus:        status,
		Message:             message,
		RiskLevel:           rec.RiskLevel,
		RequiresApproval:    requiresApproval,
		Permitted:           permitted,
		RequiredPermissions: required,
		Simulated:           false,
		PreChangeState:      pre,
		PostChangeState:     post,
		RollbackAvailable:   rollbackAvailable,
		RollbackStatus:      rollbackStatus,
		CreatedAt:           e.now(),
	}
}

func (e *Executor) newAuditSimulated(executionID, runID string, rec models.Recommendation, status models.ActionStatus, message string, required []string, permitted bool, pre, post map[string]interface{}, requiresApproval bool) models.ExecutionAuditRecord {
	rec2 := e.newAuditWithApproval(executionID, runID, rec, status, message, required, permitted, post, pre, requiresApproval)
	rec2.Simulated = true
	rec2.RollbackAvailable = false
	rec2.RollbackStatus = models.RollbackNotApplicable
	return rec2
}
