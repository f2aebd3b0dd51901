package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coldstore/sentinel/internal/admission"
	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)
}

func newTestEngine(t *testing.T, granted ...string) *admission.Engine {
	t.Helper()
	eng, err := admission.New(context.Background(), granted)
	require.NoError(t, err)
	return eng
}

func changeClassRec(id, bucket, key string) models.Recommendation {
	target := config.GlacierInstantRetrieval
	return models.Recommendation{
		ID:                 id,
		Bucket:             bucket,
		Key:                &key,
		Type:               models.ChangeStorageClass,
		RiskLevel:          "LOW",
		TargetStorageClass: &target,
	}
}

func deleteStaleRec(id, bucket, key string) models.Recommendation {
	return models.Recommendation{
		ID:        id,
		Bucket:    bucket,
		Key:       &key,
		Type:      models.DeleteStaleObject,
		RiskLevel: "HIGH",
	}
}

func invariantCheck(t *testing.T, resp models.ExecuteResponse) {
	t.Helper()
	require.Equal(t, resp.Executed+resp.Skipped+resp.Blocked+resp.Failed, len(resp.ActionResults))
}

func TestMaxActionsGuardSkipsBeyondLimit(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{
		{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()},
		{Key: "b", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()},
	}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 1}, fixedNow)

	rec1 := changeClassRec("r1", "b", "a")
	rec2 := changeClassRec("r2", "b", "b")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec1, rec2},
		Scores: []models.RiskScore{
			{RecommendationID: "r1", SafeToAutomate: true},
			{RecommendationID: "r2", SafeToAutomate: true},
		},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Executed)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, models.ActionSkipped, resp.ActionResults[1].ActionStatus)
	invariantCheck(t, resp)
}

func TestMissingScoreFailsAction(t *testing.T) {
	client := objectstore.NewFakeClient()
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{RunID: "run1", Recommendations: []models.Recommendation{rec}}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Failed)
	require.Equal(t, models.ActionFailed, resp.ActionResults[0].ActionStatus)
	invariantCheck(t, resp)
}

func TestModeEligibilitySafeModeSkipsUnsafe(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", SafeToAutomate: false, RequiresApproval: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeSafe}, run)
	require.Equal(t, 1, resp.Skipped)
	require.Equal(t, models.ActionSkipped, resp.ActionResults[0].ActionStatus)
	require.True(t, resp.ActionResults[0].RequiresApproval)
	invariantCheck(t, resp)
}

func TestModeEligibilityStandardModeSkipsRequiresApproval(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", SafeToAutomate: false, RequiresApproval: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeStandard}, run)
	require.Equal(t, 1, resp.Skipped)
	invariantCheck(t, resp)
}

func TestDestructiveGuardBlocksDeleteWithoutPolicyFlag(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	eng := newTestEngine(t, "s3:GetObject", "s3:DeleteObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10, AllowDestructive: false}, fixedNow)

	rec := deleteStaleRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", RequiresApproval: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Blocked)
	require.Equal(t, models.ActionBlocked, resp.ActionResults[0].ActionStatus)
	require.True(t, resp.ActionResults[0].RequiresApproval)
	invariantCheck(t, resp)
}

func TestPermissionGuardBlocksWhenNotGranted(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	eng := newTestEngine(t, "s3:GetObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", SafeToAutomate: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Blocked)
	require.Equal(t, []string{"s3:PutObject"}, resp.ActionResults[0].MissingPermissions)
	invariantCheck(t, resp)
}

func TestDryRunDoesNotMutateAdapter(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", SafeToAutomate: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeDryRun}, run)
	require.Equal(t, 1, resp.Executed)
	require.True(t, resp.DryRun)
	require.Empty(t, client.CopyCalls)
	require.Equal(t, models.ActionDryRun, resp.ActionResults[0].ActionStatus)
	require.True(t, resp.ActionResults[0].Simulated)
	require.False(t, resp.ActionResults[0].RollbackAvailable)
	invariantCheck(t, resp)
}

func TestLiveSuccessStampsRollbackAvailable(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", SafeToAutomate: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Executed)
	require.Len(t, client.CopyCalls, 1)
	require.Equal(t, models.ActionExecuted, resp.ActionResults[0].ActionStatus)
	require.True(t, resp.ActionResults[0].RollbackAvailable)
	require.Equal(t, models.RollbackPending, resp.ActionResults[0].RollbackStatus)
	invariantCheck(t, resp)
}

func TestLiveFailurePerformActionRecordsFailedAudit(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()}}
	client.FailOn = func(op, bucket, key string) error {
		if op == "CopySelfWithClass" {
			return errors.New("simulated failure")
		}
		return nil
	}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10, MaxFailures: 5}, fixedNow)

	rec := changeClassRec("r1", "b", "a")
	run := models.Run{
		RunID:           "run1",
		Recommendations: []models.Recommendation{rec},
		Scores:          []models.RiskScore{{RecommendationID: "r1", SafeToAutomate: true}},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Failed)
	require.Equal(t, models.ActionFailed, resp.ActionResults[0].ActionStatus)
	require.False(t, resp.ActionResults[0].RollbackAvailable)
	invariantCheck(t, resp)
}

func TestFailureThresholdStopsEarly(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Objects["b"] = []objectstore.ObjectInfo{
		{Key: "a", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()},
		{Key: "c", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()},
		{Key: "d", Size: 10, StorageClass: objectstore.Standard, LastModified: fixedNow()},
	}
	client.FailOn = func(op, bucket, key string) error {
		if op == "HeadObject" {
			return errors.New("simulated failure")
		}
		return nil
	}
	eng := newTestEngine(t, "s3:GetObject", "s3:PutObject")
	e := New(client, eng, config.ExecutorPolicy{MaxActions: 10, MaxFailures: 1}, fixedNow)

	run := models.Run{
		RunID: "run1",
		Recommendations: []models.Recommendation{
			changeClassRec("r1", "b", "a"),
			changeClassRec("r2", "b", "c"),
			changeClassRec("r3", "b", "d"),
		},
		Scores: []models.RiskScore{
			{RecommendationID: "r1", SafeToAutomate: true},
			{RecommendationID: "r2", SafeToAutomate: true},
			{RecommendationID: "r3", SafeToAutomate: true},
		},
	}

	resp := e.Execute(context.Background(), models.ExecuteRequest{RunID: "run1", Mode: models.ModeFull}, run)
	require.Equal(t, 1, resp.Failed)
	require.Len(t, resp.ActionResults, 1)
	require.NotEmpty(t, resp.Errors)
}
