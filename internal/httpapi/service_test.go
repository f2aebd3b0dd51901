package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/coldstore/sentinel/internal/admission"
	"github.com/coldstore/sentinel/internal/config"
	"github.com/coldstore/sentinel/internal/executor"
	"github.com/coldstore/sentinel/internal/models"
	"github.com/coldstore/sentinel/internal/objectstore"
	"github.com/coldstore/sentinel/internal/rollback"
	"github.com/coldstore/sentinel/internal/scanner"
	"github.com/coldstore/sentinel/internal/scoring"
	"github.com/coldstore/sentinel/internal/store"
)

func fixedNow() time.Time {
	return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
}

func testPricing() config.PricingConfig {
	return config.PricingConfig{
		RatePerGBMonth: map[string]float64{
			config.Standard:                0.023,
			config.GlacierInstantRetrieval: 0.004,
		},
	}
}

func newTestService(t *testing.T, client *objectstore.FakeClient, granted []string, allowDestructive bool) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&store.RunRow{}, &store.AuditRow{}))
	st := store.New(db)

	thresholds := config.ScannerThresholds{
		StaleDays: 90, VeryStaleDays: 365, MinObjectBytesToScore: 1024, BucketFanOut: 4,
		ApprovalRequiredBytes: 10 * 1024 * 1024 * 1024,
	}
	sc := scanner.New(client, thresholds, testPricing(), fixedNow)
	sr := scoring.New(testPricing(), thresholds.ApprovalRequiredBytes, fixedNow)

	eng, err := admission.New(context.Background(), granted)
	require.NoError(t, err)
	policy := config.ExecutorPolicy{GrantedPermissions: granted, AllowDestructive: allowDestructive, MaxActions: 100, MaxFailures: 5}
	ex := executor.New(client, eng, policy, fixedNow)
	rb := rollback.New(client)

	return NewService(st, sc, sr, ex, rb)
}

// TestScanScoreDryRunExecute covers Scenario A: a cold archive candidate
// moves cleanly through scan, score, and a dry-run execute.
func TestScanScoreDryRunExecute(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Buckets = []objectstore.BucketInfo{{Name: "b1"}}
	client.Objects["b1"] = []objectstore.ObjectInfo{
		{Key: "archive/a.dat", Size: 1073741824, StorageClass: config.Standard, LastModified: fixedNow().AddDate(0, 0, -220)},
	}
	svc := newTestService(t, client, nil, false)
	ctx := context.Background()

	scanResp, err := svc.Scan(ctx, models.ScanFilters{})
	require.NoError(t, err)
	require.Len(t, scanResp.Recommendations, 1)
	require.Equal(t, models.ChangeStorageClass, scanResp.Recommendations[0].Type)

	scoreResp, err := svc.Score(ctx, scanResp.RunID)
	require.NoError(t, err)
	require.Len(t, scoreResp.Scores, 1)
	require.True(t, scoreResp.Scores[0].SafeToAutomate)
	require.False(t, scoreResp.Scores[0].RequiresApproval)

	execResp, err := svc.Execute(ctx, models.ExecuteRequest{RunID: scanResp.RunID, Mode: models.ModeDryRun, MaxActions: 10})
	require.NoError(t, err)
	require.Equal(t, 1, execResp.Executed)
	require.Equal(t, 0, execResp.Skipped+execResp.Blocked+execResp.Failed)
	require.True(t, execResp.ActionResults[0].Simulated)
	require.False(t, execResp.ActionResults[0].RollbackAvailable)
	require.Empty(t, client.CopyCalls)

	run, err := svc.GetRun(scanResp.RunID)
	require.NoError(t, err)
	require.Equal(t, models.RunExecuted, run.Status)
}

// TestExecuteBeforeScoreReturnsConflict covers the "empty scan/score" edge:
// a run that was never scored must not execute.
func TestExecuteBeforeScoreReturnsConflict(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Buckets = []objectstore.BucketInfo{{Name: "b1"}}
	svc := newTestService(t, client, nil, false)
	ctx := context.Background()

	scanResp, err := svc.Scan(ctx, models.ScanFilters{})
	require.NoError(t, err)

	_, err = svc.Execute(ctx, models.ExecuteRequest{RunID: scanResp.RunID, Mode: models.ModeFull})
	require.ErrorIs(t, err, ErrNotScored)
}

func TestScoreUnknownRunReturnsNotFound(t *testing.T) {
	svc := newTestService(t, objectstore.NewFakeClient(), nil, false)
	_, err := svc.Score(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrRunNotFound)
}

// TestLifecyclePolicyExecuteAndRollback covers Scenario C end to end
// through the Service, including the default-execution-id rollback path.
func TestLifecyclePolicyExecuteAndRollback(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Buckets = []objectstore.BucketInfo{{Name: "b1"}}
	client.Objects["b1"] = []objectstore.ObjectInfo{
		{Key: "a", Size: 200 * 1024 * 1024, StorageClass: config.Standard, LastModified: fixedNow()},
	}
	granted := []string{"s3:GetLifecycleConfiguration", "s3:PutLifecycleConfiguration"}
	svc := newTestService(t, client, granted, false)
	ctx := context.Background()

	scanResp, err := svc.Scan(ctx, models.ScanFilters{})
	require.NoError(t, err)
	require.Len(t, scanResp.Recommendations, 1)
	require.Equal(t, models.AddLifecyclePolicy, scanResp.Recommendations[0].Type)

	_, err = svc.Score(ctx, scanResp.RunID)
	require.NoError(t, err)

	execResp, err := svc.Execute(ctx, models.ExecuteRequest{RunID: scanResp.RunID, Mode: models.ModeFull})
	require.NoError(t, err)
	require.Equal(t, 1, execResp.Executed)
	require.True(t, execResp.ActionResults[0].RollbackAvailable)
	require.NotEmpty(t, client.Lifecycles["b1"])

	rbResp, err := svc.Rollback(ctx, models.RollbackRequest{RunID: scanResp.RunID})
	require.NoError(t, err)
	require.Equal(t, 1, rbResp.Attempted)
	require.Equal(t, 1, rbResp.RolledBack)
	require.Empty(t, client.Lifecycles["b1"])

	audit, err := svc.GetAudit(scanResp.RunID, "")
	require.NoError(t, err)
	require.Len(t, audit, 1)
	require.Equal(t, models.RollbackRolledBack, audit[0].RollbackStatus)
}

func TestRollbackWithoutExecutionReturnsConflict(t *testing.T) {
	client := objectstore.NewFakeClient()
	client.Buckets = []objectstore.BucketInfo{{Name: "b1"}}
	svc := newTestService(t, client, nil, false)
	ctx := context.Background()

	scanResp, err := svc.Scan(ctx, models.ScanFilters{})
	require.NoError(t, err)

	_, err = svc.Rollback(ctx, models.RollbackRequest{RunID: scanResp.RunID})
	require.ErrorIs(t, err, ErrNoExecution)
}
