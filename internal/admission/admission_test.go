package admission

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateAllowsWhenAllPermissionsGranted(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, []string{"s3:GetObject", "s3:PutObject"})
	require.NoError(t, err)

	allowed, missing, err := engine.Evaluate(ctx, []string{"s3:GetObject", "s3:PutObject"})
	require.NoError(t, err)
	require.True(t, allowed)
	require.Empty(t, missing)
}

func TestEvaluateReportsMissingPermissions(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, []string{"s3:GetObject"})
	require.NoError(t, err)

	allowed, missing, err := engine.Evaluate(ctx, []string{"s3:GetObject", "s3:DeleteObject"})
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, []string{"s3:DeleteObject"}, missing)
}

func TestEvaluateEmptyGrantedSetBlocksEverything(t *testing.T) {
	ctx := context.Background()
	engine, err := New(ctx, nil)
	require.NoError(t, err)

	allowed, missing, err := engine.Evaluate(ctx, []string{"s3:GetObject"})
	require.NoError(t, err)
	require.False(t, allowed)
	require.Equal(t, []string{"s3:GetObject"}, missing)
}
