package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExactlyTrue(t *testing.T) {
	assert.True(t, isExactlyTrue("true"))
	assert.True(t, isExactlyTrue("True"))
	assert.True(t, isExactlyTrue("  TRUE  "))
	assert.False(t, isExactlyTrue("1"))
	assert.False(t, isExactlyTrue("yes"))
	assert.False(t, isExactlyTrue(""))
}

func TestGetEnvStringList(t *testing.T) {
	t.Setenv("TEST_LIST", " s3:GetObject ,s3:PutObject,, s3:DeleteObject")
	got := getEnvStringList("TEST_LIST")
	require.Equal(t, []string{"s3:GetObject", "s3:PutObject", "s3:DeleteObject"}, got)
}

func TestGetEnvStringListUnset(t *testing.T) {
	assert.Nil(t, getEnvStringList("TEST_LIST_NOT_SET"))
}

func TestMonthlySavingsRounding(t *testing.T) {
	p := defaultPricingConfig()
	savings := p.MonthlySavings(1073741824, Standard, GlacierInstantRetrieval)
	assert.InDelta(t, 0.0190, savings, 0.0005)
}

func TestExecutorPolicyMissingPermissions(t *testing.T) {
	pol := ExecutorPolicy{GrantedPermissions: []string{"s3:GetObject"}}
	missing := pol.MissingPermissions([]string{"s3:GetObject", "s3:PutObject"})
	assert.Equal(t, []string{"s3:PutObject"}, missing)
}
