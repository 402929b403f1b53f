package baseline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalEvaluator_DefaultGate(t *testing.T) {
	evaluator := NewApprovalEvaluator(nil)

	result := evaluator.Evaluate("technology", "USD")
	assert.Equal(t, 1, result.RequiredCount)
	assert.True(t, result.RejectOnFirst)
	assert.Empty(t, result.PolicyID)
}

func TestApprovalEvaluator_SelectorMatching(t *testing.T) {
	evaluator := NewApprovalEvaluator([]ApprovalPolicy{
		{
			ID:          "dual-control-regulated",
			DisplayName: "Dual control for regulated industries",
			Enabled:     true,
			Selector:    PolicySelector{Industries: []string{"healthcare", "finance"}},
			Gate:        ApprovalGate{RequiredCount: 2, RejectOnFirst: true},
		},
		{
			ID:       "disabled-policy",
			Enabled:  false,
			Selector: PolicySelector{Currencies: []string{"USD"}},
			Gate:     ApprovalGate{RequiredCount: 5},
		},
	})

	matched := evaluator.Evaluate("finance", "USD")
	assert.Equal(t, "dual-control-regulated", matched.PolicyID)
	assert.Equal(t, 2, matched.RequiredCount)

	// Disabled policies never match; fall through to the default.
	unmatched := evaluator.Evaluate("technology", "USD")
	assert.Empty(t, unmatched.PolicyID)
	assert.Equal(t, 1, unmatched.RequiredCount)
}

func TestApprovalEvaluator_FirstMatchWins(t *testing.T) {
	evaluator := NewApprovalEvaluator([]ApprovalPolicy{
		{ID: "first", Enabled: true, Gate: ApprovalGate{RequiredCount: 3}},
		{ID: "second", Enabled: true, Gate: ApprovalGate{RequiredCount: 2}},
	})

	result := evaluator.Evaluate("anything", "EUR")
	assert.Equal(t, "first", result.PolicyID)
	assert.Equal(t, 3, result.RequiredCount)
}

func TestApprovalEvaluator_RequiredCountFloor(t *testing.T) {
	evaluator := NewApprovalEvaluator([]ApprovalPolicy{
		{ID: "zero", Enabled: true, Gate: ApprovalGate{RequiredCount: 0}},
	})

	result := evaluator.Evaluate("technology", "USD")
	assert.Equal(t, 1, result.RequiredCount)
}

func TestLoadApprovalPolicies(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policies.yaml")
	content := []byte(`policies:
  - id: dual-control
    displayName: Dual control
    enabled: true
    selector:
      industries: [finance]
    gate:
      requiredCount: 2
      rejectOnFirst: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	evaluator, err := LoadApprovalPolicies(path)
	require.NoError(t, err)
	require.Len(t, evaluator.ListPolicies(), 1)

	result := evaluator.Evaluate("finance", "GBP")
	assert.Equal(t, "dual-control", result.PolicyID)
	assert.Equal(t, 2, result.RequiredCount)
}

func TestLoadApprovalPolicies_MissingFile(t *testing.T) {
	evaluator, err := LoadApprovalPolicies(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Empty(t, evaluator.ListPolicies())
	assert.Equal(t, 1, evaluator.Evaluate("finance", "USD").RequiredCount)
}

func TestLoadApprovalPolicies_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policies: [\n"), 0o644))

	_, err := LoadApprovalPolicies(path)
	assert.Error(t, err)
}
