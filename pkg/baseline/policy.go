package baseline

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ApprovalPolicyFile is the top-level structure of the approval policies
// YAML file.
type ApprovalPolicyFile struct {
	Policies []ApprovalPolicy `yaml:"policies" json:"policies"`
}

// ApprovalPolicy defines how many checker approvals a submitted baseline
// version needs before it becomes approved, per portfolio selector.
type ApprovalPolicy struct {
	ID          string         `yaml:"id" json:"id"`
	DisplayName string         `yaml:"displayName" json:"displayName"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Enabled     bool           `yaml:"enabled" json:"enabled"`
	Selector    PolicySelector `yaml:"selector" json:"selector"`
	Gate        ApprovalGate   `yaml:"gate" json:"gate"`
}

// PolicySelector determines which portfolios a policy applies to.
type PolicySelector struct {
	Industries []string `yaml:"industries,omitempty" json:"industries,omitempty"`
	Currencies []string `yaml:"currencies,omitempty" json:"currencies,omitempty"`
}

// ApprovalGate defines the approval threshold.
type ApprovalGate struct {
	RequiredCount int  `yaml:"requiredCount" json:"requiredCount"`
	RejectOnFirst bool `yaml:"rejectOnFirst" json:"rejectOnFirst,omitempty"`
}

// EvaluationResult describes the approval requirements for a portfolio.
type EvaluationResult struct {
	PolicyID      string
	PolicyName    string
	RequiredCount int
	RejectOnFirst bool
}

// ApprovalEvaluator matches portfolios against loaded approval policies.
type ApprovalEvaluator struct {
	policies []ApprovalPolicy
}

// NewApprovalEvaluator creates an evaluator with the given policies.
func NewApprovalEvaluator(policies []ApprovalPolicy) *ApprovalEvaluator {
	return &ApprovalEvaluator{policies: policies}
}

// LoadApprovalPolicies loads policies from a YAML file. Returns an empty
// evaluator if the file does not exist, so deployments without a policy
// file fall back to the single-approval default.
func LoadApprovalPolicies(path string) (*ApprovalEvaluator, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewApprovalEvaluator(nil), nil
		}
		return nil, fmt.Errorf("read approval policies: %w", err)
	}

	var pf ApprovalPolicyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse approval policies: %w", err)
	}

	return NewApprovalEvaluator(pf.Policies), nil
}

// Evaluate returns the gate requirements for a portfolio. The first
// matching enabled policy wins; with no match a single checker decision
// resolves the review cycle either way.
func (e *ApprovalEvaluator) Evaluate(industry, currency string) EvaluationResult {
	for _, p := range e.policies {
		if !p.Enabled {
			continue
		}
		if !matchSelector(p.Selector, industry, currency) {
			continue
		}
		count := p.Gate.RequiredCount
		if count < 1 {
			count = 1
		}
		return EvaluationResult{
			PolicyID:      p.ID,
			PolicyName:    p.DisplayName,
			RequiredCount: count,
			RejectOnFirst: p.Gate.RejectOnFirst,
		}
	}
	return EvaluationResult{RequiredCount: 1, RejectOnFirst: true}
}

// ListPolicies returns all loaded policies.
func (e *ApprovalEvaluator) ListPolicies() []ApprovalPolicy {
	return e.policies
}

func matchSelector(sel PolicySelector, industry, currency string) bool {
	if len(sel.Industries) > 0 && !containsString(sel.Industries, industry) {
		return false
	}
	if len(sel.Currencies) > 0 && !containsString(sel.Currencies, currency) {
		return false
	}
	return true
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
