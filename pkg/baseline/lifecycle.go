package baseline

import "fmt"

// Operation names the lifecycle operations a caller can request on a
// baseline version.
type Operation string

const (
	OpEdit    Operation = "edit"
	OpSubmit  Operation = "submit"
	OpApprove Operation = "approve"
	OpReject  Operation = "reject"
	OpPublish Operation = "publish"
	OpDelete  Operation = "delete"
)

// TransitionRule defines one legal operation: its source states and the
// status the version moves to. Operations without a target (edit, delete)
// leave the status unchanged or remove the version.
type TransitionRule struct {
	Op   Operation
	From []VersionStatus
	To   VersionStatus
}

// DefaultTransitions defines the allowed operations per source status.
// Publish requires an approved version; draft-to-published is rejected
// even though some older clients attempted it. Archiving is never a
// direct operation: it only happens as a side effect of publishing a
// different version on the same portfolio.
var DefaultTransitions = []TransitionRule{
	{Op: OpEdit, From: []VersionStatus{StatusDraft, StatusRejected}},
	{Op: OpSubmit, From: []VersionStatus{StatusDraft, StatusRejected}, To: StatusPendingApproval},
	{Op: OpApprove, From: []VersionStatus{StatusPendingApproval}, To: StatusApproved},
	{Op: OpReject, From: []VersionStatus{StatusPendingApproval}, To: StatusRejected},
	{Op: OpPublish, From: []VersionStatus{StatusApproved}, To: StatusPublished},
	{Op: OpDelete, From: []VersionStatus{StatusDraft}},
}

// LifecycleMachine validates operation legality against version status.
type LifecycleMachine struct {
	transitions []TransitionRule
}

// NewLifecycleMachine creates a machine with the default rules.
func NewLifecycleMachine() *LifecycleMachine {
	return &LifecycleMachine{transitions: DefaultTransitions}
}

// ValidateOperation checks that op is legal from the given status.
// Returns nil if allowed, an OpError with a machine-readable code if not.
func (m *LifecycleMachine) ValidateOperation(op Operation, from VersionStatus) error {
	rule := m.rule(op)
	if rule == nil {
		return invalidTransitionErr("LIFECYCLE_UNKNOWN_OPERATION",
			"unknown operation %s", op)
	}
	for _, s := range rule.From {
		if s == from {
			return nil
		}
	}
	return invalidTransitionErr("LIFECYCLE_INVALID_TRANSITION",
		"cannot %s a %s baseline version", op, from)
}

// Target returns the status an operation moves the version to, or ""
// when the operation does not change status.
func (m *LifecycleMachine) Target(op Operation) VersionStatus {
	if rule := m.rule(op); rule != nil {
		return rule.To
	}
	return ""
}

// SourceStates returns the legal source states for an operation.
func (m *LifecycleMachine) SourceStates(op Operation) []VersionStatus {
	if rule := m.rule(op); rule != nil {
		return rule.From
	}
	return nil
}

// Mutable returns true when module payloads of a version in the given
// status may still change. Once a version leaves these states its
// modules are frozen.
func (m *LifecycleMachine) Mutable(status VersionStatus) bool {
	return status == StatusDraft || status == StatusRejected
}

func (m *LifecycleMachine) rule(op Operation) *TransitionRule {
	for i := range m.transitions {
		if m.transitions[i].Op == op {
			return &m.transitions[i]
		}
	}
	return nil
}

// String implements fmt.Stringer for diagnostics.
func (r TransitionRule) String() string {
	return fmt.Sprintf("%s: %v -> %s", r.Op, r.From, r.To)
}
