package baseline

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DecisionVerdict represents an individual checker's decision.
type DecisionVerdict string

const (
	VerdictApprove DecisionVerdict = "approve"
	VerdictReject  DecisionVerdict = "reject"
)

// ApprovalDecisionRecord is one checker's decision on a submitted
// baseline version. Decisions are cleared when the version is
// resubmitted, so stale approvals from a previous review cycle never
// count toward the gate.
type ApprovalDecisionRecord struct {
	ID        string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	VersionID string    `gorm:"column:version_id;uniqueIndex:idx_decision_unique,priority:1;not null"`
	Reviewer  string    `gorm:"column:reviewer;uniqueIndex:idx_decision_unique,priority:2;not null"`
	Verdict   string    `gorm:"column:verdict;not null"`
	Comment   string    `gorm:"column:comment"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName returns the GORM table name.
func (ApprovalDecisionRecord) TableName() string { return "approval_decisions" }

// ApprovalStore provides database operations for approval decisions.
type ApprovalStore struct {
	db *gorm.DB
}

// NewApprovalStore creates a new ApprovalStore.
func NewApprovalStore(db *gorm.DB) *ApprovalStore {
	return &ApprovalStore{db: db}
}

// AutoMigrate creates or updates the approval_decisions table.
func (s *ApprovalStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&ApprovalDecisionRecord{}); err != nil {
		return fmt.Errorf("auto-migrate approval_decisions: %w", err)
	}
	return nil
}

// Record inserts a reviewer's decision. A reviewer decides at most once
// per review cycle; a second decision by the same reviewer is rejected by
// the unique index.
func (s *ApprovalStore) Record(decision *ApprovalDecisionRecord) error {
	if err := s.db.Create(decision).Error; err != nil {
		return fmt.Errorf("record approval decision: %w", err)
	}
	return nil
}

// CountApprovals returns the number of distinct approve verdicts for a
// version in the current review cycle.
func (s *ApprovalStore) CountApprovals(versionID string) (int, error) {
	return s.countVerdicts(versionID, VerdictApprove)
}

// CountRejections returns the number of distinct reject verdicts for a
// version in the current review cycle.
func (s *ApprovalStore) CountRejections(versionID string) (int, error) {
	return s.countVerdicts(versionID, VerdictReject)
}

func (s *ApprovalStore) countVerdicts(versionID string, verdict DecisionVerdict) (int, error) {
	var count int64
	err := s.db.Model(&ApprovalDecisionRecord{}).
		Where("version_id = ? AND verdict = ?", versionID, string(verdict)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count %s verdicts: %w", verdict, err)
	}
	return int(count), nil
}

// List returns all decisions for a version, oldest first.
func (s *ApprovalStore) List(versionID string) ([]ApprovalDecisionRecord, error) {
	var records []ApprovalDecisionRecord
	if err := s.db.Where("version_id = ?", versionID).Order("created_at ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list approval decisions: %w", err)
	}
	return records, nil
}

// Clear removes all decisions for a version. Called on submit so each
// review cycle starts from zero.
func (s *ApprovalStore) Clear(versionID string) error {
	if err := s.db.Where("version_id = ?", versionID).Delete(&ApprovalDecisionRecord{}).Error; err != nil {
		return fmt.Errorf("clear approval decisions: %w", err)
	}
	return nil
}
