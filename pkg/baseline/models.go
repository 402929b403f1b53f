package baseline

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// JSONAny is a custom GORM type for map[string]any stored as JSON.
type JSONAny map[string]any

// Scan implements the sql.Scanner interface for JSONAny.
func (m *JSONAny) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONAny: %T", value)
	}
	return json.Unmarshal(bytes, m)
}

// Value implements the driver.Valuer interface for JSONAny.
func (m JSONAny) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// JSONValidationErrors is a custom GORM type for []ValidationError stored as JSON.
type JSONValidationErrors []ValidationError

// Scan implements the sql.Scanner interface for JSONValidationErrors.
func (s *JSONValidationErrors) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case string:
		bytes = []byte(v)
	case []byte:
		bytes = v
	default:
		return fmt.Errorf("unsupported type for JSONValidationErrors: %T", value)
	}
	return json.Unmarshal(bytes, s)
}

// Value implements the driver.Valuer interface for JSONValidationErrors.
func (s JSONValidationErrors) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// PortfolioRecord stores a tenant-scoped investment vehicle. The active
// baseline is tracked via the pointer column, not a per-version flag, so
// the publish transaction has a single source of truth to repoint.
type PortfolioRecord struct {
	ID                      string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	CompanyID               string    `gorm:"column:company_id;index:idx_portfolio_company;not null"`
	Name                    string    `gorm:"column:name;not null"`
	Industry                string    `gorm:"column:industry"`
	Status                  string    `gorm:"column:status;default:active;not null"`
	Currency                string    `gorm:"column:currency"`
	Timezone                string    `gorm:"column:timezone"`
	ActiveBaselineVersionID *string   `gorm:"column:active_baseline_version_id;type:varchar(36)"`
	CreatedAt               time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt               time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (PortfolioRecord) TableName() string { return "portfolios" }

// BaselineVersionRecord is one proposed or historical configuration
// snapshot of a portfolio's governance rules. Version numbers are unique
// and ordered within a portfolio; a published version's modules are
// immutable.
type BaselineVersionRecord struct {
	ID              string     `gorm:"primaryKey;column:id;type:varchar(36)"`
	PortfolioID     string     `gorm:"column:portfolio_id;uniqueIndex:idx_version_number,priority:1;index:idx_version_portfolio;not null"`
	VersionNumber   int        `gorm:"column:version_number;uniqueIndex:idx_version_number,priority:2;not null"`
	Status          string     `gorm:"column:status;index:idx_version_status;default:draft;not null"`
	ParentVersionID string     `gorm:"column:parent_version_id;type:varchar(36)"`
	ChangeSummary   string     `gorm:"column:change_summary"`
	ContentHash     string     `gorm:"column:content_hash"`
	CreatedBy       string     `gorm:"column:created_by;not null"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	SubmittedBy     string     `gorm:"column:submitted_by"`
	SubmittedAt     *time.Time `gorm:"column:submitted_at"`
	ApprovedBy      string     `gorm:"column:approved_by"`
	ApprovedAt      *time.Time `gorm:"column:approved_at"`
	RejectedBy      string     `gorm:"column:rejected_by"`
	RejectedAt      *time.Time `gorm:"column:rejected_at"`
	RejectionReason string     `gorm:"column:rejection_reason"`
	PublishedBy     string     `gorm:"column:published_by"`
	PublishedAt     *time.Time `gorm:"column:published_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (BaselineVersionRecord) TableName() string { return "baseline_versions" }

// BaselineModuleRecord is one named section of configuration within a
// version. isValid/validationErrors cache the validator's last run.
type BaselineModuleRecord struct {
	ID                string               `gorm:"primaryKey;column:id;type:varchar(36)"`
	BaselineVersionID string               `gorm:"column:baseline_version_id;uniqueIndex:idx_module_type,priority:1;index:idx_module_version;not null"`
	ModuleType        string               `gorm:"column:module_type;uniqueIndex:idx_module_type,priority:2;not null"`
	SchemaVersion     int                  `gorm:"column:schema_version;default:1;not null"`
	Payload           JSONAny              `gorm:"column:payload;type:text"`
	IsComplete        bool                 `gorm:"column:is_complete;default:false;not null"`
	IsValid           bool                 `gorm:"column:is_valid;default:false;not null"`
	ValidationErrors  JSONValidationErrors `gorm:"column:validation_errors;type:text"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName returns the GORM table name.
func (BaselineModuleRecord) TableName() string { return "baseline_modules" }

// AuditEventRecord is an immutable audit log entry.
type AuditEventRecord struct {
	ID            string    `gorm:"primaryKey;column:id;type:varchar(36)"`
	CompanyID     string    `gorm:"column:company_id;index:idx_audit_company_time,priority:1;not null"`
	CorrelationID string    `gorm:"column:correlation_id;index"`
	EventType     string    `gorm:"column:event_type;index:idx_audit_type_time,priority:1;not null"`
	Actor         string    `gorm:"column:actor;index:idx_audit_actor_time,priority:1;not null"`
	PortfolioID   string    `gorm:"column:portfolio_id;index:idx_audit_portfolio_time,priority:1"`
	VersionID     string    `gorm:"column:version_id;index"`
	Action        string    `gorm:"column:action"`
	Outcome       string    `gorm:"column:outcome;not null"` // success, failure, denied
	Reason        string    `gorm:"column:reason"`
	OldValue      JSONAny   `gorm:"column:old_value;type:text"`
	NewValue      JSONAny   `gorm:"column:new_value;type:text"`
	RequestID     string    `gorm:"column:request_id;index"`
	StatusCode    int       `gorm:"column:status_code"`
	CreatedAt     time.Time `gorm:"column:created_at;index:idx_audit_company_time,priority:2;index:idx_audit_type_time,priority:2;index:idx_audit_actor_time,priority:2;index:idx_audit_portfolio_time,priority:2;autoCreateTime"`
}

// TableName returns the GORM table name.
func (AuditEventRecord) TableName() string { return "audit_events" }
