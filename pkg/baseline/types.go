// Package baseline implements the versioning and publish workflow for
// portfolio baselines: the lifecycle state machine, the module validator,
// the engine that enforces transition legality and permissions, and the
// HTTP surface that exposes them.
package baseline

// VersionStatus represents baseline version lifecycle states.
type VersionStatus string

const (
	StatusDraft           VersionStatus = "draft"
	StatusPendingApproval VersionStatus = "pending_approval"
	StatusApproved        VersionStatus = "approved"
	StatusRejected        VersionStatus = "rejected"
	StatusPublished       VersionStatus = "published"
	StatusArchived        VersionStatus = "archived"
)

// ModuleType identifies one named section of a baseline version.
type ModuleType string

const (
	ModuleMandateTerms         ModuleType = "mandate_terms"
	ModuleExclusions           ModuleType = "exclusions"
	ModuleRiskAppetite         ModuleType = "risk_appetite"
	ModuleGovernanceThresholds ModuleType = "governance_thresholds"
	ModuleReportingObligations ModuleType = "reporting_obligations"
)

// RequiredModuleTypes lists the modules every baseline version carries.
// Submit requires all of them to pass validation.
var RequiredModuleTypes = []ModuleType{
	ModuleMandateTerms,
	ModuleExclusions,
	ModuleRiskAppetite,
	ModuleGovernanceThresholds,
	ModuleReportingObligations,
}

// KnownModuleType returns true if t is one of the defined module types.
func KnownModuleType(t ModuleType) bool {
	for _, m := range RequiredModuleTypes {
		if m == t {
			return true
		}
	}
	return false
}

// ModuleSchemaVersion is the current schema version written to new modules.
const ModuleSchemaVersion = 1

// PermissionFlags are derived per read from (status x effective role),
// never stored.
type PermissionFlags struct {
	CanEdit    bool `json:"canEdit"`
	CanSubmit  bool `json:"canSubmit"`
	CanApprove bool `json:"canApprove"`
	CanReject  bool `json:"canReject"`
	CanPublish bool `json:"canPublish"`
	CanDelete  bool `json:"canDelete"`
}

// ModuleView is the API-facing representation of a baseline module.
type ModuleView struct {
	ID               string            `json:"id"`
	ModuleType       ModuleType        `json:"moduleType"`
	SchemaVersion    int               `json:"schemaVersion"`
	Payload          map[string]any    `json:"payload"`
	IsComplete       bool              `json:"isComplete"`
	IsValid          bool              `json:"isValid"`
	ValidationErrors []ValidationError `json:"validationErrors,omitempty"`
}

// VersionView is the API-facing representation of a baseline version.
type VersionView struct {
	ID              string        `json:"id"`
	PortfolioID     string        `json:"portfolioId"`
	VersionNumber   int           `json:"versionNumber"`
	Status          VersionStatus `json:"status"`
	ParentVersionID string        `json:"parentVersionId,omitempty"`
	ChangeSummary   string        `json:"changeSummary,omitempty"`
	ContentHash     string        `json:"contentHash,omitempty"`
	CreatedBy       string        `json:"createdBy"`
	CreatedAt       string        `json:"createdAt"`
	SubmittedBy     string        `json:"submittedBy,omitempty"`
	SubmittedAt     string        `json:"submittedAt,omitempty"`
	ApprovedBy      string        `json:"approvedBy,omitempty"`
	ApprovedAt      string        `json:"approvedAt,omitempty"`
	RejectedBy      string        `json:"rejectedBy,omitempty"`
	RejectedAt      string        `json:"rejectedAt,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	PublishedBy     string        `json:"publishedBy,omitempty"`
	PublishedAt     string        `json:"publishedAt,omitempty"`
	IsActive        bool          `json:"isActive"`
}

// VersionDetail is the full detail view: version, modules, and the
// caller's derived permission flags.
type VersionDetail struct {
	Version     VersionView     `json:"version"`
	Modules     []ModuleView    `json:"modules"`
	Permissions PermissionFlags `json:"permissions"`
}

// VersionListResponse is a paginated list of versions.
type VersionListResponse struct {
	Versions      []VersionView `json:"versions"`
	NextPageToken string        `json:"nextPageToken,omitempty"`
	TotalSize     int           `json:"totalSize"`
}

// PreflightResult is the read-only publish pre-check the UI uses to
// enable or disable the publish action.
type PreflightResult struct {
	CanPublish              bool     `json:"canPublish"`
	Blockers                []string `json:"blockers,omitempty"`
	WillArchiveExisting     bool     `json:"willArchiveExisting"`
	CurrentActiveBaselineID string   `json:"currentActiveBaselineId,omitempty"`
}

// PublishResult is the outcome of a publish call. ConfirmationRequired
// is a "need more input" signal, not a failure: the caller must retry
// with confirmArchivePrevious set.
type PublishResult struct {
	ConfirmationRequired bool         `json:"confirmationRequired,omitempty"`
	CurrentActiveVersion *VersionView `json:"currentActiveVersion,omitempty"`
	ArchivedVersionID    string       `json:"archivedVersionId,omitempty"`
	Version              *VersionView `json:"version,omitempty"`
}

// PortfolioView is the API-facing representation of a portfolio.
type PortfolioView struct {
	ID                      string `json:"id"`
	CompanyID               string `json:"companyId"`
	Name                    string `json:"name"`
	Industry                string `json:"industry,omitempty"`
	Status                  string `json:"status"`
	Currency                string `json:"currency,omitempty"`
	Timezone                string `json:"timezone,omitempty"`
	ActiveBaselineVersionID string `json:"activeBaselineVersionId,omitempty"`
	CreatedAt               string `json:"createdAt"`
}

// PortfolioListResponse is a paginated list of portfolios.
type PortfolioListResponse struct {
	Portfolios    []PortfolioView `json:"portfolios"`
	NextPageToken string          `json:"nextPageToken,omitempty"`
	TotalSize     int             `json:"totalSize"`
}
