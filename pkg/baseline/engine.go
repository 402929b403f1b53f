package baseline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/juris-platform/baseline/pkg/access"
)

// Engine owns the baseline version state machine: it enforces transition
// legality, computes per-caller permission flags, and performs the
// publish operation atomically. Every call takes an explicit acting
// user; the engine never relies on ambient identity.
type Engine struct {
	store     *Store
	approvals *ApprovalStore
	audit     *AuditStore
	roles     access.RoleResolver
	evaluator *ApprovalEvaluator
	machine   *LifecycleMachine
}

// NewEngine creates an Engine. evaluator may be nil, in which case a
// single checker approval resolves every submission.
func NewEngine(store *Store, approvals *ApprovalStore, audit *AuditStore, roles access.RoleResolver, evaluator *ApprovalEvaluator) *Engine {
	if evaluator == nil {
		evaluator = NewApprovalEvaluator(nil)
	}
	return &Engine{
		store:     store,
		approvals: approvals,
		audit:     audit,
		roles:     roles,
		evaluator: evaluator,
		machine:   NewLifecycleMachine(),
	}
}

// ApprovalOutcome is the result of an approve call. With a multi-approval
// policy the version stays pending until the gate is met.
type ApprovalOutcome struct {
	Version           *VersionView `json:"version"`
	ApprovalsRecorded int          `json:"approvalsRecorded"`
	RequiredCount     int          `json:"requiredCount"`
	Resolved          bool         `json:"resolved"`
}

// RejectionOutcome is the result of a reject call. Policies with
// rejectOnFirst disabled leave the version pending until enough
// reviewers concur.
type RejectionOutcome struct {
	Version            *VersionView `json:"version"`
	RejectionsRecorded int          `json:"rejectionsRecorded"`
	RequiredCount      int          `json:"requiredCount"`
	Resolved           bool         `json:"resolved"`
}

// scoped is the loaded context of one lifecycle call: the version, its
// portfolio, and the caller's effective role.
type scoped struct {
	version   *BaselineVersionRecord
	portfolio *PortfolioRecord
	level     access.AccessLevel
}

// load resolves a version, its owning portfolio, and the actor's
// effective role. A version outside the actor's company resolves to
// NotFound rather than Forbidden: IDs are global but operations are
// scoped, and scoped lookups must not leak existence.
func (e *Engine) load(versionID string, actor access.Actor) (*scoped, error) {
	version, err := e.store.GetVersion(versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, notFoundErr("baseline version %s not found", versionID)
	}

	portfolio, err := e.store.GetPortfolio(version.PortfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, notFoundErr("portfolio %s not found", version.PortfolioID)
	}
	if portfolio.CompanyID != actor.CompanyID {
		return nil, notFoundErr("baseline version %s not found", versionID)
	}

	level, err := e.roles.EffectiveRole(actor, portfolio.ID, portfolio.CompanyID)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, forbiddenErr("no access to portfolio %s", portfolio.ID)
	}

	return &scoped{version: version, portfolio: portfolio, level: level}, nil
}

// CreatePortfolio creates a portfolio in the actor's company. Company
// admins only.
func (e *Engine) CreatePortfolio(ctx context.Context, actor access.Actor, name, industry, currency, timezone string) (*PortfolioView, error) {
	if !actor.IsCompanyAdmin() {
		return nil, forbiddenErr("creating portfolios requires a company admin role")
	}
	if name == "" {
		return nil, fmt.Errorf("missing or invalid 'name' parameter")
	}

	record := &PortfolioRecord{
		ID:        uuid.New().String(),
		CompanyID: actor.CompanyID,
		Name:      name,
		Industry:  industry,
		Status:    "active",
		Currency:  currency,
		Timezone:  timezone,
	}
	if err := e.store.CreatePortfolio(record); err != nil {
		return nil, err
	}

	e.appendAudit(actor, "portfolio.created", record.ID, "", "create", "success", "", nil, JSONAny{"name": name})

	view := portfolioToView(record)
	return &view, nil
}

// GetPortfolio returns a portfolio in the actor's company.
func (e *Engine) GetPortfolio(ctx context.Context, actor access.Actor, portfolioID string) (*PortfolioView, error) {
	portfolio, err := e.scopedPortfolio(actor, portfolioID)
	if err != nil {
		return nil, err
	}
	view := portfolioToView(portfolio)
	return &view, nil
}

// ListPortfolios returns the actor's company portfolios, paginated.
func (e *Engine) ListPortfolios(ctx context.Context, actor access.Actor, pageSize int, pageToken string) (*PortfolioListResponse, error) {
	records, nextToken, total, err := e.store.ListPortfolios(actor.CompanyID, pageSize, pageToken)
	if err != nil {
		return nil, err
	}
	views := make([]PortfolioView, len(records))
	for i := range records {
		views[i] = portfolioToView(&records[i])
	}
	return &PortfolioListResponse{Portfolios: views, NextPageToken: nextToken, TotalSize: total}, nil
}

// CreateVersion creates a new draft baseline version with its full module
// set seeded. When parentVersionID is given the parent's payloads are
// copied, so a new version can start from the currently active baseline.
func (e *Engine) CreateVersion(ctx context.Context, actor access.Actor, portfolioID, parentVersionID, changeSummary string) (*VersionDetail, error) {
	portfolio, err := e.scopedPortfolio(actor, portfolioID)
	if err != nil {
		return nil, err
	}
	level, err := e.roles.EffectiveRole(actor, portfolio.ID, portfolio.CompanyID)
	if err != nil {
		return nil, err
	}
	if !level.CanMake() {
		return nil, forbiddenErr("creating baseline versions requires maker or admin access")
	}

	parentPayloads := map[ModuleType]JSONAny{}
	if parentVersionID != "" {
		parent, err := e.store.GetVersion(parentVersionID)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.PortfolioID != portfolioID {
			return nil, notFoundErr("parent version %s not found on portfolio %s", parentVersionID, portfolioID)
		}
		parentModules, err := e.store.GetModules(parentVersionID)
		if err != nil {
			return nil, err
		}
		for _, m := range parentModules {
			parentPayloads[ModuleType(m.ModuleType)] = m.Payload
		}
	}

	version := &BaselineVersionRecord{
		ID:              uuid.New().String(),
		PortfolioID:     portfolioID,
		Status:          string(StatusDraft),
		ParentVersionID: parentVersionID,
		ChangeSummary:   changeSummary,
		CreatedBy:       actor.UserID,
	}

	modules := make([]BaselineModuleRecord, 0, len(RequiredModuleTypes))
	for _, moduleType := range RequiredModuleTypes {
		payload := parentPayloads[moduleType]
		if payload == nil {
			payload = JSONAny{}
		}
		validation := ValidateModule(moduleType, payload)
		modules = append(modules, BaselineModuleRecord{
			ID:               uuid.New().String(),
			ModuleType:       string(moduleType),
			SchemaVersion:    ModuleSchemaVersion,
			Payload:          payload,
			IsComplete:       ModuleCompleteness(moduleType, payload),
			IsValid:          validation.IsValid,
			ValidationErrors: JSONValidationErrors(validation.Errors),
		})
	}

	if err := e.store.CreateVersion(version, modules); err != nil {
		return nil, err
	}

	e.appendAudit(actor, "baseline.version.created", portfolioID, version.ID, "create", "success", "",
		nil, JSONAny{"versionNumber": version.VersionNumber, "parentVersionId": parentVersionID})

	return e.detail(version, portfolio, level, modules)
}

// GetDetail returns a version with its modules and the caller's derived
// permission flags. Flags are recomputed on every read, never cached, so
// a role change takes effect immediately.
func (e *Engine) GetDetail(ctx context.Context, actor access.Actor, versionID string) (*VersionDetail, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}
	modules, err := e.store.GetModules(versionID)
	if err != nil {
		return nil, err
	}
	return e.detail(sc.version, sc.portfolio, sc.level, modules)
}

// ListVersions returns a portfolio's versions, newest first.
func (e *Engine) ListVersions(ctx context.Context, actor access.Actor, portfolioID string, pageSize int, pageToken string) (*VersionListResponse, error) {
	portfolio, err := e.scopedPortfolio(actor, portfolioID)
	if err != nil {
		return nil, err
	}
	level, err := e.roles.EffectiveRole(actor, portfolio.ID, portfolio.CompanyID)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, forbiddenErr("no access to portfolio %s", portfolioID)
	}

	records, nextToken, total, err := e.store.ListVersions(portfolioID, pageSize, pageToken)
	if err != nil {
		return nil, err
	}
	views := make([]VersionView, len(records))
	for i := range records {
		views[i] = versionToView(&records[i], portfolio.ActiveBaselineVersionID)
	}
	return &VersionListResponse{Versions: views, NextPageToken: nextToken, TotalSize: total}, nil
}

// UpdateModule replaces a module's payload and recomputes its cached
// validation state. Only legal while the parent version is mutable.
// Edits are last-writer-wins at module granularity.
func (e *Engine) UpdateModule(ctx context.Context, actor access.Actor, versionID string, moduleType ModuleType, payload map[string]any) (*ModuleView, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}
	if !sc.level.CanMake() {
		return nil, forbiddenErr("editing baseline modules requires maker or admin access")
	}
	if err := e.machine.ValidateOperation(OpEdit, VersionStatus(sc.version.Status)); err != nil {
		return nil, err
	}
	if !KnownModuleType(moduleType) {
		return nil, notFoundErr("unknown module type %q", moduleType)
	}

	module, err := e.store.GetModule(versionID, moduleType)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, notFoundErr("module %s not found on version %s", moduleType, versionID)
	}

	oldPayload := module.Payload
	validation := ValidateModule(moduleType, payload)
	module.Payload = JSONAny(payload)
	module.IsComplete = ModuleCompleteness(moduleType, payload)
	module.IsValid = validation.IsValid
	module.ValidationErrors = JSONValidationErrors(validation.Errors)

	if err := e.store.SaveModule(module); err != nil {
		return nil, err
	}

	e.appendAudit(actor, "baseline.module.updated", sc.portfolio.ID, versionID, "edit", "success", "",
		JSONAny{"moduleType": string(moduleType), "payload": map[string]any(oldPayload)},
		JSONAny{"moduleType": string(moduleType), "isValid": module.IsValid, "isComplete": module.IsComplete})

	view := moduleToView(module)
	return &view, nil
}

// UpdateChangeSummary updates a version's change summary. Draft only.
func (e *Engine) UpdateChangeSummary(ctx context.Context, actor access.Actor, versionID, summary string) (*VersionView, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}
	if !sc.level.CanMake() {
		return nil, forbiddenErr("updating baseline metadata requires maker or admin access")
	}

	ok, err := e.store.UpdateChangeSummary(versionID, summary)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidTransitionErr("LIFECYCLE_INVALID_TRANSITION",
			"cannot update metadata of a %s baseline version", sc.version.Status)
	}

	return e.refreshView(versionID, sc.portfolio)
}

// Submit moves a draft or rejected version to pending approval. All
// required modules must pass the validator; blockers are returned
// without any state change.
func (e *Engine) Submit(ctx context.Context, actor access.Actor, versionID string) (*VersionView, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}
	if !sc.level.CanMake() {
		return nil, forbiddenErr("submitting baseline versions requires maker or admin access")
	}
	if err := e.machine.ValidateOperation(OpSubmit, VersionStatus(sc.version.Status)); err != nil {
		return nil, err
	}

	blockers, err := e.moduleBlockers(versionID)
	if err != nil {
		return nil, err
	}
	if len(blockers) > 0 {
		return nil, validationFailedErr(blockers)
	}

	// Each review cycle starts from zero recorded decisions.
	if err := e.approvals.Clear(versionID); err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := e.store.Transition(versionID, VersionStatus(sc.version.Status), map[string]any{
		"status":       string(StatusPendingApproval),
		"submitted_by": actor.UserID,
		"submitted_at": now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, staleStateErr(OpSubmit)
	}

	e.appendAudit(actor, "baseline.version.submitted", sc.portfolio.ID, versionID, "submit", "success", "",
		JSONAny{"status": sc.version.Status}, JSONAny{"status": string(StatusPendingApproval)})

	return e.refreshView(versionID, sc.portfolio)
}

// Approve records a checker approval. The version becomes approved once
// the policy's required approval count is met; with the default policy a
// single approval resolves the submission.
func (e *Engine) Approve(ctx context.Context, actor access.Actor, versionID, comment string) (*ApprovalOutcome, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}
	if !sc.level.CanCheck() {
		return nil, forbiddenErr("approving baseline versions requires checker or admin access")
	}
	if err := e.machine.ValidateOperation(OpApprove, VersionStatus(sc.version.Status)); err != nil {
		return nil, err
	}

	gate := e.evaluator.Evaluate(sc.portfolio.Industry, sc.portfolio.Currency)

	if err := e.approvals.Record(&ApprovalDecisionRecord{
		ID:        uuid.New().String(),
		VersionID: versionID,
		Reviewer:  actor.UserID,
		Verdict:   string(VerdictApprove),
		Comment:   comment,
	}); err != nil {
		return nil, err
	}

	count, err := e.approvals.CountApprovals(versionID)
	if err != nil {
		return nil, err
	}

	resolved := count >= gate.RequiredCount
	if resolved {
		now := time.Now()
		ok, err := e.store.Transition(versionID, StatusPendingApproval, map[string]any{
			"status":      string(StatusApproved),
			"approved_by": actor.UserID,
			"approved_at": now,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, staleStateErr(OpApprove)
		}
	}

	outcome := "pending"
	if resolved {
		outcome = "success"
	}
	e.appendAudit(actor, "baseline.version.approved", sc.portfolio.ID, versionID, "approve", outcome, comment,
		JSONAny{"status": sc.version.Status},
		JSONAny{"approvals": count, "requiredCount": gate.RequiredCount})

	view, err := e.refreshView(versionID, sc.portfolio)
	if err != nil {
		return nil, err
	}
	return &ApprovalOutcome{
		Version:           view,
		ApprovalsRecorded: count,
		RequiredCount:     gate.RequiredCount,
		Resolved:          resolved,
	}, nil
}

// Reject records a checker rejection. With the default policy a single
// rejection resolves the cycle; a policy with rejectOnFirst disabled
// keeps the version pending until the required rejection count is met.
// A reason is required so the maker knows what to fix.
func (e *Engine) Reject(ctx context.Context, actor access.Actor, versionID, reason string) (*RejectionOutcome, error) {
	if reason == "" {
		return nil, fmt.Errorf("missing or invalid 'reason' parameter")
	}

	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}
	if !sc.level.CanCheck() {
		return nil, forbiddenErr("rejecting baseline versions requires checker or admin access")
	}
	if err := e.machine.ValidateOperation(OpReject, VersionStatus(sc.version.Status)); err != nil {
		return nil, err
	}

	gate := e.evaluator.Evaluate(sc.portfolio.Industry, sc.portfolio.Currency)

	if err := e.approvals.Record(&ApprovalDecisionRecord{
		ID:        uuid.New().String(),
		VersionID: versionID,
		Reviewer:  actor.UserID,
		Verdict:   string(VerdictReject),
		Comment:   reason,
	}); err != nil {
		return nil, err
	}

	count, err := e.approvals.CountRejections(versionID)
	if err != nil {
		return nil, err
	}

	resolved := gate.RejectOnFirst || count >= gate.RequiredCount
	if resolved {
		now := time.Now()
		ok, err := e.store.Transition(versionID, StatusPendingApproval, map[string]any{
			"status":           string(StatusRejected),
			"rejected_by":      actor.UserID,
			"rejected_at":      now,
			"rejection_reason": reason,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, staleStateErr(OpReject)
		}
	}

	outcome := "pending"
	if resolved {
		outcome = "success"
	}
	e.appendAudit(actor, "baseline.version.rejected", sc.portfolio.ID, versionID, "reject", outcome, reason,
		JSONAny{"status": sc.version.Status},
		JSONAny{"rejections": count, "requiredCount": gate.RequiredCount})

	view, err := e.refreshView(versionID, sc.portfolio)
	if err != nil {
		return nil, err
	}
	return &RejectionOutcome{
		Version:            view,
		RejectionsRecorded: count,
		RequiredCount:      gate.RequiredCount,
		Resolved:           resolved,
	}, nil
}

// PreflightPublish is the read-only publish pre-check. It never mutates
// state; the UI uses it to enable or disable the publish action.
func (e *Engine) PreflightPublish(ctx context.Context, actor access.Actor, versionID string) (*PreflightResult, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}

	result := &PreflightResult{}
	if sc.level != access.LevelAdmin {
		result.Blockers = append(result.Blockers, "publishing requires admin access")
	}
	if VersionStatus(sc.version.Status) != StatusApproved {
		result.Blockers = append(result.Blockers,
			fmt.Sprintf("version must be approved before publishing (currently %s)", sc.version.Status))
	}

	moduleBlockers, err := e.moduleBlockers(versionID)
	if err != nil {
		return nil, err
	}
	result.Blockers = append(result.Blockers, moduleBlockers...)

	if active := sc.portfolio.ActiveBaselineVersionID; active != nil && *active != versionID {
		result.WillArchiveExisting = true
		result.CurrentActiveBaselineID = *active
	}

	result.CanPublish = len(result.Blockers) == 0
	return result, nil
}

// Publish makes an approved version the portfolio's active baseline.
// When a different version is currently active and the caller has not
// confirmed archival, a ConfirmationRequired result describing what
// would be archived is returned and nothing changes. The actual publish
// archives the old version, records the content hash, and repoints the
// portfolio in a single transaction.
func (e *Engine) Publish(ctx context.Context, actor access.Actor, versionID string, confirmArchivePrevious bool) (*PublishResult, error) {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return nil, err
	}

	var previousActiveID string
	if active := sc.portfolio.ActiveBaselineVersionID; active != nil && *active != versionID {
		previousActiveID = *active
	}

	// Two-phase confirm: surfaced before the role check so the UI can
	// show makers what a publish would archive without mutating anything.
	if previousActiveID != "" && !confirmArchivePrevious {
		current, err := e.store.GetVersion(previousActiveID)
		if err != nil {
			return nil, err
		}
		result := &PublishResult{ConfirmationRequired: true}
		if current != nil {
			view := versionToView(current, sc.portfolio.ActiveBaselineVersionID)
			result.CurrentActiveVersion = &view
		}
		return result, nil
	}

	if sc.level != access.LevelAdmin {
		return nil, forbiddenErr("publishing baseline versions requires admin access")
	}
	if err := e.machine.ValidateOperation(OpPublish, VersionStatus(sc.version.Status)); err != nil {
		return nil, err
	}

	blockers, err := e.moduleBlockers(versionID)
	if err != nil {
		return nil, err
	}
	if len(blockers) > 0 {
		return nil, validationFailedErr(blockers)
	}

	modules, err := e.store.GetModules(versionID)
	if err != nil {
		return nil, err
	}
	hash, err := ContentHash(modules)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	ok, err := e.store.Publish(sc.portfolio.ID, versionID, VersionStatus(sc.version.Status),
		previousActiveID, hash, actor.UserID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, staleStateErr(OpPublish)
	}

	e.appendAudit(actor, "baseline.version.published", sc.portfolio.ID, versionID, "publish", "success", "",
		JSONAny{"activeBaselineVersionId": previousActiveID},
		JSONAny{"activeBaselineVersionId": versionID, "contentHash": hash})

	published, err := e.store.GetVersion(versionID)
	if err != nil {
		return nil, err
	}
	activeID := versionID
	view := versionToView(published, &activeID)
	return &PublishResult{
		Version:           &view,
		ArchivedVersionID: previousActiveID,
	}, nil
}

// Delete removes a draft version and its modules. Deleting anything that
// has left draft, or the portfolio's active version, is refused.
func (e *Engine) Delete(ctx context.Context, actor access.Actor, versionID string) error {
	sc, err := e.load(versionID, actor)
	if err != nil {
		return err
	}
	if sc.level != access.LevelAdmin {
		return forbiddenErr("deleting baseline versions requires admin access")
	}
	if err := e.machine.ValidateOperation(OpDelete, VersionStatus(sc.version.Status)); err != nil {
		return err
	}
	if active := sc.portfolio.ActiveBaselineVersionID; active != nil && *active == versionID {
		return invalidTransitionErr("LIFECYCLE_ACTIVE_VERSION",
			"cannot delete the portfolio's active baseline version")
	}

	ok, err := e.store.DeleteDraftVersion(versionID)
	if err != nil {
		return err
	}
	if !ok {
		return staleStateErr(OpDelete)
	}

	e.appendAudit(actor, "baseline.version.deleted", sc.portfolio.ID, versionID, "delete", "success", "",
		JSONAny{"status": sc.version.Status, "versionNumber": sc.version.VersionNumber}, nil)
	return nil
}

// ListApprovalDecisions returns the review decisions of the current cycle.
func (e *Engine) ListApprovalDecisions(ctx context.Context, actor access.Actor, versionID string) ([]ApprovalDecisionRecord, error) {
	if _, err := e.load(versionID, actor); err != nil {
		return nil, err
	}
	return e.approvals.List(versionID)
}

// AuditPage is one page of audit events plus pagination metadata.
type AuditPage struct {
	Events        []AuditEventRecord `json:"events"`
	NextPageToken string             `json:"nextPageToken,omitempty"`
	TotalSize     int                `json:"totalSize"`
}

// ListVersionHistory returns audit events recorded against one version.
func (e *Engine) ListVersionHistory(ctx context.Context, actor access.Actor, versionID string, pageSize int, pageToken string) (*AuditPage, error) {
	if _, err := e.load(versionID, actor); err != nil {
		return nil, err
	}
	if e.audit == nil {
		return &AuditPage{Events: []AuditEventRecord{}}, nil
	}
	events, next, total, err := e.audit.ListByVersion(versionID, pageSize, pageToken)
	if err != nil {
		return nil, err
	}
	return &AuditPage{Events: events, NextPageToken: next, TotalSize: total}, nil
}

// ListPortfolioHistory returns audit events recorded against a portfolio
// and all of its versions.
func (e *Engine) ListPortfolioHistory(ctx context.Context, actor access.Actor, portfolioID string, pageSize int, pageToken string) (*AuditPage, error) {
	portfolio, err := e.scopedPortfolio(actor, portfolioID)
	if err != nil {
		return nil, err
	}
	level, err := e.roles.EffectiveRole(actor, portfolio.ID, portfolio.CompanyID)
	if err != nil {
		return nil, err
	}
	if !level.CanRead() {
		return nil, forbiddenErr("no access to portfolio %s", portfolioID)
	}
	if e.audit == nil {
		return &AuditPage{Events: []AuditEventRecord{}}, nil
	}
	events, next, total, err := e.audit.ListByPortfolio(portfolioID, pageSize, pageToken)
	if err != nil {
		return nil, err
	}
	return &AuditPage{Events: events, NextPageToken: next, TotalSize: total}, nil
}

// moduleBlockers re-runs the validator over a version's stored modules
// and returns one human-readable blocker per validation error.
func (e *Engine) moduleBlockers(versionID string) ([]string, error) {
	modules, err := e.store.GetModules(versionID)
	if err != nil {
		return nil, err
	}

	present := make(map[ModuleType]bool, len(modules))
	var blockers []string
	for _, m := range modules {
		moduleType := ModuleType(m.ModuleType)
		present[moduleType] = true
		validation := ValidateModule(moduleType, m.Payload)
		for _, ve := range validation.Errors {
			blockers = append(blockers, fmt.Sprintf("%s: %s (%s)", m.ModuleType, ve.Message, ve.Field))
		}
	}
	for _, required := range RequiredModuleTypes {
		if !present[required] {
			blockers = append(blockers, fmt.Sprintf("%s: module is missing", required))
		}
	}
	return blockers, nil
}

// permissions derives the caller's flags from (status x role). Derived
// on every read, never stored.
func (e *Engine) permissions(version *BaselineVersionRecord, portfolio *PortfolioRecord, level access.AccessLevel) PermissionFlags {
	status := VersionStatus(version.Status)
	mutable := e.machine.Mutable(status)
	isActive := portfolio.ActiveBaselineVersionID != nil && *portfolio.ActiveBaselineVersionID == version.ID
	return PermissionFlags{
		CanEdit:    mutable && level.CanMake(),
		CanSubmit:  mutable && level.CanMake(),
		CanApprove: status == StatusPendingApproval && level.CanCheck(),
		CanReject:  status == StatusPendingApproval && level.CanCheck(),
		CanPublish: status == StatusApproved && level == access.LevelAdmin,
		CanDelete:  status == StatusDraft && level == access.LevelAdmin && !isActive,
	}
}

func (e *Engine) detail(version *BaselineVersionRecord, portfolio *PortfolioRecord, level access.AccessLevel, modules []BaselineModuleRecord) (*VersionDetail, error) {
	views := make([]ModuleView, len(modules))
	for i := range modules {
		views[i] = moduleToView(&modules[i])
	}
	return &VersionDetail{
		Version:     versionToView(version, portfolio.ActiveBaselineVersionID),
		Modules:     views,
		Permissions: e.permissions(version, portfolio, level),
	}, nil
}

func (e *Engine) scopedPortfolio(actor access.Actor, portfolioID string) (*PortfolioRecord, error) {
	portfolio, err := e.store.GetPortfolio(portfolioID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil || portfolio.CompanyID != actor.CompanyID {
		return nil, notFoundErr("portfolio %s not found", portfolioID)
	}
	return portfolio, nil
}

func (e *Engine) refreshView(versionID string, portfolio *PortfolioRecord) (*VersionView, error) {
	version, err := e.store.GetVersion(versionID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, notFoundErr("baseline version %s not found", versionID)
	}
	view := versionToView(version, portfolio.ActiveBaselineVersionID)
	return &view, nil
}

// appendAudit records a best-effort audit event; a failed audit write
// never fails the operation itself.
func (e *Engine) appendAudit(actor access.Actor, eventType, portfolioID, versionID, action, outcome, reason string, oldValue, newValue JSONAny) {
	if e.audit == nil {
		return
	}
	_ = e.audit.Append(&AuditEventRecord{
		ID:            uuid.New().String(),
		CompanyID:     actor.CompanyID,
		CorrelationID: uuid.New().String(),
		EventType:     eventType,
		Actor:         actor.UserID,
		PortfolioID:   portfolioID,
		VersionID:     versionID,
		Action:        action,
		Outcome:       outcome,
		Reason:        reason,
		OldValue:      oldValue,
		NewValue:      newValue,
	})
}

func staleStateErr(op Operation) *OpError {
	return invalidTransitionErr("LIFECYCLE_STALE_STATE",
		"version was no longer in the expected status for %s; a concurrent change applied first", op)
}

func versionToView(record *BaselineVersionRecord, activeID *string) VersionView {
	view := VersionView{
		ID:              record.ID,
		PortfolioID:     record.PortfolioID,
		VersionNumber:   record.VersionNumber,
		Status:          VersionStatus(record.Status),
		ParentVersionID: record.ParentVersionID,
		ChangeSummary:   record.ChangeSummary,
		ContentHash:     record.ContentHash,
		CreatedBy:       record.CreatedBy,
		CreatedAt:       record.CreatedAt.Format(time.RFC3339),
		SubmittedBy:     record.SubmittedBy,
		ApprovedBy:      record.ApprovedBy,
		RejectedBy:      record.RejectedBy,
		RejectionReason: record.RejectionReason,
		PublishedBy:     record.PublishedBy,
		IsActive:        activeID != nil && *activeID == record.ID,
	}
	if record.SubmittedAt != nil {
		view.SubmittedAt = record.SubmittedAt.Format(time.RFC3339)
	}
	if record.ApprovedAt != nil {
		view.ApprovedAt = record.ApprovedAt.Format(time.RFC3339)
	}
	if record.RejectedAt != nil {
		view.RejectedAt = record.RejectedAt.Format(time.RFC3339)
	}
	if record.PublishedAt != nil {
		view.PublishedAt = record.PublishedAt.Format(time.RFC3339)
	}
	return view
}

func moduleToView(record *BaselineModuleRecord) ModuleView {
	return ModuleView{
		ID:               record.ID,
		ModuleType:       ModuleType(record.ModuleType),
		SchemaVersion:    record.SchemaVersion,
		Payload:          map[string]any(record.Payload),
		IsComplete:       record.IsComplete,
		IsValid:          record.IsValid,
		ValidationErrors: []ValidationError(record.ValidationErrors),
	}
}

func portfolioToView(record *PortfolioRecord) PortfolioView {
	view := PortfolioView{
		ID:        record.ID,
		CompanyID: record.CompanyID,
		Name:      record.Name,
		Industry:  record.Industry,
		Status:    record.Status,
		Currency:  record.Currency,
		Timezone:  record.Timezone,
		CreatedAt: record.CreatedAt.Format(time.RFC3339),
	}
	if record.ActiveBaselineVersionID != nil {
		view.ActiveBaselineVersionID = *record.ActiveBaselineVersionID
	}
	return view
}
