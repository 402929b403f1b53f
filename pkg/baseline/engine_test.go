package baseline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/juris-platform/baseline/pkg/access"
)

var (
	adminActor   = access.Actor{UserID: "olivia", CompanyID: "acme", CompanyRole: access.CompanyRoleOwner}
	makerActor   = access.Actor{UserID: "mia", CompanyID: "acme", CompanyRole: access.CompanyRoleMember}
	checkerActor = access.Actor{UserID: "carl", CompanyID: "acme", CompanyRole: access.CompanyRoleMember}
	checker2     = access.Actor{UserID: "cora", CompanyID: "acme", CompanyRole: access.CompanyRoleMember}
	viewerActor  = access.Actor{UserID: "vera", CompanyID: "acme", CompanyRole: access.CompanyRoleMember}
	outsider     = access.Actor{UserID: "zed", CompanyID: "rival", CompanyRole: access.CompanyRoleOwner}
)

type engineFixture struct {
	db          *gorm.DB
	engine      *Engine
	store       *Store
	audit       *AuditStore
	memberships *access.MembershipStore
}

func newEngineFixture(t *testing.T, evaluator *ApprovalEvaluator) *engineFixture {
	t.Helper()
	db := newTestDB(t)
	store := NewStore(db)
	approvals := NewApprovalStore(db)
	require.NoError(t, approvals.AutoMigrate())
	memberships := access.NewMembershipStore(db)
	require.NoError(t, memberships.AutoMigrate())
	audit := NewAuditStore(db)

	engine := NewEngine(store, approvals, audit, access.NewResolver(memberships), evaluator)
	return &engineFixture{db: db, engine: engine, store: store, audit: audit, memberships: memberships}
}

// newPortfolio creates a portfolio as the company admin and grants the
// standard maker/checker/viewer memberships.
func (f *engineFixture) newPortfolio(t *testing.T) *PortfolioView {
	t.Helper()
	ctx := context.Background()
	portfolio, err := f.engine.CreatePortfolio(ctx, adminActor, "Growth Fund I", "technology", "USD", "America/New_York")
	require.NoError(t, err)

	for user, level := range map[string]access.AccessLevel{
		makerActor.UserID:   access.LevelMaker,
		checkerActor.UserID: access.LevelChecker,
		checker2.UserID:     access.LevelChecker,
		viewerActor.UserID:  access.LevelViewer,
	} {
		require.NoError(t, f.memberships.Grant(&access.PortfolioMemberRecord{
			PortfolioID: portfolio.ID,
			UserID:      user,
			AccessLevel: string(level),
			GrantedBy:   adminActor.UserID,
		}))
	}
	return portfolio
}

// newFilledDraft creates a draft version with every module payload valid.
func (f *engineFixture) newFilledDraft(t *testing.T, portfolioID string) *VersionDetail {
	t.Helper()
	ctx := context.Background()
	detail, err := f.engine.CreateVersion(ctx, makerActor, portfolioID, "", "initial baseline")
	require.NoError(t, err)
	for moduleType, payload := range validPayloads() {
		_, err := f.engine.UpdateModule(ctx, makerActor, detail.Version.ID, moduleType, payload)
		require.NoError(t, err)
	}
	return detail
}

// approveVersion walks a filled draft through submit and approve.
func (f *engineFixture) approveVersion(t *testing.T, versionID string) {
	t.Helper()
	ctx := context.Background()
	_, err := f.engine.Submit(ctx, makerActor, versionID)
	require.NoError(t, err)
	outcome, err := f.engine.Approve(ctx, checkerActor, versionID, "")
	require.NoError(t, err)
	require.True(t, outcome.Resolved)
}

func TestEngine_CreatePortfolioRequiresCompanyAdmin(t *testing.T) {
	f := newEngineFixture(t, nil)
	ctx := context.Background()

	_, err := f.engine.CreatePortfolio(ctx, makerActor, "Side Fund", "finance", "EUR", "Europe/Berlin")
	assert.Equal(t, KindForbidden, KindOf(err))

	portfolio, err := f.engine.CreatePortfolio(ctx, adminActor, "Main Fund", "finance", "EUR", "Europe/Berlin")
	require.NoError(t, err)
	assert.Equal(t, "acme", portfolio.CompanyID)
	assert.Equal(t, "active", portfolio.Status)
}

func TestEngine_CreateVersionSeedsAllModules(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	detail, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, "", "first pass")
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, detail.Version.Status)
	assert.Equal(t, 1, detail.Version.VersionNumber)
	assert.Equal(t, makerActor.UserID, detail.Version.CreatedBy)
	require.Len(t, detail.Modules, len(RequiredModuleTypes))

	byType := map[ModuleType]ModuleView{}
	for _, m := range detail.Modules {
		byType[m.ModuleType] = m
	}
	for _, required := range RequiredModuleTypes {
		assert.Contains(t, byType, required)
	}
	// Empty mandate terms cannot be valid yet; empty exclusions are fine.
	assert.False(t, byType[ModuleMandateTerms].IsValid)
	assert.True(t, byType[ModuleExclusions].IsValid)

	assert.True(t, detail.Permissions.CanEdit)
	assert.True(t, detail.Permissions.CanSubmit)
	assert.False(t, detail.Permissions.CanApprove)
	assert.False(t, detail.Permissions.CanPublish)
}

func TestEngine_CreateVersionCopiesParentPayloads(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	parent := f.newFilledDraft(t, portfolio.ID)

	child, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, parent.Version.ID, "copy of v1")
	require.NoError(t, err)
	assert.Equal(t, 2, child.Version.VersionNumber)
	assert.Equal(t, parent.Version.ID, child.Version.ParentVersionID)

	for _, m := range child.Modules {
		assert.True(t, m.IsValid, "%s should inherit a valid payload", m.ModuleType)
	}
}

func TestEngine_CreateVersionRequiresMaker(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	_, err := f.engine.CreateVersion(ctx, viewerActor, portfolio.ID, "", "")
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = f.engine.CreateVersion(ctx, checkerActor, portfolio.ID, "", "")
	assert.Equal(t, KindForbidden, KindOf(err))

	// Company admins are implicit makers.
	_, err = f.engine.CreateVersion(ctx, adminActor, portfolio.ID, "", "")
	assert.NoError(t, err)
}

func TestEngine_CrossCompanyResolvesToNotFound(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.GetDetail(ctx, outsider, detail.Version.ID)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = f.engine.GetPortfolio(ctx, outsider, portfolio.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestEngine_MemberWithoutMembershipIsForbidden(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	stranger := access.Actor{UserID: "sam", CompanyID: "acme", CompanyRole: access.CompanyRoleMember}
	_, err := f.engine.GetDetail(ctx, stranger, detail.Version.ID)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestEngine_UpdateModule(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	detail, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, "", "")
	require.NoError(t, err)
	versionID := detail.Version.ID

	view, err := f.engine.UpdateModule(ctx, makerActor, versionID, ModuleRiskAppetite, validPayloads()[ModuleRiskAppetite])
	require.NoError(t, err)
	assert.True(t, view.IsValid)
	assert.True(t, view.IsComplete)

	// An invalid payload is stored with its errors; storage never blocks.
	view, err = f.engine.UpdateModule(ctx, makerActor, versionID, ModuleRiskAppetite, map[string]any{"tolerance": "reckless"})
	require.NoError(t, err)
	assert.False(t, view.IsValid)
	require.NotEmpty(t, view.ValidationErrors)
	assert.Equal(t, "tolerance", view.ValidationErrors[0].Field)

	_, err = f.engine.UpdateModule(ctx, viewerActor, versionID, ModuleRiskAppetite, map[string]any{})
	assert.Equal(t, KindForbidden, KindOf(err))

	_, err = f.engine.UpdateModule(ctx, makerActor, versionID, ModuleType("side_letters"), map[string]any{})
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestEngine_UpdateModuleFrozenAfterSubmit(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)

	_, err = f.engine.UpdateModule(ctx, makerActor, detail.Version.ID, ModuleExclusions, map[string]any{})
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestEngine_SubmitBlockedByInvalidModules(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	detail, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, "", "")
	require.NoError(t, err)

	_, err = f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.Error(t, err)
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, KindValidationFailed, oe.Kind)
	assert.NotEmpty(t, oe.Blockers)

	// Nothing moved.
	after, err := f.engine.GetDetail(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, after.Version.Status)
}

func TestEngine_SubmitHappyPath(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	view, err := f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPendingApproval, view.Status)
	assert.Equal(t, makerActor.UserID, view.SubmittedBy)
	assert.NotEmpty(t, view.SubmittedAt)

	_, err = f.engine.Submit(ctx, viewerActor, detail.Version.ID)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestEngine_ApproveDefaultGate(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)

	// Makers may not review their own lane.
	_, err = f.engine.Approve(ctx, makerActor, detail.Version.ID, "")
	assert.Equal(t, KindForbidden, KindOf(err))

	outcome, err := f.engine.Approve(ctx, checkerActor, detail.Version.ID, "numbers check out")
	require.NoError(t, err)
	assert.True(t, outcome.Resolved)
	assert.Equal(t, 1, outcome.ApprovalsRecorded)
	assert.Equal(t, 1, outcome.RequiredCount)
	assert.Equal(t, StatusApproved, outcome.Version.Status)
	assert.Equal(t, checkerActor.UserID, outcome.Version.ApprovedBy)
}

func TestEngine_ApproveMultiApprovalPolicy(t *testing.T) {
	evaluator := NewApprovalEvaluator([]ApprovalPolicy{{
		ID:       "dual-control",
		Enabled:  true,
		Selector: PolicySelector{Industries: []string{"technology"}},
		Gate:     ApprovalGate{RequiredCount: 2, RejectOnFirst: true},
	}})
	f := newEngineFixture(t, evaluator)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)

	first, err := f.engine.Approve(ctx, checkerActor, detail.Version.ID, "")
	require.NoError(t, err)
	assert.False(t, first.Resolved)
	assert.Equal(t, 1, first.ApprovalsRecorded)
	assert.Equal(t, 2, first.RequiredCount)
	assert.Equal(t, StatusPendingApproval, first.Version.Status)

	second, err := f.engine.Approve(ctx, checker2, detail.Version.ID, "")
	require.NoError(t, err)
	assert.True(t, second.Resolved)
	assert.Equal(t, StatusApproved, second.Version.Status)
}

func TestEngine_RejectConsensusPolicy(t *testing.T) {
	evaluator := NewApprovalEvaluator([]ApprovalPolicy{{
		ID:       "dual-control",
		Enabled:  true,
		Selector: PolicySelector{Industries: []string{"technology"}},
		Gate:     ApprovalGate{RequiredCount: 2, RejectOnFirst: false},
	}})
	f := newEngineFixture(t, evaluator)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)

	// One dissenting reviewer does not resolve the cycle under a
	// consensus gate.
	first, err := f.engine.Reject(ctx, checkerActor, detail.Version.ID, "limits too loose")
	require.NoError(t, err)
	assert.False(t, first.Resolved)
	assert.Equal(t, 1, first.RejectionsRecorded)
	assert.Equal(t, 2, first.RequiredCount)
	assert.Equal(t, StatusPendingApproval, first.Version.Status)

	second, err := f.engine.Reject(ctx, checker2, detail.Version.ID, "agreed, limits too loose")
	require.NoError(t, err)
	assert.True(t, second.Resolved)
	assert.Equal(t, 2, second.RejectionsRecorded)
	assert.Equal(t, StatusRejected, second.Version.Status)
	assert.Equal(t, checker2.UserID, second.Version.RejectedBy)
}

func TestEngine_RejectRequiresReason(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.Submit(ctx, makerActor, detail.Version.ID)
	require.NoError(t, err)

	_, err = f.engine.Reject(ctx, checkerActor, detail.Version.ID, "")
	require.Error(t, err)
	assert.Empty(t, KindOf(err))
	assert.Contains(t, err.Error(), "reason")

	outcome, err := f.engine.Reject(ctx, checkerActor, detail.Version.ID, "exclusion criteria too vague")
	require.NoError(t, err)
	assert.True(t, outcome.Resolved)
	assert.Equal(t, StatusRejected, outcome.Version.Status)
	assert.Equal(t, checkerActor.UserID, outcome.Version.RejectedBy)
	assert.Equal(t, "exclusion criteria too vague", outcome.Version.RejectionReason)
}

func TestEngine_ResubmitAfterRejectionClearsDecisions(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)
	versionID := detail.Version.ID

	_, err := f.engine.Submit(ctx, makerActor, versionID)
	require.NoError(t, err)
	_, err = f.engine.Reject(ctx, checkerActor, versionID, "tighten the limits")
	require.NoError(t, err)

	// A rejected version stays editable.
	_, err = f.engine.UpdateModule(ctx, makerActor, versionID, ModuleRiskAppetite, validPayloads()[ModuleRiskAppetite])
	require.NoError(t, err)

	_, err = f.engine.Submit(ctx, makerActor, versionID)
	require.NoError(t, err)

	decisions, err := f.engine.ListApprovalDecisions(ctx, checkerActor, versionID)
	require.NoError(t, err)
	assert.Empty(t, decisions, "a new review cycle starts from zero decisions")

	// The same checker may decide again in the new cycle.
	outcome, err := f.engine.Approve(ctx, checkerActor, versionID, "fixed")
	require.NoError(t, err)
	assert.True(t, outcome.Resolved)
}

func TestEngine_PublishRequiresApprovedStatus(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	_, err := f.engine.Publish(ctx, adminActor, detail.Version.ID, false)
	require.Error(t, err)
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, KindInvalidTransition, oe.Kind)
	assert.Equal(t, "LIFECYCLE_INVALID_TRANSITION", oe.Code)
}

func TestEngine_PublishFirstVersion(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, detail.Version.ID)

	// No previously active version means no confirmation round-trip.
	result, err := f.engine.Publish(ctx, adminActor, detail.Version.ID, false)
	require.NoError(t, err)
	assert.False(t, result.ConfirmationRequired)
	require.NotNil(t, result.Version)
	assert.Equal(t, StatusPublished, result.Version.Status)
	assert.True(t, result.Version.IsActive)
	assert.NotEmpty(t, result.Version.ContentHash)
	assert.Empty(t, result.ArchivedVersionID)

	got, err := f.engine.GetPortfolio(ctx, adminActor, portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, detail.Version.ID, got.ActiveBaselineVersionID)
}

func TestEngine_PublishRequiresAdmin(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, detail.Version.ID)

	_, err := f.engine.Publish(ctx, makerActor, detail.Version.ID, false)
	assert.Equal(t, KindForbidden, KindOf(err))
	_, err = f.engine.Publish(ctx, checkerActor, detail.Version.ID, false)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestEngine_PublishSecondVersionNeedsConfirmation(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	v1 := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, v1.Version.ID)
	_, err := f.engine.Publish(ctx, adminActor, v1.Version.ID, false)
	require.NoError(t, err)

	v2, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, v1.Version.ID, "tighter limits")
	require.NoError(t, err)
	f.approveVersion(t, v2.Version.ID)

	// Without confirmation the call changes nothing and reports what
	// would be archived.
	result, err := f.engine.Publish(ctx, adminActor, v2.Version.ID, false)
	require.NoError(t, err)
	assert.True(t, result.ConfirmationRequired)
	require.NotNil(t, result.CurrentActiveVersion)
	assert.Equal(t, v1.Version.ID, result.CurrentActiveVersion.ID)
	assert.Nil(t, result.Version)

	stillV1, err := f.engine.GetPortfolio(ctx, adminActor, portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.Version.ID, stillV1.ActiveBaselineVersionID)

	// Confirmed: archive v1, publish v2, repoint the portfolio.
	result, err = f.engine.Publish(ctx, adminActor, v2.Version.ID, true)
	require.NoError(t, err)
	assert.False(t, result.ConfirmationRequired)
	assert.Equal(t, v1.Version.ID, result.ArchivedVersionID)
	assert.Equal(t, StatusPublished, result.Version.Status)

	archived, err := f.engine.GetDetail(ctx, adminActor, v1.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, archived.Version.Status)
	assert.False(t, archived.Version.IsActive)

	now, err := f.engine.GetPortfolio(ctx, adminActor, portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, v2.Version.ID, now.ActiveBaselineVersionID)
}

func TestEngine_ConfirmationSurfacesBeforeRoleCheck(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	v1 := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, v1.Version.ID)
	_, err := f.engine.Publish(ctx, adminActor, v1.Version.ID, false)
	require.NoError(t, err)

	v2 := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, v2.Version.ID)

	// A maker probing the publish action sees the confirmation signal,
	// not a role refusal; the actual publish is still admin-only.
	result, err := f.engine.Publish(ctx, makerActor, v2.Version.ID, false)
	require.NoError(t, err)
	assert.True(t, result.ConfirmationRequired)

	_, err = f.engine.Publish(ctx, makerActor, v2.Version.ID, true)
	assert.Equal(t, KindForbidden, KindOf(err))
}

func TestEngine_PreflightPublish(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	draft, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, "", "")
	require.NoError(t, err)

	// A maker on an unfilled draft collects every blocker at once.
	result, err := f.engine.PreflightPublish(ctx, makerActor, draft.Version.ID)
	require.NoError(t, err)
	assert.False(t, result.CanPublish)
	assert.Contains(t, result.Blockers, "publishing requires admin access")
	assert.NotEmpty(t, result.Blockers)
	assert.False(t, result.WillArchiveExisting)

	filled := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, filled.Version.ID)

	result, err = f.engine.PreflightPublish(ctx, adminActor, filled.Version.ID)
	require.NoError(t, err)
	assert.True(t, result.CanPublish)
	assert.Empty(t, result.Blockers)

	// Preflight never mutates.
	after, err := f.engine.GetDetail(ctx, adminActor, filled.Version.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, after.Version.Status)
}

func TestEngine_PreflightReportsArchiveImpact(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	v1 := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, v1.Version.ID)
	_, err := f.engine.Publish(ctx, adminActor, v1.Version.ID, false)
	require.NoError(t, err)

	v2 := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, v2.Version.ID)

	result, err := f.engine.PreflightPublish(ctx, adminActor, v2.Version.ID)
	require.NoError(t, err)
	assert.True(t, result.CanPublish)
	assert.True(t, result.WillArchiveExisting)
	assert.Equal(t, v1.Version.ID, result.CurrentActiveBaselineID)
}

func TestEngine_DeleteDraft(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	draft, err := f.engine.CreateVersion(ctx, makerActor, portfolio.ID, "", "scratch")
	require.NoError(t, err)

	err = f.engine.Delete(ctx, makerActor, draft.Version.ID)
	assert.Equal(t, KindForbidden, KindOf(err))

	require.NoError(t, f.engine.Delete(ctx, adminActor, draft.Version.ID))

	_, err = f.engine.GetDetail(ctx, adminActor, draft.Version.ID)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestEngine_DeletePublishedRefused(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	v1 := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, v1.Version.ID)
	_, err := f.engine.Publish(ctx, adminActor, v1.Version.ID, false)
	require.NoError(t, err)

	err = f.engine.Delete(ctx, adminActor, v1.Version.ID)
	assert.Equal(t, KindInvalidTransition, KindOf(err))
}

func TestEngine_PermissionFlagsPerRole(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)
	versionID := detail.Version.ID

	_, err := f.engine.Submit(ctx, makerActor, versionID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		actor access.Actor
		want  PermissionFlags
	}{
		{"maker on pending", makerActor, PermissionFlags{}},
		{"checker on pending", checkerActor, PermissionFlags{CanApprove: true, CanReject: true}},
		{"viewer on pending", viewerActor, PermissionFlags{}},
		{"admin on pending", adminActor, PermissionFlags{CanApprove: true, CanReject: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.engine.GetDetail(ctx, tt.actor, versionID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Permissions)
		})
	}

	outcome, err := f.engine.Approve(ctx, checkerActor, versionID, "")
	require.NoError(t, err)
	require.True(t, outcome.Resolved)

	// Only the admin may publish an approved version.
	got, err := f.engine.GetDetail(ctx, adminActor, versionID)
	require.NoError(t, err)
	assert.Equal(t, PermissionFlags{CanPublish: true}, got.Permissions)

	got, err = f.engine.GetDetail(ctx, checkerActor, versionID)
	require.NoError(t, err)
	assert.Equal(t, PermissionFlags{}, got.Permissions)
}

func TestEngine_RoleChangeTakesEffectImmediately(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)

	before, err := f.engine.GetDetail(ctx, viewerActor, detail.Version.ID)
	require.NoError(t, err)
	assert.False(t, before.Permissions.CanEdit)

	// Flags are derived per read, so a membership change shows up on the
	// very next call.
	require.NoError(t, f.memberships.Grant(&access.PortfolioMemberRecord{
		PortfolioID: portfolio.ID,
		UserID:      viewerActor.UserID,
		AccessLevel: string(access.LevelMaker),
		GrantedBy:   adminActor.UserID,
	}))

	after, err := f.engine.GetDetail(ctx, viewerActor, detail.Version.ID)
	require.NoError(t, err)
	assert.True(t, after.Permissions.CanEdit)
}

func TestEngine_ListVersions(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()

	f.newFilledDraft(t, portfolio.ID)
	f.newFilledDraft(t, portfolio.ID)
	f.newFilledDraft(t, portfolio.ID)

	result, err := f.engine.ListVersions(ctx, viewerActor, portfolio.ID, 10, "")
	require.NoError(t, err)
	require.Len(t, result.Versions, 3)
	assert.Equal(t, 3, result.Versions[0].VersionNumber)
	assert.Equal(t, 3, result.TotalSize)
}

func TestEngine_AuditTrailRecordsLifecycle(t *testing.T) {
	f := newEngineFixture(t, nil)
	portfolio := f.newPortfolio(t)
	ctx := context.Background()
	detail := f.newFilledDraft(t, portfolio.ID)
	f.approveVersion(t, detail.Version.ID)
	_, err := f.engine.Publish(ctx, adminActor, detail.Version.ID, false)
	require.NoError(t, err)

	page, err := f.engine.ListVersionHistory(ctx, viewerActor, detail.Version.ID, 50, "")
	require.NoError(t, err)

	types := map[string]bool{}
	for _, e := range page.Events {
		types[e.EventType] = true
	}
	for _, want := range []string{
		"baseline.version.created",
		"baseline.module.updated",
		"baseline.version.submitted",
		"baseline.version.approved",
		"baseline.version.published",
	} {
		assert.True(t, types[want], "missing audit event %s", want)
	}
}
