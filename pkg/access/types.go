// Package access provides identity extraction and effective-role
// resolution for baseline operations. Company owners and org admins are
// implicit admins on every portfolio in their company; everyone else
// gets the access level of their portfolio membership.
package access

// CompanyRole is a user's company-wide role.
type CompanyRole string

const (
	CompanyRoleOwner    CompanyRole = "owner"
	CompanyRoleOrgAdmin CompanyRole = "org_admin"
	CompanyRoleMember   CompanyRole = "member"
)

// AccessLevel is the effective per-portfolio role used by the lifecycle
// engine's permission checks.
type AccessLevel string

const (
	LevelAdmin   AccessLevel = "admin"
	LevelMaker   AccessLevel = "maker"
	LevelChecker AccessLevel = "checker"
	LevelViewer  AccessLevel = "viewer"
	LevelNone    AccessLevel = ""
)

// MembershipLevels are the access levels a portfolio membership may carry.
// Admin is never stored on a membership; it is derived from company role.
var MembershipLevels = []AccessLevel{LevelMaker, LevelChecker, LevelViewer}

// Actor is the authenticated caller of a lifecycle operation. The engine
// never relies on ambient identity; an Actor is threaded into every call.
type Actor struct {
	UserID      string
	CompanyID   string
	CompanyRole CompanyRole
}

// IsCompanyAdmin returns true when the actor's company role grants
// implicit admin access on every portfolio in the company.
func (a Actor) IsCompanyAdmin() bool {
	return a.CompanyRole == CompanyRoleOwner || a.CompanyRole == CompanyRoleOrgAdmin
}

// CanMake returns true when the level may propose baseline changes.
func (l AccessLevel) CanMake() bool {
	return l == LevelMaker || l == LevelAdmin
}

// CanCheck returns true when the level may approve or reject submissions.
func (l AccessLevel) CanCheck() bool {
	return l == LevelChecker || l == LevelAdmin
}

// CanRead returns true when the level may see portfolio baselines at all.
func (l AccessLevel) CanRead() bool {
	return l != LevelNone
}
