package access

// RoleResolver computes the single effective per-portfolio role for an
// actor. Keeping the role policy in one resolution function keeps it
// testable in isolation and out of every endpoint.
type RoleResolver interface {
	// EffectiveRole resolves the actor's access level on the portfolio
	// identified by portfolioID, owned by portfolioCompanyID. Actors from
	// a different company always resolve to LevelNone.
	EffectiveRole(actor Actor, portfolioID, portfolioCompanyID string) (AccessLevel, error)
}

// Resolver resolves effective roles from company role plus stored
// portfolio memberships.
type Resolver struct {
	memberships *MembershipStore
}

// NewResolver creates a Resolver backed by the given membership store.
func NewResolver(memberships *MembershipStore) *Resolver {
	return &Resolver{memberships: memberships}
}

// EffectiveRole implements RoleResolver.
func (r *Resolver) EffectiveRole(actor Actor, portfolioID, portfolioCompanyID string) (AccessLevel, error) {
	if actor.CompanyID == "" || actor.CompanyID != portfolioCompanyID {
		return LevelNone, nil
	}
	if actor.IsCompanyAdmin() {
		return LevelAdmin, nil
	}

	member, err := r.memberships.Get(portfolioID, actor.UserID)
	if err != nil {
		return LevelNone, err
	}
	if member == nil {
		return LevelNone, nil
	}

	switch AccessLevel(member.AccessLevel) {
	case LevelMaker:
		return LevelMaker, nil
	case LevelChecker:
		return LevelChecker, nil
	case LevelViewer:
		return LevelViewer, nil
	}
	return LevelNone, nil
}

// StaticResolver returns a fixed access level for every portfolio in the
// actor's company. Used by tests and single-user deployments.
type StaticResolver struct {
	Level AccessLevel
}

// EffectiveRole implements RoleResolver.
func (r StaticResolver) EffectiveRole(actor Actor, portfolioID, portfolioCompanyID string) (AccessLevel, error) {
	if actor.CompanyID != portfolioCompanyID {
		return LevelNone, nil
	}
	if actor.IsCompanyAdmin() {
		return LevelAdmin, nil
	}
	return r.Level, nil
}
