package access

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// actorCtxKey is an unexported type used as the context key for Actor.
type actorCtxKey struct{}

// WithActor returns a new context with the given Actor attached.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorCtxKey{}, actor)
}

// ActorFromContext retrieves the Actor from the context. Returns the zero
// value and false if no actor is set.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorCtxKey{}).(Actor)
	return a, ok
}

// IdentityMiddleware returns HTTP middleware that extracts the caller's
// identity from X-User-Id, X-Company-Id, and X-Company-Role headers and
// stores it in the request context. These headers are set by the
// session-terminating proxy in front of the service; requests without
// X-User-Id are rejected with 401.
func IdentityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get("X-User-Id"))
			if userID == "" {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "unauthorized",
					"message": "missing X-User-Id header",
				})
				return
			}

			role := CompanyRole(strings.TrimSpace(r.Header.Get("X-Company-Role")))
			switch role {
			case CompanyRoleOwner, CompanyRoleOrgAdmin, CompanyRoleMember:
			default:
				role = CompanyRoleMember
			}

			actor := Actor{
				UserID:      userID,
				CompanyID:   strings.TrimSpace(r.Header.Get("X-Company-Id")),
				CompanyRole: role,
			}
			ctx := WithActor(r.Context(), actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
