package audit

import (
	"net/http"
	"strings"
)

// extractPortfolioID pulls the portfolio id out of an API path like
// /api/v1/portfolios/{id}/versions.
func extractPortfolioID(path string) string {
	return segmentAfter(path, "portfolios")
}

// extractVersionID pulls the version id out of an API path like
// /api/v1/versions/{id}/submit.
func extractVersionID(path string) string {
	return segmentAfter(path, "versions")
}

func segmentAfter(path, marker string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	for i, p := range parts {
		if p == marker && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}

// extractActionVerb returns a human-readable action name from the HTTP
// method and path. Lifecycle endpoints carry the action as the last path
// segment; everything else falls back to the method.
func extractActionVerb(method, path string) string {
	parts := strings.Split(strings.TrimSuffix(path, "/"), "/")
	if len(parts) > 0 {
		switch last := parts[len(parts)-1]; last {
		case "submit", "approve", "reject", "publish", "preflight":
			return last
		}
	}

	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut:
		return "update"
	case http.MethodPatch:
		return "patch"
	case http.MethodDelete:
		return "delete"
	default:
		return strings.ToLower(method)
	}
}

// isAuditedEndpoint returns true if the request should be audited.
// Mutating methods are audited; pure browsing (GET) and health probes
// are not.
func isAuditedEndpoint(method, path string) bool {
	if isHealthEndpoint(path) {
		return false
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// isHealthEndpoint returns true for health-check paths.
func isHealthEndpoint(path string) bool {
	switch path {
	case "/livez", "/readyz", "/healthz":
		return true
	}
	return false
}

// outcomeFromStatus maps HTTP status codes to audit outcomes.
func outcomeFromStatus(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code == http.StatusForbidden:
		return "denied"
	default:
		return "failure"
	}
}
