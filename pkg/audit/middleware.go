package audit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/juris-platform/baseline/pkg/access"
	"github.com/juris-platform/baseline/pkg/baseline"
)

// responseCapture wraps http.ResponseWriter to capture the status code.
type responseCapture struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rc *responseCapture) WriteHeader(code int) {
	if !rc.written {
		rc.statusCode = code
		rc.written = true
	}
	rc.ResponseWriter.WriteHeader(code)
}

func (rc *responseCapture) Write(b []byte) (int, error) {
	if !rc.written {
		rc.statusCode = http.StatusOK
		rc.written = true
	}
	return rc.ResponseWriter.Write(b)
}

// Middleware records an audit event for every mutating API request. It
// wraps the ResponseWriter to capture the status code and appends the
// event after the handler completes. Request-level events complement the
// finer-grained lifecycle events the engine writes itself: the engine
// records what changed, this layer records who called what and whether
// it was allowed.
func Middleware(store *baseline.AuditStore, cfg *Config, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg == nil || !cfg.Enabled || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !isAuditedEndpoint(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			startTime := time.Now()
			capture := &responseCapture{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(capture, r)

			outcome := outcomeFromStatus(capture.statusCode)
			if outcome == "denied" && !cfg.LogDenied {
				return
			}

			ctx := r.Context()
			actorID := "anonymous"
			companyID := ""
			if actor, ok := access.ActorFromContext(ctx); ok {
				actorID = actor.UserID
				companyID = actor.CompanyID
			}

			requestID := middleware.GetReqID(ctx)
			correlationID := r.Header.Get("X-Correlation-ID")
			if correlationID == "" {
				correlationID = requestID
			}

			event := &baseline.AuditEventRecord{
				ID:            uuid.New().String(),
				CompanyID:     companyID,
				CorrelationID: correlationID,
				EventType:     "request",
				Actor:         actorID,
				RequestID:     requestID,
				PortfolioID:   extractPortfolioID(r.URL.Path),
				VersionID:     extractVersionID(r.URL.Path),
				Action:        extractActionVerb(r.Method, r.URL.Path),
				Outcome:       outcome,
				StatusCode:    capture.statusCode,
				CreatedAt:     startTime,
				NewValue: baseline.JSONAny{
					"method":   r.Method,
					"path":     r.URL.Path,
					"duration": time.Since(startTime).String(),
				},
			}

			// Best-effort write: a failed audit append never fails the
			// request that already completed.
			if err := store.Append(event); err != nil {
				logger.Error("failed to write audit event", "error", err, "requestID", requestID)
			}
		})
	}
}
