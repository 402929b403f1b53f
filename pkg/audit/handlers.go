package audit

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/juris-platform/baseline/pkg/access"
	"github.com/juris-platform/baseline/pkg/baseline"
)

// ListEventsHandler handles GET /events. The query is always scoped to
// the caller's company; actor, eventType, outcome, and portfolioId
// narrow it further. Company admins only: the audit log exposes activity
// across every portfolio.
func ListEventsHandler(store *baseline.AuditStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}
		if !actor.IsCompanyAdmin() {
			writeError(w, http.StatusForbidden, "audit queries require a company admin role")
			return
		}

		filter := baseline.AuditFilter{
			CompanyID:   actor.CompanyID,
			Actor:       r.URL.Query().Get("actor"),
			EventType:   r.URL.Query().Get("eventType"),
			Outcome:     r.URL.Query().Get("outcome"),
			PortfolioID: r.URL.Query().Get("portfolioId"),
		}

		pageSize := 20
		if ps := r.URL.Query().Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		pageToken := r.URL.Query().Get("pageToken")

		records, nextToken, total, err := store.ListFiltered(filter, pageSize, pageToken)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to list audit events: %v", err))
			return
		}

		events := make([]eventResponse, len(records))
		for i, rec := range records {
			events[i] = recordToResponse(rec)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"events":        events,
			"nextPageToken": nextToken,
			"totalSize":     total,
		})
	}
}

// GetEventHandler handles GET /events/{eventId}.
func GetEventHandler(store *baseline.AuditStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}
		if !actor.IsCompanyAdmin() {
			writeError(w, http.StatusForbidden, "audit queries require a company admin role")
			return
		}

		eventID := chi.URLParam(r, "eventId")
		record, err := store.GetByID(eventID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get audit event: %v", err))
			return
		}
		if record == nil || record.CompanyID != actor.CompanyID {
			writeError(w, http.StatusNotFound, fmt.Sprintf("audit event %q not found", eventID))
			return
		}

		writeJSON(w, http.StatusOK, recordToResponse(*record))
	}
}

// eventResponse is the API representation of an audit event.
type eventResponse struct {
	ID            string         `json:"id"`
	CompanyID     string         `json:"companyId"`
	CorrelationID string         `json:"correlationId,omitempty"`
	EventType     string         `json:"eventType"`
	Actor         string         `json:"actor"`
	RequestID     string         `json:"requestId,omitempty"`
	PortfolioID   string         `json:"portfolioId,omitempty"`
	VersionID     string         `json:"versionId,omitempty"`
	Action        string         `json:"action,omitempty"`
	Outcome       string         `json:"outcome"`
	StatusCode    int            `json:"statusCode,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	OldValue      map[string]any `json:"oldValue,omitempty"`
	NewValue      map[string]any `json:"newValue,omitempty"`
	CreatedAt     string         `json:"createdAt"`
}

func recordToResponse(rec baseline.AuditEventRecord) eventResponse {
	return eventResponse{
		ID:            rec.ID,
		CompanyID:     rec.CompanyID,
		CorrelationID: rec.CorrelationID,
		EventType:     rec.EventType,
		Actor:         rec.Actor,
		RequestID:     rec.RequestID,
		PortfolioID:   rec.PortfolioID,
		VersionID:     rec.VersionID,
		Action:        rec.Action,
		Outcome:       rec.Outcome,
		StatusCode:    rec.StatusCode,
		Reason:        rec.Reason,
		OldValue:      map[string]any(rec.OldValue),
		NewValue:      map[string]any(rec.NewValue),
		CreatedAt:     rec.CreatedAt.Format(time.RFC3339),
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
