package baseline

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/juris-platform/baseline/pkg/access"
)

func listPortfoliosHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}
		pageSize, pageToken := pagination(r)

		result, err := engine.ListPortfolios(r.Context(), actor, pageSize, pageToken)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func createPortfolioHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			Name     string `json:"name"`
			Industry string `json:"industry"`
			Currency string `json:"currency"`
			Timezone string `json:"timezone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		view, err := engine.CreatePortfolio(r.Context(), actor, req.Name, req.Industry, req.Currency, req.Timezone)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, view)
	}
}

func getPortfolioHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		view, err := engine.GetPortfolio(r.Context(), actor, chi.URLParam(r, "portfolioID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func listVersionsHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}
		pageSize, pageToken := pagination(r)

		result, err := engine.ListVersions(r.Context(), actor, chi.URLParam(r, "portfolioID"), pageSize, pageToken)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func createVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			ParentVersionID string `json:"parentVersionId"`
			ChangeSummary   string `json:"changeSummary"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		detail, err := engine.CreateVersion(r.Context(), actor, chi.URLParam(r, "portfolioID"), req.ParentVersionID, req.ChangeSummary)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, detail)
	}
}

func getVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		detail, err := engine.GetDetail(r.Context(), actor, chi.URLParam(r, "versionID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func updateVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			ChangeSummary *string `json:"changeSummary"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.ChangeSummary == nil {
			writeError(w, http.StatusBadRequest, "missing 'changeSummary' field")
			return
		}

		view, err := engine.UpdateChangeSummary(r.Context(), actor, chi.URLParam(r, "versionID"), *req.ChangeSummary)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func deleteVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		if err := engine.Delete(r.Context(), actor, chi.URLParam(r, "versionID")); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func updateModuleHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			Payload map[string]any `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Payload == nil {
			req.Payload = map[string]any{}
		}

		view, err := engine.UpdateModule(r.Context(), actor, chi.URLParam(r, "versionID"),
			ModuleType(chi.URLParam(r, "moduleType")), req.Payload)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func submitVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		view, err := engine.Submit(r.Context(), actor, chi.URLParam(r, "versionID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func approveVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			Comment string `json:"comment"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, err := engine.Approve(r.Context(), actor, chi.URLParam(r, "versionID"), req.Comment)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		status := http.StatusOK
		if !outcome.Resolved {
			status = http.StatusAccepted
		}
		writeJSON(w, status, outcome)
	}
}

func rejectVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		outcome, err := engine.Reject(r.Context(), actor, chi.URLParam(r, "versionID"), req.Reason)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		status := http.StatusOK
		if !outcome.Resolved {
			status = http.StatusAccepted
		}
		writeJSON(w, status, outcome)
	}
}

func preflightPublishHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		result, err := engine.PreflightPublish(r.Context(), actor, chi.URLParam(r, "versionID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func publishVersionHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		var req struct {
			ConfirmArchivePrevious bool `json:"confirmArchivePrevious"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		result, err := engine.Publish(r.Context(), actor, chi.URLParam(r, "versionID"), req.ConfirmArchivePrevious)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		if result.ConfirmationRequired {
			// Not a failure: the caller must re-invoke with the
			// confirmation flag to archive the current active baseline.
			writeJSON(w, http.StatusConflict, result)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func listDecisionsHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}

		records, err := engine.ListApprovalDecisions(r.Context(), actor, chi.URLParam(r, "versionID"))
		if err != nil {
			writeEngineError(w, err)
			return
		}

		type decision struct {
			Reviewer  string `json:"reviewer"`
			Verdict   string `json:"verdict"`
			Comment   string `json:"comment,omitempty"`
			CreatedAt string `json:"createdAt"`
		}
		out := make([]decision, len(records))
		for i, rec := range records {
			out[i] = decision{
				Reviewer:  rec.Reviewer,
				Verdict:   rec.Verdict,
				Comment:   rec.Comment,
				CreatedAt: rec.CreatedAt.Format(time.RFC3339),
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"decisions": out})
	}
}

func versionHistoryHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}
		pageSize, pageToken := pagination(r)

		page, err := engine.ListVersionHistory(r.Context(), actor, chi.URLParam(r, "versionID"), pageSize, pageToken)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func portfolioHistoryHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := access.ActorFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "no authenticated caller")
			return
		}
		pageSize, pageToken := pagination(r)

		page, err := engine.ListPortfolioHistory(r.Context(), actor, chi.URLParam(r, "portfolioID"), pageSize, pageToken)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func listPoliciesHandler(evaluator *ApprovalEvaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		policies := evaluator.ListPolicies()
		if policies == nil {
			policies = []ApprovalPolicy{}
		}
		writeJSON(w, http.StatusOK, ApprovalPolicyFile{Policies: policies})
	}
}

// pagination reads pageSize and pageToken query parameters.
func pagination(r *http.Request) (int, string) {
	pageSize := 20
	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 {
			pageSize = v
		}
	}
	return pageSize, r.URL.Query().Get("pageToken")
}

// writeEngineError translates engine error kinds to HTTP status codes.
// The engine carries structured reasons only; the mapping to transport
// semantics lives here.
func writeEngineError(w http.ResponseWriter, err error) {
	var oe *OpError
	if !errors.As(err, &oe) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	status := http.StatusBadRequest
	switch oe.Kind {
	case KindNotFound:
		status = http.StatusNotFound
	case KindForbidden:
		status = http.StatusForbidden
	case KindInvalidTransition:
		status = http.StatusConflict
	case KindValidationFailed:
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, oe)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
