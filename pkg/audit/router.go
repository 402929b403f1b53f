package audit

import (
	"github.com/go-chi/chi/v5"

	"github.com/juris-platform/baseline/pkg/baseline"
)

// Router creates a chi.Router for the audit query API.
func Router(store *baseline.AuditStore) chi.Router {
	r := chi.NewRouter()
	r.Get("/events", ListEventsHandler(store))
	r.Get("/events/{eventId}", GetEventHandler(store))
	return r
}
