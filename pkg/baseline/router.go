package baseline

import (
	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router exposing the baseline API: portfolio
// CRUD, version lifecycle, module editing, publish workflow, approval
// decisions, and audit history.
func NewRouter(engine *Engine, evaluator *ApprovalEvaluator) chi.Router {
	r := chi.NewRouter()

	r.Route("/portfolios", func(r chi.Router) {
		r.Get("/", listPortfoliosHandler(engine))
		r.Post("/", createPortfolioHandler(engine))

		r.Route("/{portfolioID}", func(r chi.Router) {
			r.Get("/", getPortfolioHandler(engine))
			r.Get("/history", portfolioHistoryHandler(engine))
			r.Get("/versions", listVersionsHandler(engine))
			r.Post("/versions", createVersionHandler(engine))
		})
	})

	r.Route("/versions/{versionID}", func(r chi.Router) {
		r.Get("/", getVersionHandler(engine))
		r.Patch("/", updateVersionHandler(engine))
		r.Delete("/", deleteVersionHandler(engine))
		r.Put("/modules/{moduleType}", updateModuleHandler(engine))
		r.Post("/submit", submitVersionHandler(engine))
		r.Post("/approve", approveVersionHandler(engine))
		r.Post("/reject", rejectVersionHandler(engine))
		r.Get("/publish/preflight", preflightPublishHandler(engine))
		r.Post("/publish", publishVersionHandler(engine))
		r.Get("/decisions", listDecisionsHandler(engine))
		r.Get("/history", versionHistoryHandler(engine))
	})

	if evaluator != nil {
		r.Get("/policies", listPoliciesHandler(evaluator))
	}

	return r
}
