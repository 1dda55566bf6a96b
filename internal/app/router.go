package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/udyogbooks/udyogbooks/internal/auth"
	"github.com/udyogbooks/udyogbooks/internal/billing/invoices"
	"github.com/udyogbooks/udyogbooks/internal/billing/proposals"
	"github.com/udyogbooks/udyogbooks/internal/clients"
	"github.com/udyogbooks/udyogbooks/internal/expenses"
	"github.com/udyogbooks/udyogbooks/internal/observability"
	"github.com/udyogbooks/udyogbooks/internal/reports"
	"github.com/udyogbooks/udyogbooks/internal/settings"
	"github.com/udyogbooks/udyogbooks/internal/shared"
	"github.com/udyogbooks/udyogbooks/internal/vendors"
	"github.com/udyogbooks/udyogbooks/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager

	AuthHandler      *auth.Handler
	ClientsHandler   *clients.Handler
	VendorsHandler   *vendors.Handler
	InvoicesHandler  *invoices.Handler
	ProposalsHandler *proposals.Handler
	ExpensesHandler  *expenses.Handler
	ReportsHandler   *reports.Handler
	SettingsHandler  *settings.Handler
	JobHandler       *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router. Everything except login, refresh,
// health and metrics sits behind the session and CSRF middleware.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(params.SessionManager))
			params.AuthHandler.MountSessionRoutes(r)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(params.SessionManager))
		r.Use(auth.VerifyCSRF(params.CSRFManager))

		r.Route("/clients", params.ClientsHandler.MountRoutes)
		r.Route("/vendors", params.VendorsHandler.MountRoutes)
		r.Route("/invoices", params.InvoicesHandler.MountRoutes)
		r.Route("/proposals", params.ProposalsHandler.MountRoutes)
		r.Route("/expenses", params.ExpensesHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/settings", params.SettingsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
