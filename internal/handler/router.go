package handler

import (
	"net/http"
	"time"

	"github.com/robbyyapr/duwit/internal/infra/observability"
	"github.com/robbyyapr/duwit/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// The ledger routes mirror the store document the UI reads and the four
// mutations it performs.
func NewRouter(svc *service.LedgerService, authSvc *service.AuthService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Store document (the UI's read/replace surface) ---
	r.Route("/api", func(r chi.Router) {
		r.Use(SessionMiddleware(authSvc, logger))
		r.Get("/store", getStoreHandler(svc, logger))
		r.Put("/store", putStoreHandler(svc, logger))
	})

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		// Public: unlocking is how a session starts, and the counter
		// snapshot is operational.
		r.Post("/auth/unlock", authUnlockHandler(authSvc, logger))
		r.Get("/metrics/ledger", ledgerMetricsHandler(metrics, logger))

		// Mutations sit behind the PIN gate when one is configured.
		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(authSvc, logger))
			r.Post("/transactions", addTransactionHandler(svc, logger))
			r.Put("/transactions/{transactionId}", updateTransactionHandler(svc, logger))
			r.Post("/zakat/{weekLabel}/ack", ackZakatHandler(svc, logger))
			r.Post("/balance/adjust", adjustBalanceHandler(svc, logger))
			r.Put("/settings", updateSettingsHandler(svc, logger))
		})
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}
}

func ledgerMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetLedgerSnapshot())
	}
}
