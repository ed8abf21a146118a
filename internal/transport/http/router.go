// Package httptransport assembles the public HTTP surface: the authenticated
// /api/v1 API, the unauthenticated evidence portal, and the ops endpoints.
// Handlers stay thin and delegate to the module services; everything
// cross-cutting lives in the middleware chain.
package httptransport

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	assessmenthandler "conforma/internal/assessment/handler"
	audithandler "conforma/internal/audit/handler"
	docreviewhandler "conforma/internal/docreview/handler"
	evidencehandler "conforma/internal/evidence/handler"
	findingshandler "conforma/internal/findings/handler"
	"conforma/internal/platform/metrics"
	"conforma/internal/platform/middleware"
	platformredis "conforma/internal/platform/redis"
)

// Deps carries everything the router mounts. DB and Redis may be nil when
// the server runs on in-memory stores; the health check then skips them.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Auth    middleware.JWTValidator
	DB      *sql.DB
	Redis   *platformredis.Client

	Audits      *audithandler.Handler
	Assessments *assessmenthandler.Handler
	Findings    *findingshandler.Handler
	Evidence    *evidencehandler.Handler
	Reviews     *docreviewhandler.Handler
}

// New assembles the full router. The ops endpoints sit outside the auth
// middleware so probes and scrapers need no token; the portal endpoints are
// unauthenticated because the portal token in the URL is the credential.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	if deps.Metrics != nil {
		r.Use(middleware.Latency(deps.Metrics))
	}

	r.Get("/healthz", healthz(deps.DB, deps.Redis))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(middleware.RequireAuth(deps.Auth, deps.Logger))
		deps.Audits.Register(api)
		deps.Assessments.Register(api)
		deps.Findings.Register(api)
		deps.Evidence.Register(api)
		deps.Reviews.Register(api)
	})

	deps.Evidence.RegisterPortal(r)

	return r
}

// healthz reports liveness plus the reachability of the configured backing
// stores. A nil DB or Redis means the server runs in-memory and that probe
// is skipped rather than failed.
func healthz(db *sql.DB, rdb *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				writeHealth(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		if rdb != nil {
			if err := rdb.Health(ctx); err != nil {
				writeHealth(w, http.StatusServiceUnavailable, "redis unreachable")
				return
			}
		}
		writeHealth(w, http.StatusOK, "ok")
	}
}

func writeHealth(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"status":"` + detail + `"}`))
}
