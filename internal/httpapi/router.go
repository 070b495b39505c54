// Package httpapi exposes the ledger over a JSON REST API routed by chi.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/service"
)

// Config controls the optional parts of the router.
type Config struct {
	AllowedOrigins []string
	MetricsEnabled bool
}

// Deps are the collaborators the handlers dispatch to.
type Deps struct {
	Auth     *service.AuthService
	Profiles *service.ProfileService
	Friends  *service.FriendService
	Expenses *service.ExpenseService
	Shares   *service.ShareService
	Resolver *service.ActorResolver
	JWT      *auth.JWTManager
	// Limiter throttles the unauthenticated credential endpoints. Nil disables it.
	Limiter *middleware.RateLimiter
	// Ping reports database health for /healthz. Nil always reports healthy.
	Ping   func(ctx context.Context) error
	Logger *slog.Logger
}

type handler struct {
	Deps
}

// NewRouter builds the full HTTP surface.
func NewRouter(cfg Config, deps Deps) http.Handler {
	h := &handler{Deps: deps}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	if cfg.MetricsEnabled {
		r.Use(metrics.InstrumentHandler)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", h.health)
	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if deps.Limiter != nil {
				r.Use(deps.Limiter.Handler(WriteError))
			}
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.Post("/token/refresh", h.refresh)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.JWT, WriteError))
			r.Post("/logout", h.logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireProfile(deps.Resolver, WriteError))

				r.Get("/profile", h.getProfile)
				r.Put("/profile/update", h.updateProfile(false))
				r.Patch("/profile/update", h.updateProfile(true))

				r.Get("/friends", h.listFriends)
				r.Get("/friends/followers", h.listFollowers)
				r.Post("/friends/add", h.addFriend)
				r.Delete("/friends/remove/{id}", h.removeFriend)

				r.Route("/expenses", func(r chi.Router) {
					r.Get("/", h.listExpenses)
					r.Post("/", h.createExpense)
					r.Get("/{id}", h.getExpense)
					r.Put("/{id}", h.updateExpense(false))
					r.Patch("/{id}", h.updateExpense(true))
					r.Delete("/{id}", h.deleteExpense)
					r.Get("/{id}/split", h.splitExpense)
					r.Get("/{id}/shares", h.listShares)
					r.Post("/{id}/shares", h.addShare)
				})

				r.Get("/shares/{id}", h.getShare)
				r.Put("/shares/{id}", h.updateShare(false))
				r.Patch("/shares/{id}", h.updateShare(true))
				r.Delete("/shares/{id}", h.deleteShare)

				r.Get("/balances", h.balances)
			})
		})
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.Ping(ctx); err != nil {
			h.Logger.Error("Health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// actor returns the profile-resolved caller. Routes using it sit behind RequireProfile.
func actor(r *http.Request) service.Actor {
	a, _ := middleware.GetActor(r.Context())
	return a
}
