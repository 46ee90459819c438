package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/redmonkez12/recipe-api/internal/auth"
	"github.com/redmonkez12/recipe-api/internal/config"
	"github.com/redmonkez12/recipe-api/internal/httputil"
	"github.com/redmonkez12/recipe-api/internal/logging"
	"github.com/redmonkez12/recipe-api/internal/recipe"
)

// Pinger reports whether a backing store is reachable
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	recipeHandler *recipe.Handler,
	authMiddleware *auth.Middleware,
	db Pinger,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	r.Use(SecurityHeaders(!cfg.Server.IsDevelopment()))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/health", handleHealth(db))

	// Production builds will not have this route at all
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/*")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Get("/me", authHandler.Me)
			r.Delete("/logout", authHandler.Logout)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware.RequireAuth)

		r.Route("/users/me", func(r chi.Router) {
			r.Patch("/", authHandler.UpdateMe)
			r.Delete("/", authHandler.DeleteMe)
		})

		r.Route("/recipes", func(r chi.Router) {
			r.Get("/", recipeHandler.List)
			r.Post("/", recipeHandler.Create)
			r.Get("/{id}", recipeHandler.Get)
			r.Patch("/{id}", recipeHandler.Update)
			r.Delete("/{id}", recipeHandler.Delete)
		})
	})

	return r
}

// handleHealth reports whether the API and its database are up
// @Summary      Health check
// @Description  Check if the API is running and the database is reachable
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Failure      503 {object} map[string]string
// @Router       /health [get]
func handleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logging.GetLoggerFromContext(r.Context()).Error("health check failed", "error", err)
			httputil.RespondJSON(w, map[string]string{"status": "database unavailable"}, http.StatusServiceUnavailable)
			return
		}

		httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
	}
}
