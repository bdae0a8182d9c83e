// Package router assembles the HTTP routes and middleware chain.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/mememage/mememage/internal/handler"
	"github.com/mememage/mememage/internal/metrics"
	"github.com/mememage/mememage/internal/middleware"
)

// Deps holds everything the router wires together.
type Deps struct {
	Logger  *slog.Logger
	Metrics metrics.Recorder
	Tokens  middleware.TokenValidator

	Auth          *handler.AuthHandler
	Memes         *handler.MemeHandler
	Health        *handler.HealthHandler
	MetricsExport *handler.MetricsHandler

	CORS        middleware.CORSConfig
	Security    middleware.SecurityConfig
	MaxBodySize int64

	// UploadDir is served under /uploads. FrontendDir, when it exists,
	// is served at the root with index.html as the fallback.
	UploadDir   string
	FrontendDir string
}

// New builds the application router.
func New(d Deps) http.Handler {
	if d.Metrics == nil {
		d.Metrics = metrics.NewNoop()
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recoverer(d.Logger))
	r.Use(middleware.Metrics(d.Metrics))
	r.Use(middleware.Security(d.Security))

	// Probes and metrics
	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.MetricsExport != nil {
		r.Get("/metrics", d.MetricsExport.Metrics)
	}

	requireAuth := middleware.Authenticate(d.Tokens, d.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CORS(d.CORS))
		r.Use(middleware.NoStore)
		if d.MaxBodySize > 0 {
			r.Use(middleware.MaxBodySize(d.MaxBodySize))
		}

		r.Get("/health", d.Health.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", d.Auth.Signup)
			r.Post("/login", d.Auth.Login)
		})

		r.Route("/memes", func(r chi.Router) {
			r.Get("/", d.Memes.List)
			r.With(requireAuth).Post("/", d.Memes.Create)
			r.With(requireAuth).Get("/user/my-memes", d.Memes.MyMemes)
			r.Get("/{id}", d.Memes.Get)
			r.Post("/{id}/like", d.Memes.Like)
		})

		r.NotFound(handler.NotFound)
		r.MethodNotAllowed(handler.MethodNotAllowed)
	})

	if d.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads", fileServer(d.UploadDir)))
	}

	if spa := newSPAHandler(d.FrontendDir); spa != nil {
		r.NotFound(spa.ServeHTTP)
		d.Logger.Info("serving front-end", slog.String("dir", d.FrontendDir))
	} else {
		r.NotFound(handler.NotFound)
	}
	r.MethodNotAllowed(handler.MethodNotAllowed)

	return r
}
