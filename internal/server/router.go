package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/kathembo-tsongo/timetabling-sub001/internal/auth"
	appmiddleware "github.com/kathembo-tsongo/timetabling-sub001/internal/middleware"
)

// RouterOptions controls the construction of the admin HTTP router.
type RouterOptions struct {
	Roles       roleManager
	Permissions permissionCatalog
	Logger      logrus.FieldLogger
	// Authn verifies bearer tokens. Nil together with a nil Authorizer
	// disables authentication and permission checks.
	Authn         func(http.Handler) http.Handler
	Authorizer    *appmiddleware.Authorizer
	CORSOptions   *cors.Options
	Middleware    []func(http.Handler) http.Handler
	HealthHandler http.HandlerFunc
}

// DefaultCORSOptions returns the development CORS policy for the admin UI.
func DefaultCORSOptions() cors.Options {
	return cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// NewRouter assembles a chi.Router with shared middleware, CORS policy and the
// role administration handlers mounted under /api.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	corsCfg := DefaultCORSOptions()
	if opts.CORSOptions != nil {
		corsCfg = *opts.CORSOptions
	}
	r.Use(cors.Handler(corsCfg))
	r.Use(appmiddleware.Channel)

	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	healthHandler := opts.HealthHandler
	if healthHandler == nil {
		healthHandler = defaultHealthHandler
	}
	r.Get("/health", healthHandler)

	require := func(permission string) func(http.Handler) http.Handler {
		if opts.Authorizer == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return opts.Authorizer.Require(permission)
	}

	h := &roleHandlers{roles: opts.Roles, permissions: opts.Permissions}
	r.Route("/api", func(api chi.Router) {
		if opts.Authn != nil {
			api.Use(opts.Authn)
		}

		if opts.Roles != nil {
			api.Route("/roles", func(rr chi.Router) {
				rr.With(require(auth.PermRolesView)).Get("/", h.list)
				rr.With(require(auth.PermRolesCreate)).Post("/", h.create)
				rr.With(require(auth.PermRolesEdit)).Get("/{id}/edit", h.edit)
				rr.With(require(auth.PermRolesEdit)).Put("/{id}", h.update)
				rr.With(require(auth.PermRolesDelete)).Delete("/{id}", h.delete)
				rr.With(require(auth.PermRolesCreate)).Post("/{id}/clone", h.clone)
				rr.With(require(auth.PermRolesView)).Get("/{id}/stats", h.stats)
			})
		}
		if opts.Permissions != nil {
			api.With(require(auth.PermPermissionsView)).Get("/permissions", h.listPermissions)
		}
	})

	return r
}
