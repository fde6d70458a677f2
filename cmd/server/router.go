package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/marginalia/internal/api"
	apiMiddleware "github.com/phrazzld/marginalia/internal/api/middleware"
	"github.com/phrazzld/marginalia/internal/platform/metrics"
)

// routes collects the handlers and middleware the router mounts.
type routes struct {
	auth          *apiMiddleware.AuthMiddleware
	authHandler   *api.AuthHandler
	groups        *api.GroupHandler
	annotations   *api.AnnotationHandler
	notifications *api.NotificationHandler
	health        http.Handler
	logger        *slog.Logger
}

// setupRouter builds handlers from the application's services.
func (app *application) setupRouter() http.Handler {
	return newRouter(routes{
		auth:        apiMiddleware.NewAuthMiddleware(app.users),
		authHandler: api.NewAuthHandler(app.users, app.logger),
		groups: api.NewGroupHandler(
			app.listGroups,
			app.groupStore,
			app.groups,
			app.groupLinks,
			app.features,
			app.config.Server.Domain,
			app.logger,
		),
		annotations:   api.NewAnnotationHandler(app.annotations, app.logger),
		notifications: api.NewNotificationHandler(app.subscriptions, app.logger),
		health:        api.NewHealthHandler(app.healthChecks(), 2*time.Second, app.logger),
		logger:        app.logger,
	})
}

func newRouter(rt routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(apiMiddleware.TraceMiddleware(rt.logger))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(apiMiddleware.FeatureScope)

	r.Method(http.MethodGet, "/health", rt.health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	r.With(rt.auth.Optional).Get("/app", rt.notifications.Form)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", rt.authHandler.Register)
		r.Post("/login", rt.authHandler.Login)

		// Anonymous callers see public data only.
		r.Group(func(r chi.Router) {
			r.Use(rt.auth.Optional)
			r.Get("/groups", rt.groups.List)
			r.Get("/annotations/{id}", rt.annotations.Get)
			r.Get("/search", rt.annotations.Search)
		})

		r.Group(func(r chi.Router) {
			r.Use(rt.auth.Authenticate)
			r.Post("/developer/token", rt.authHandler.CreateDeveloperToken)
			r.Delete("/groups/{pubid}/members/{user}", rt.groups.RemoveMember)
			r.Post("/annotations", rt.annotations.Create)
			r.Delete("/annotations/{id}", rt.annotations.Delete)
			r.Get("/profile/notifications", rt.notifications.List)
			r.Put("/profile/notifications/{id}", rt.notifications.Toggle)
		})
	})

	return r
}
