package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"todoweb/internal/guard"
	"todoweb/internal/platform/metrics"
	"todoweb/internal/platform/middleware"
	"todoweb/internal/session"
	"todoweb/internal/web"
)

// Registrar mounts a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// Deps are the pieces NewRouter wires together.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Timeout  time.Duration
	Cookies  session.CookieOptions
	Sessions *session.Store
	Mirror   *session.CookieMirror
	Health   Registrar
	Pages    []Registrar
}

// NewRouter wires all public endpoints with middleware.
//
// Page routes run inside, from the outside in: session resync (so a sign-in
// or sign-out from the CLI applies here), the cookie mirror (so every
// response, redirects included, carries the committed session), forced
// navigation (so a rejected token turns the response into a redirect to the
// login page) and the route guard.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.BodyLimit(middleware.MaxBodySize))
	if d.Timeout > 0 {
		r.Use(middleware.Timeout(d.Timeout))
	}

	if d.Health != nil {
		d.Health.Register(r)
	}
	if d.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		if d.Sessions != nil {
			r.Use(d.Sessions.Resync)
		}
		if d.Mirror != nil {
			r.Use(d.Mirror.Middleware)
		}
		r.Use(web.Navigation)
		r.Use(guard.Middleware(d.Logger, d.Metrics, d.Cookies))
		for _, p := range d.Pages {
			p.Register(r)
		}
	})

	return r
}
