// Package app assembles the client: durable storage, the session store and
// its replicas, the API gateway, services and list coordinators. The web
// server and the CLI share it.
package app

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	authservice "todoweb/internal/auth/service"
	"todoweb/internal/gateway"
	"todoweb/internal/platform/config"
	"todoweb/internal/platform/health"
	"todoweb/internal/platform/metrics"
	"todoweb/internal/platform/tracer"
	"todoweb/internal/session"
	"todoweb/internal/session/storage"
	"todoweb/internal/todo/listquery"
	todoservice "todoweb/internal/todo/service"
	"todoweb/internal/web"
	"todoweb/pkg/platform/circuit"
)

type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Tracer   tracer.Tracer

	Storage  storage.Storage
	Sessions *session.Store
	Cookies  session.CookieOptions
	Mirror   *session.CookieMirror
	Flash    *web.Flash
	Gateway  *gateway.Client

	Auth      *authservice.Service
	Todos     *todoservice.Service
	Dashboard *listquery.Coordinator
	Admin     *listquery.Coordinator

	closer io.Closer
}

type Option func(*options)

type options struct {
	storage storage.Storage
}

// WithStorage replaces the bolt file with st; the caller keeps ownership.
func WithStorage(st storage.Storage) Option {
	return func(o *options) {
		o.storage = st
	}
}

// New wires every component and rehydrates the session from durable
// storage. The list coordinators are scoped to the signed-in user: a change
// of user resets them. Close releases the storage.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
		Tracer:   tracer.NewOTel(),
		Flash:    web.NewFlash(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.New(a.Registry)

	a.Storage = o.storage
	if a.Storage == nil {
		db, err := storage.OpenBolt(cfg.Storage.Path, cfg.Storage.OpenTimeout)
		if err != nil {
			return nil, err
		}
		a.Storage, a.closer = db, db
	}

	a.Cookies = session.CookieOptions{Secure: cfg.Server.CookieSecure}
	a.Mirror = session.NewCookieMirror(a.Cookies)
	scope := listquery.NewSessionScope()
	a.Sessions = session.NewStore(
		session.WithPersister(session.NewPersister(a.Storage)),
		session.WithListener(a.Mirror),
		session.WithListener(scope),
		session.WithLogger(logger),
		session.WithMetrics(a.Metrics),
	)

	gwOpts := []gateway.Option{
		gateway.WithTimeout(cfg.API.Timeout),
		gateway.WithSessionClearer(a.Sessions),
		gateway.WithNotifier(a.Flash),
		gateway.WithNavigator(web.Navigator{}),
		gateway.WithLogger(logger),
		gateway.WithMetrics(a.Metrics),
		gateway.WithTracer(a.Tracer),
	}
	if cfg.API.BreakerThreshold > 0 {
		gwOpts = append(gwOpts, gateway.WithBreaker(circuit.New("api",
			circuit.WithFailureThreshold(cfg.API.BreakerThreshold),
			circuit.WithCooldown(cfg.API.BreakerCooldown),
			circuit.WithStateChange(func(name string, from, to circuit.State) {
				logger.Warn("circuit state changed", "circuit", name, "from", from.String(), "to", to.String())
			}),
		)))
	}
	gw, err := gateway.New(cfg.API.BaseURL, a.Sessions, gwOpts...)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Gateway = gw

	a.Auth = authservice.New(gw, a.Sessions, logger)
	a.Todos = todoservice.New(gw)

	common := []listquery.Option{
		listquery.WithRows(cfg.Lists.PageSize),
		listquery.WithDebounce(cfg.Lists.SearchDebounce),
		listquery.WithBulkJobs(cfg.Lists.BulkDeleteJobs),
		listquery.WithLogger(logger),
		listquery.WithMetrics(a.Metrics),
		listquery.WithTracer(a.Tracer),
	}
	a.Dashboard = listquery.New(a.Todos, slices.Concat(common, []listquery.Option{
		listquery.WithName("dashboard"),
		listquery.WithSelection(listquery.NewSelection(a.Storage, logger)),
	})...)
	a.Admin = listquery.New(a.Todos, slices.Concat(common, []listquery.Option{
		listquery.WithName("admin"),
	})...)
	scope.Track(a.Dashboard, a.Admin)

	if err := a.Sessions.Rehydrate(); err != nil {
		logger.Warn("session rehydrate failed", "error", err)
	}
	return a, nil
}

// HealthChecks registers readiness checks for durable storage and the API.
func (a *App) HealthChecks(h *health.Handler) {
	if p, ok := a.Storage.(interface{ Ping() error }); ok {
		h.RegisterCheck("storage", func(context.Context) error { return p.Ping() })
	}
	h.RegisterCheck("api", a.Gateway.Ping)
}

func (a *App) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}
