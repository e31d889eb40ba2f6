package app

import (
	"net/http"

	"todoweb/internal/admin"
	authhandler "todoweb/internal/auth/handler"
	"todoweb/internal/platform/health"
	todohandler "todoweb/internal/todo/handler"
	httptransport "todoweb/internal/transport/http"
	"todoweb/internal/web"
)

// Router builds the web frontend on top of the wired components.
func (a *App) Router() (http.Handler, error) {
	render, err := web.NewRenderer(a.Flash, a.Sessions, a.Logger)
	if err != nil {
		return nil, err
	}

	healthHandler := health.New(a.Config.Server.Environment)
	a.HealthChecks(healthHandler)

	return httptransport.NewRouter(httptransport.Deps{
		Logger:   a.Logger,
		Metrics:  a.Metrics,
		Registry: a.Registry,
		Timeout:  a.Config.Server.Timeout,
		Cookies:  a.Cookies,
		Sessions: a.Sessions,
		Mirror:   a.Mirror,
		Health:   healthHandler,
		Pages: []httptransport.Registrar{
			authhandler.New(a.Auth, a.Sessions, render, a.Flash, a.Logger),
			todohandler.New(a.Dashboard, a.Todos, render, a.Flash, a.Logger),
			admin.New(a.Admin, admin.NewService(a.Todos, a.Todos), render, a.Flash, a.Logger),
		},
	}), nil
}
