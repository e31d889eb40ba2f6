// Package guard decides, before a page renders, whether the navigation may
// proceed or must be redirected. It reads only the cookie mirror.
package guard

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"todoweb/internal/platform/metrics"
	"todoweb/internal/session"
)

// Guarded paths.
const (
	LoginPath     = "/auth/login"
	AdminPath     = "/admin"
	DashboardPath = "/dashboard"
)

var protectedPrefixes = []string{AdminPath, DashboardPath}

// Action is the outcome of a decision.
type Action int

const (
	Allow Action = iota
	Redirect
)

// Decision is the result of Decide. ClearCookie is set when the cookie could
// not be parsed and should be removed from the browser.
type Decision struct {
	Action      Action
	Location    string
	ClearCookie bool
	Reason      string
}

// Redirect reasons, also used as metric labels.
const (
	ReasonLoginRequired = "login_required"
	ReasonAuthenticated = "already_authenticated"
)

// Decide is a pure function of the request path, the raw cookie value and the
// query parameters. An unauthenticated visitor of a protected prefix is sent
// to the login page; an authenticated visitor of the login page is sent away
// from it. A single decision never does both.
func Decide(path, cookieValue string, query url.Values) Decision {
	snap, err := session.ParseCookie(cookieValue)
	malformed := err != nil
	if err != nil {
		snap = session.Snapshot{}
	}
	authenticated := snap.Authenticated()

	switch {
	case IsProtected(path) && !authenticated:
		return Decision{Action: Redirect, Location: LoginURL(path), ClearCookie: malformed, Reason: ReasonLoginRequired}
	case path == LoginPath && authenticated:
		target := query.Get("redirect")
		if !SafeRedirect(target) {
			target = LandingPath(snap.Role())
		}
		return Decision{Action: Redirect, Location: target, ClearCookie: malformed, Reason: ReasonAuthenticated}
	default:
		return Decision{Action: Allow, ClearCookie: malformed}
	}
}

// IsProtected reports whether path lies under a protected prefix. Matching is
// by whole segment: /admin and /admin/users match, /administrator does not.
func IsProtected(path string) bool {
	for _, prefix := range protectedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}

// Guarded reports whether the guard runs for path at all.
func Guarded(path string) bool {
	return path == LoginPath || IsProtected(path)
}

// LoginURL is the login page carrying original as the continue target.
func LoginURL(original string) string {
	if original == "" {
		return LoginPath
	}
	return LoginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(original), "%2F", "/")
}

// SafeRedirect accepts only relative paths under a protected prefix, so a
// redirect parameter can never leave the site.
func SafeRedirect(target string) bool {
	if target == "" || strings.ContainsAny(target, "\\\r\n") {
		return false
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" || u.User != nil {
		return false
	}
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return false
	}
	return IsProtected(u.Path)
}

// LandingPath is where a freshly authenticated user of role goes.
func LandingPath(role string) string {
	if role == session.RoleAdmin {
		return AdminPath
	}
	return DashboardPath
}

// Middleware applies Decide to guarded paths and passes everything else through.
func Middleware(logger *slog.Logger, m *metrics.Metrics, cookies session.CookieOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !Guarded(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			value := ""
			if c, err := r.Cookie(session.CookieName); err == nil {
				value = c.Value
			}
			decision := Decide(r.URL.Path, value, r.URL.Query())

			if decision.ClearCookie {
				logger.WarnContext(r.Context(), "discarding malformed session cookie", "path", r.URL.Path)
				session.DeleteCookie(w, cookies)
			}
			if decision.Action == Redirect {
				m.IncrementGuardRedirects(decision.Reason)
				logger.DebugContext(r.Context(), "guard redirect",
					"path", r.URL.Path,
					"location", decision.Location,
					"reason", decision.Reason,
				)
				http.Redirect(w, r, decision.Location, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
