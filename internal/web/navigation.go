package web

import (
	"context"
	"net/http"
	"sync"

	"todoweb/internal/gateway"
)

type navigationKey struct{}

type navigation struct {
	mu     sync.Mutex
	target string
}

func (n *navigation) set(path string) {
	n.mu.Lock()
	n.target = path
	n.mu.Unlock()
}

func (n *navigation) get() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.target
}

// Navigator records a forced navigation on the request being served.
type Navigator struct{}

// Navigate implements gateway.Navigator. Outside a request served through
// Navigation it does nothing.
func (Navigator) Navigate(ctx context.Context, path string) {
	if n, ok := ctx.Value(navigationKey{}).(*navigation); ok {
		n.set(path)
	}
}

// ForcedNavigation reports the target recorded for the current request.
func ForcedNavigation(ctx context.Context) (string, bool) {
	n, ok := ctx.Value(navigationKey{}).(*navigation)
	if !ok {
		return "", false
	}
	target := n.get()
	return target, target != ""
}

// Navigation turns a forced navigation into the response: whatever the
// handler writes afterwards, the browser receives a 303 to the target.
func Navigation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := &navigation{}
		ctx := context.WithValue(r.Context(), navigationKey{}, n)
		nw := &navigationWriter{ResponseWriter: w, nav: n}
		next.ServeHTTP(nw, r.WithContext(ctx))
		if !nw.wroteHeader && n.get() != "" {
			nw.WriteHeader(http.StatusSeeOther)
		}
	})
}

type navigationWriter struct {
	http.ResponseWriter
	nav         *navigation
	wroteHeader bool
	diverted    bool
}

func (w *navigationWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	if target := w.nav.get(); target != "" {
		w.diverted = true
		h := w.ResponseWriter.Header()
		h.Del("Content-Type")
		h.Del("Content-Length")
		h.Set("Location", target)
		w.ResponseWriter.WriteHeader(http.StatusSeeOther)
		return
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *navigationWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.diverted {
		return len(b), nil
	}
	return w.ResponseWriter.Write(b)
}

func (w *navigationWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

var _ gateway.Navigator = Navigator{}
