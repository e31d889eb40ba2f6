package session

import (
	"net/http"
	"sync"
	"time"
)

// CookieOptions configures the mirror cookie attributes.
type CookieOptions struct {
	Path     string
	Domain   string
	Secure   bool
	SameSite http.SameSite
}

func (o CookieOptions) normalize() CookieOptions {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.SameSite == 0 {
		o.SameSite = http.SameSiteStrictMode
	}
	return o
}

// CookieMirror is the session replica read by the route guard. It holds the
// cookie the browser should carry; Middleware delivers it.
type CookieMirror struct {
	opts CookieOptions
	now  func() time.Time

	mu      sync.RWMutex
	value   string
	expires time.Time
}

func NewCookieMirror(opts CookieOptions) *CookieMirror {
	return &CookieMirror{opts: opts.normalize(), now: time.Now}
}

// SessionChanged records the cookie for the committed snapshot.
func (m *CookieMirror) SessionChanged(e Event) error {
	if !e.Snapshot.Authenticated() {
		m.mu.Lock()
		m.value, m.expires = "", time.Time{}
		m.mu.Unlock()
		return nil
	}

	value, err := MarshalCookie(e.Snapshot)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.value = value
	m.expires = m.now().Add(e.TTL)
	m.mu.Unlock()
	return nil
}

// Value returns the current mirror value, "" when signed out.
func (m *CookieMirror) Value() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.value
}

// Cookie returns the cookie to set, or nil when signed out.
func (m *CookieMirror) Cookie() *http.Cookie {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.value == "" {
		return nil
	}
	return &http.Cookie{
		Name:     CookieName,
		Value:    m.value,
		Path:     m.opts.Path,
		Domain:   m.opts.Domain,
		Expires:  m.expires,
		MaxAge:   int(time.Until(m.expires).Seconds()),
		Secure:   m.opts.Secure,
		SameSite: m.opts.SameSite,
	}
}

// Middleware brings the browser's cookie in line with the mirror. The
// comparison happens when the response header is written, so a handler that
// logs in and then redirects sends the new cookie with the redirect itself.
func (m *CookieMirror) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sent := ""
		if c, err := r.Cookie(CookieName); err == nil {
			sent = c.Value
		}
		mw := &mirrorWriter{ResponseWriter: w, mirror: m, sent: sent}
		next.ServeHTTP(mw, r)
		if !mw.wroteHeader {
			mw.WriteHeader(http.StatusOK)
		}
	})
}

func (m *CookieMirror) sync(w http.ResponseWriter, sent string) {
	want := m.Cookie()
	switch {
	case want == nil && sent != "":
		DeleteCookie(w, m.opts)
	case want != nil && want.Value != sent:
		http.SetCookie(w, want)
	}
}

// DeleteCookie expires the mirror cookie in the browser.
func DeleteCookie(w http.ResponseWriter, opts CookieOptions) {
	opts = opts.normalize()
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     opts.Path,
		Domain:   opts.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		Secure:   opts.Secure,
		SameSite: opts.SameSite,
	})
}

type mirrorWriter struct {
	http.ResponseWriter
	mirror      *CookieMirror
	sent        string
	wroteHeader bool
}

func (w *mirrorWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.wroteHeader = true
		w.mirror.sync(w.ResponseWriter, w.sent)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *mirrorWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *mirrorWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

var _ Listener = (*CookieMirror)(nil)
