// Package web holds the pieces shared by the page handlers: templates,
// flash notifications and forced navigation.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"todoweb/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page templates. Each is parsed together with the layout and partials.
const (
	PageLogin     = "login"
	PageRegister  = "register"
	PageDashboard = "dashboard"
	PageAdmin     = "admin"
	PageUsers     = "users"
)

var pageNames = []string{PageLogin, PageRegister, PageDashboard, PageAdmin, PageUsers}

// SessionReader exposes the committed session to the layout.
type SessionReader interface {
	Snapshot() session.Snapshot
}

// View is the value every page template receives.
type View struct {
	Title   string
	Path    string
	User    *session.User
	Flashes []Message
	Data    any
}

type Renderer struct {
	pages    map[string]*template.Template
	flash    *Flash
	sessions SessionReader
	logger   *slog.Logger
}

var funcs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"dec": func(i int) int { return i - 1 },
	"date": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("Jan 2, 2006 15:04")
	},
}

func NewRenderer(flash *Flash, sessions SessionReader, logger *slog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:    make(map[string]*template.Template, len(pageNames)),
		flash:    flash,
		sessions: sessions,
		logger:   logger,
	}
	for _, name := range pageNames {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Page renders a full page and drains the flash queue into it.
func (r *Renderer) Page(w http.ResponseWriter, req *http.Request, status int, name, title string, data any) {
	view := View{
		Title:   title,
		Path:    req.URL.Path,
		Flashes: r.flash.Drain(),
		Data:    data,
	}
	if snap := r.sessions.Snapshot(); snap.Authenticated() {
		view.User = snap.User
	}
	r.execute(w, status, name, "layout.html", view)
}

// Fragment renders one named block of a page, without layout or flashes.
func (r *Renderer) Fragment(w http.ResponseWriter, status int, page, block string, data any) {
	r.execute(w, status, page, block, data)
}

func (r *Renderer) execute(w http.ResponseWriter, status int, page, block string, data any) {
	t, ok := r.pages[page]
	if !ok {
		r.logger.Error("unknown template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, block, data); err != nil {
		r.logger.Error("render failed", "page", page, "block", block, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Redirect answers a form post with 303 See Other.
func Redirect(w http.ResponseWriter, r *http.Request, path string) {
	http.Redirect(w, r, path, http.StatusSeeOther)
}
