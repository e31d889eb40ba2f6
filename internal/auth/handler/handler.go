package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"todoweb/internal/auth/models"
	"todoweb/internal/auth/service"
	"todoweb/internal/guard"
	"todoweb/internal/platform/middleware"
	"todoweb/internal/session"
	"todoweb/internal/web"
	dErrors "todoweb/pkg/domain-errors"
)

// Service defines the interface for authentication operations.
type Service interface {
	Login(ctx context.Context, req *models.LoginRequest) (*service.LoginResult, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*session.User, error)
	Logout()
}

// Handler serves the sign-in, registration and sign-out pages.
type Handler struct {
	auth     Service
	sessions web.SessionReader
	render   *web.Renderer
	flash    *web.Flash
	logger   *slog.Logger
}

func New(auth Service, sessions web.SessionReader, render *web.Renderer, flash *web.Flash, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, sessions: sessions, render: render, flash: flash, logger: logger}
}

// Register registers the auth routes with the chi router. The route guard
// must wrap the router so GET /auth/login is never shown to a signed-in user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/auth/login", h.HandleLoginPage)
	r.Post("/auth/login", h.HandleLogin)
	r.Get("/auth/register", h.HandleRegisterPage)
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/logout", h.HandleLogout)
}

type loginForm struct {
	Email      string
	RememberMe bool
	Redirect   string
	Errors     map[string]string
}

type registerForm struct {
	FullName string
	Email    string
	Errors   map[string]string
}

// HandleRoot sends visitors to their landing page, or to sign in.
func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	if !snap.Authenticated() {
		web.Redirect(w, r, guard.LoginPath)
		return
	}
	web.Redirect(w, r, guard.LandingPath(snap.Role()))
}

func (h *Handler) HandleLoginPage(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, http.StatusOK, web.PageLogin, "Sign in", loginForm{
		Redirect: r.URL.Query().Get("redirect"),
	})
}

// HandleLogin signs in and redirects to the landing page. The redirect is
// written after the session commit, so it carries the new cookie mirror.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	if err := r.ParseForm(); err != nil {
		h.logger.WarnContext(ctx, "failed to parse login form", "error", err, "request_id", requestID)
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := &models.LoginRequest{
		Email:      r.PostForm.Get("email"),
		Password:   r.PostForm.Get("password"),
		RememberMe: r.PostForm.Get("remember_me") == "true",
		Redirect:   r.PostForm.Get("redirect"),
	}

	res, err := h.auth.Login(ctx, req)
	if err != nil {
		form := loginForm{Email: req.Email, RememberMe: req.RememberMe, Redirect: req.Redirect}
		status := h.formFailure(ctx, err, &form.Errors)
		h.render.Page(w, r, status, web.PageLogin, "Sign in", form)
		return
	}

	h.flash.Success("Login successful!")
	web.Redirect(w, r, res.Landing)
}

func (h *Handler) HandleRegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, http.StatusOK, web.PageRegister, "Register", registerForm{})
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	req := &models.RegisterRequest{
		FullName:        r.PostForm.Get("full_name"),
		Email:           r.PostForm.Get("email"),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
	}

	if _, err := h.auth.Register(ctx, req); err != nil {
		form := registerForm{FullName: req.FullName, Email: req.Email}
		status := h.formFailure(ctx, err, &form.Errors)
		h.render.Page(w, r, status, web.PageRegister, "Register", form)
		return
	}

	h.flash.Success("Registration successful! Please login.")
	web.Redirect(w, r, guard.LoginPath)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout()
	h.flash.Success("Logged out successfully")
	web.Redirect(w, r, guard.LoginPath)
}

// formFailure maps err onto the re-rendered form: field errors inline,
// anything else as a flash message. It returns the response status.
func (h *Handler) formFailure(ctx context.Context, err error, fields *map[string]string) int {
	if dErrors.HasCode(err, dErrors.CodeValidation) {
		*fields = dErrors.FieldErrors(err)
		return http.StatusUnprocessableEntity
	}
	if api := dErrors.FieldErrors(err); len(api) > 0 {
		*fields = api
	}
	h.flash.Error(err.Error())
	h.logger.InfoContext(ctx, "form submission failed",
		"code", string(dErrors.CodeOf(err)),
		"request_id", middleware.GetRequestID(ctx),
	)
	if status := dErrors.StatusCode(err); status >= 400 {
		return status
	}
	return http.StatusBadGateway
}
