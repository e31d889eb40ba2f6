// Package service implements the sign-in, registration and sign-out use cases
// on top of the API gateway and the session store.
package service

import (
	"context"
	"log/slog"

	"todoweb/internal/auth/models"
	"todoweb/internal/gateway"
	"todoweb/internal/guard"
	"todoweb/internal/platform/privacy"
	"todoweb/internal/session"
	dErrors "todoweb/pkg/domain-errors"
	"todoweb/pkg/platform/httputil"
)

// API is the part of the gateway the auth flows use.
type API interface {
	Post(ctx context.Context, path string, body, out any) error
}

// SessionStore is the single writer of the session.
type SessionStore interface {
	Login(token string, user session.User, opts ...session.LoginOption) error
	Logout()
}

type Service struct {
	api      API
	sessions SessionStore
	logger   *slog.Logger
}

func New(api API, sessions SessionStore, logger *slog.Logger) *Service {
	return &Service{api: api, sessions: sessions, logger: logger}
}

// LoginResult says who signed in and where they go next.
type LoginResult struct {
	User    session.User
	Landing string
}

// Login validates the form, exchanges the credentials for a token and commits
// the session. Validation failures never reach the API.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*LoginResult, error) {
	if err := httputil.PrepareRequest(req); err != nil {
		return nil, err
	}

	var resp gateway.Envelope[models.LoginResult]
	if err := s.api.Post(ctx, "/login", models.Credentials{Email: req.Email, Password: req.Password}, &resp); err != nil {
		s.logger.InfoContext(ctx, "login rejected", "email", privacy.MaskEmail(req.Email), "error", err)
		return nil, err
	}
	if resp.Content.Token == "" || resp.Content.User.ID == "" {
		return nil, dErrors.New(dErrors.CodeRequest, "Login failed. Please try again.")
	}

	user := resp.Content.User
	if err := s.sessions.Login(resp.Content.Token, user, session.WithRememberMe(req.RememberMe)); err != nil {
		return nil, err
	}

	landing := guard.LandingPath(user.Role)
	if guard.SafeRedirect(req.Redirect) {
		landing = req.Redirect
	}
	s.logger.InfoContext(ctx, "login succeeded", "user_id", user.ID, "role", user.Role)
	return &LoginResult{User: user, Landing: landing}, nil
}

// Register creates an account. It does not sign the new user in.
func (s *Service) Register(ctx context.Context, req *models.RegisterRequest) (*session.User, error) {
	if err := httputil.PrepareRequest(req); err != nil {
		return nil, err
	}

	var resp gateway.Envelope[models.RegisterResult]
	body := models.Registration{FullName: req.FullName, Email: req.Email, Password: req.Password}
	if err := s.api.Post(ctx, "/register", body, &resp); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "registration succeeded", "email", privacy.MaskEmail(req.Email))
	return &resp.Content.User, nil
}

func (s *Service) Logout() {
	s.sessions.Logout()
}
