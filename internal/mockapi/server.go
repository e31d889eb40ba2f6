// Package mockapi is an in-memory implementation of the todo REST API. It
// issues HS256 bearer tokens, stores bcrypt password hashes and speaks the
// same envelopes as the real service, so the web frontend and the CLI can
// run and be tested without it.
package mockapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	jwttoken "todoweb/internal/jwt_token"
	"todoweb/internal/platform/middleware"
	"todoweb/internal/session"
	"todoweb/internal/todo/models"
	dErrors "todoweb/pkg/domain-errors"
	"todoweb/pkg/platform/httputil"
	"todoweb/pkg/secrets"
)

// Issuer is the iss claim of every token the mock API signs.
const Issuer = "todoweb-mockapi"

// Default page sizes when the query omits them.
const (
	DefaultRows  = 10
	DefaultLimit = 10
)

type Server struct {
	store     *Store
	tokens    *jwttoken.JWTService
	passwords *secrets.Hasher
	logger    *slog.Logger
	router    chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithPasswordCost sets the bcrypt cost of stored password hashes.
func WithPasswordCost(cost int) Option {
	return func(s *Server) {
		s.passwords = secrets.NewHasher(cost)
	}
}

func New(signingKey string, tokenTTL time.Duration, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		store:     NewStore(),
		tokens:    jwttoken.NewJWTService(signingKey, Issuer, tokenTTL),
		passwords: secrets.NewHasher(secrets.DefaultCost),
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(s.logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(middleware.BodyLimit(middleware.MaxBodySize))

	r.Get("/", s.handleRoot)
	r.Head("/", s.handleRoot)
	r.Post("/login", s.handleLogin)
	r.Post("/register", s.handleRegister)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewJWTServiceAdapter(s.tokens), s.logger))
		r.Get("/todos", s.handleListTodos)
		r.Post("/todos", s.handleCreateTodo)
		r.Put("/todos/{id}/mark", s.handleMarkTodo)
		r.Delete("/todos/{id}", s.handleDeleteTodo)

		r.With(middleware.RequireRole(session.RoleAdmin, s.logger)).Get("/users", s.handleListUsers)
	})
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Store exposes the backing data, for seeding and assertions.
func (s *Server) Store() *Store {
	return s.store
}

// Tokens exposes the token service, e.g. to move its clock in tests.
func (s *Server) Tokens() *jwttoken.JWTService {
	return s.tokens
}

// SeedUser registers an account directly, bypassing request validation.
func (s *Server) SeedUser(fullName, email, password, role string) (session.User, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return session.User{}, err
	}
	return s.store.CreateUser(fullName, email, hash, role)
}

// RotateSigningKey switches to a fresh random key, which revokes every
// token issued so far.
func (s *Server) RotateSigningKey() error {
	key, err := secrets.NewSigningKey()
	if err != nil {
		return err
	}
	s.tokens.RotateSigningKey(key)
	s.logger.Info("signing key rotated; all sessions revoked")
	return nil
}

type envelope struct {
	Content any      `json:"content"`
	Message string   `json:"message,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

type pagedEnvelope[T any] struct {
	Content    entries[T] `json:"content"`
	TotalPages int        `json:"totalPages"`
	TotalItems int        `json:"totalItems"`
	Message    string     `json:"message,omitempty"`
}

type entries[T any] struct {
	Entries []T `json:"entries"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, envelope{Message: "todo API"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndPrepare[loginBody](r)
	if err != nil {
		writeValidation(w, err)
		return
	}

	acct, err := s.store.findByEmail(req.Email)
	if err != nil {
		err = s.passwords.VerifyUnknown(req.Password)
	} else {
		err = s.passwords.Verify(req.Password, acct.PasswordHash)
	}
	if err != nil {
		s.logger.InfoContext(ctx, "login rejected",
			"request_id", middleware.GetRequestID(ctx),
		)
		httputil.WriteJSON(w, http.StatusUnauthorized, envelope{Message: "Invalid email or password"})
		return
	}

	token, err := s.tokens.GenerateAccessToken(acct.ID, acct.Role)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{
		Content: map[string]any{"token": token, "user": acct.User},
		Message: "Login successful",
	})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeAndPrepare[registerBody](r)
	if err != nil {
		writeValidation(w, err)
		return
	}

	user, err := s.SeedUser(req.FullName, req.Email, req.Password, session.RoleUser)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, envelope{
		Content: map[string]any{"user": user},
		Message: "Registration successful",
	})
}

// handleListTodos answers GET /todos?page&rows&searchFilters&filters. Users
// see their own tasks, admins every task.
func (s *Server) handleListTodos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := TodoFilter{
		Page: intParam(q.Get("page"), 1),
		Rows: intParam(q.Get("rows"), DefaultRows),
	}
	if middleware.GetRole(ctx) != session.RoleAdmin {
		f.UserID = middleware.GetUserID(ctx)
	}
	if raw := q.Get("searchFilters"); raw != "" {
		var search struct {
			Item string `json:"item"`
		}
		if err := json.Unmarshal([]byte(raw), &search); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid searchFilters"))
			return
		}
		f.Search = search.Item
	}
	if raw := q.Get("filters"); raw != "" {
		var filters struct {
			IsDone *bool `json:"isDone"`
		}
		if err := json.Unmarshal([]byte(raw), &filters); err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid filters"))
			return
		}
		f.IsDone = filters.IsDone
	}

	todos, total := s.store.ListTodos(f)
	httputil.WriteJSON(w, http.StatusOK, pagedEnvelope[models.Todo]{
		Content:    entries[models.Todo]{Entries: todos},
		TotalPages: totalPages(total, f.Rows),
		TotalItems: total,
	})
}

func (s *Server) handleCreateTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndPrepare[models.CreateRequest](r)
	if err != nil {
		writeValidation(w, err)
		return
	}

	todo := s.store.CreateTodo(middleware.GetUserID(ctx), req.Item)
	httputil.WriteJSON(w, http.StatusCreated, envelope{Content: todo, Message: "Todo created"})
}

// handleMarkTodo accepts both body shapes in use: {"action":"DONE"|"UNDONE"}
// and {"isDone":bool}.
func (s *Server) handleMarkTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeJSON[markBody](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	done, err := req.done()
	if err != nil {
		writeValidation(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := s.store.Todo(id, middleware.GetUserID(ctx), isAdmin(r)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	todo, err := s.store.MarkTodo(id, done)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Content: todo, Message: "Todo updated"})
}

func (s *Server) handleDeleteTodo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	if _, err := s.store.Todo(id, middleware.GetUserID(ctx), isAdmin(r)); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := s.store.DeleteTodo(id); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, envelope{Message: "Todo deleted"})
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := intParam(q.Get("page"), 1)
	limit := intParam(q.Get("limit"), DefaultLimit)

	users, total := s.store.ListUsers(page, limit)
	httputil.WriteJSON(w, http.StatusOK, pagedEnvelope[session.User]{
		Content:    entries[session.User]{Entries: users},
		TotalPages: totalPages(total, limit),
		TotalItems: total,
	})
}

// writeValidation answers 400 with errors keyed by field name.
func writeValidation(w http.ResponseWriter, err error) {
	fields := dErrors.FieldErrors(err)
	if len(fields) == 0 {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
		"message": err.Error(),
		"errors":  fields,
	})
}

func isAdmin(r *http.Request) bool {
	return middleware.GetRole(r.Context()) == session.RoleAdmin
}

func intParam(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
