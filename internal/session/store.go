// Package session holds the authenticated identity of the single local user.
//
// Store is the only writer. Durable storage and the cookie mirror are
// listeners that receive every committed value synchronously, inside the
// same critical section as the commit, so no other mutation can interleave
// between a commit and its replication.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"todoweb/internal/platform/metrics"
	dErrors "todoweb/pkg/domain-errors"
)

// Reason says why the session changed.
type Reason string

const (
	ReasonLogin     Reason = "login"
	ReasonLogout    Reason = "logout"
	ReasonExpired   Reason = "expired"
	ReasonRehydrate Reason = "rehydrate"
)

// Event is delivered to listeners after each commit. TTL is the lifetime
// replicas should give the value; zero for a cleared session.
type Event struct {
	Snapshot Snapshot
	TTL      time.Duration
	Reason   Reason
}

// Listener replicates committed snapshots. SessionChanged runs while the store
// is locked and must not call back into the store.
type Listener interface {
	SessionChanged(Event) error
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event) error

func (f ListenerFunc) SessionChanged(e Event) error { return f(e) }

// Store is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	current   Snapshot
	listeners []Listener
	persister *Persister
	// durable is the token durable storage holds as far as this store knows;
	// loaded is set once it has been read or written.
	durable string
	loaded  bool

	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Store)

// WithPersister replicates into durable storage and makes Rehydrate read from it.
func WithPersister(p *Persister) Option {
	return func(s *Store) {
		s.persister = p
		s.listeners = append(s.listeners, p)
	}
}

// WithListener adds a replica. Listeners are notified in registration order.
func WithListener(l Listener) Option {
	return func(s *Store) {
		s.listeners = append(s.listeners, l)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) {
		s.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore returns an empty, signed-out store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type loginOptions struct {
	rememberMe bool
}

type LoginOption func(*loginOptions)

// WithRememberMe keeps the cookie mirror for RememberMeTTL instead of DefaultTTL.
func WithRememberMe(remember bool) LoginOption {
	return func(o *loginOptions) {
		o.rememberMe = remember
	}
}

// Login commits token and user together and replicates them. It fails only
// when its preconditions are violated; replica failures are logged.
func (s *Store) Login(token string, user User, opts ...LoginOption) error {
	if token == "" {
		return dErrors.New(dErrors.CodeInvariant, "login requires a token")
	}
	if user.ID == "" {
		return dErrors.New(dErrors.CodeInvariant, "login requires a user id")
	}

	var o loginOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitLocked(Snapshot{
		Token:           token,
		User:            &user,
		IsAuthenticated: true,
		RememberMe:      o.rememberMe,
	}, ReasonLogin)
	s.metrics.IncrementLogins()
	s.logger.Info("session committed", "user_id", user.ID, "role", user.Role, "remember_me", o.rememberMe)
	return nil
}

// Logout clears the session. Calling it on a signed-out store does nothing.
func (s *Store) Logout() {
	s.clear(ReasonLogout)
}

// ExpireToken clears the session after the API rejected token. If token is
// no longer the session's token, a sign-in replaced it while the call was in
// flight and nothing changes. It reports whether the session was cleared.
func (s *Store) ExpireToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == "" || s.current.Token != token {
		s.logger.Debug("ignoring rejection of a replaced token")
		return false
	}
	s.clearLocked(ReasonExpired)
	return true
}

func (s *Store) clear(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked(reason)
}

func (s *Store) clearLocked(reason Reason) {
	if s.current == (Snapshot{}) {
		return
	}
	s.commitLocked(Snapshot{}, reason)
	if reason == ReasonExpired {
		s.metrics.IncrementLogouts("expired")
	} else {
		s.metrics.IncrementLogouts("user")
	}
	s.logger.Info("session cleared", "reason", string(reason))
}

// Rehydrate brings the store in line with durable storage. At process start
// it restores the persisted session and replicates it again, re-creating a
// cookie mirror that expired or was evicted. Later calls adopt what another
// process sharing the storage committed (a sign-in, a sign-out or another
// user) and do nothing while the storage holds what this store last wrote or
// read. Malformed or expired durable state is discarded and signs the store
// out. Only storage I/O failures are returned.
func (s *Store) Rehydrate() error {
	if s.persister == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.persister.Load()
	malformed := dErrors.HasCode(err, dErrors.CodeMalformedState)
	if err != nil && !malformed {
		return fmt.Errorf("rehydrate session: %w", err)
	}
	if malformed {
		s.logger.Warn("discarding malformed session state", "error", err)
		s.metrics.IncrementStateResets()
		if resetErr := s.persister.Reset(); resetErr != nil {
			return errors.Join(err, resetErr)
		}
		snap = Snapshot{}
	}

	token := ""
	if snap.Authenticated() {
		token = snap.Token
	}
	if !malformed && s.loaded && token == s.durable {
		return nil
	}
	s.loaded = true

	switch {
	case !snap.Authenticated():
		s.durable = ""
		if s.current.Authenticated() {
			s.commitLocked(Snapshot{}, ReasonLogout)
			s.metrics.IncrementLogouts("user")
			s.logger.Info("session cleared by another process")
		}
		s.metrics.SetAuthenticated(false)
	case expired(snap.Token, s.now()):
		s.logger.Info("discarding expired session", "user_id", snap.User.ID)
		s.commitLocked(Snapshot{}, ReasonExpired)
		s.metrics.SetAuthenticated(false)
	default:
		s.durable = token
		s.commitLocked(snap, ReasonRehydrate)
		s.metrics.SetAuthenticated(true)
		s.logger.Info("session rehydrated", "user_id", snap.User.ID)
	}
	return nil
}

// Resync runs Rehydrate before each request, so a session committed by
// another process sharing durable storage, such as the CLI, takes effect.
func (s *Store) Resync(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.Rehydrate(); err != nil {
			s.logger.WarnContext(r.Context(), "session resync failed", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Store) commitLocked(snap Snapshot, reason Reason) {
	s.current = snap
	event := Event{Snapshot: snap.clone(), Reason: reason}
	if snap.Authenticated() {
		event.TTL = lifetime(snap, s.now())
	}
	if s.notifyLocked(event) && s.persister != nil {
		s.durable, s.loaded = snap.Token, true
	}
}

// notifyLocked reports whether durable storage took the event. Other replica
// failures are only logged.
func (s *Store) notifyLocked(event Event) bool {
	persisted := true
	for _, l := range s.listeners {
		if err := l.SessionChanged(event); err != nil {
			if p, ok := l.(*Persister); ok && p == s.persister {
				persisted = false
			}
			s.logger.Error("session replica update failed",
				"reason", string(event.Reason),
				"listener", fmt.Sprintf("%T", l),
				"error", err,
			)
		}
	}
	return persisted
}

// Token returns the current bearer token, or "" when signed out.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Token
}

// Snapshot returns a copy of the committed session.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Authenticated()
}
