package session

import (
	"encoding/json"
	"net/url"
	"strings"

	dErrors "todoweb/pkg/domain-errors"
)

// CookieName names both the cookie mirror and the durable storage entry.
const CookieName = "auth-storage"

// Roles known to the API. Any role other than RoleAdmin lands on the dashboard.
const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

// User is the identity returned by the API on login.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Role     string `json:"role"`
}

// DisplayName prefers the full name, then the short name, then the email.
func (u User) DisplayName() string {
	switch {
	case u.FullName != "":
		return u.FullName
	case u.Name != "":
		return u.Name
	default:
		return u.Email
	}
}

// Snapshot is one committed value of the session.
type Snapshot struct {
	Token           string `json:"token"`
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"isAuthenticated"`
	RememberMe      bool   `json:"rememberMe,omitempty"`
}

// Authenticated requires both the flag and a token; a snapshot carrying only
// one of them counts as signed out.
func (s Snapshot) Authenticated() bool {
	return s.IsAuthenticated && s.Token != ""
}

// Role returns the user's role, or "" when signed out.
func (s Snapshot) Role() string {
	if !s.Authenticated() || s.User == nil {
		return ""
	}
	return s.User.Role
}

func (s Snapshot) clone() Snapshot {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func (s Snapshot) validate() error {
	if s.Authenticated() && (s.User == nil || s.User.ID == "") {
		return dErrors.New(dErrors.CodeMalformedState, "authenticated session without user")
	}
	return nil
}

type envelope struct {
	State   Snapshot `json:"state"`
	Version int      `json:"version"`
}

// Marshal encodes s in the persisted {"state":{...}} form.
func Marshal(s Snapshot) ([]byte, error) {
	return json.Marshal(envelope{State: s})
}

// Unmarshal decodes the persisted form. Any decode failure, or a snapshot
// that claims authentication without a user, is CodeMalformedState.
func Unmarshal(data []byte) (Snapshot, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Snapshot{}, dErrors.Wrap(err, dErrors.CodeMalformedState, "malformed session state")
	}
	if err := env.State.validate(); err != nil {
		return Snapshot{}, err
	}
	return env.State, nil
}

// MarshalCookie encodes s as a cookie value: the persisted JSON, URL-escaped.
func MarshalCookie(s Snapshot) (string, error) {
	data, err := Marshal(s)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(data)), nil
}

// ParseCookie decodes a cookie mirror value. The value is untrusted: it may be
// escaped or raw JSON, and any failure is reported as CodeMalformedState.
// An empty value is a signed-out snapshot.
func ParseCookie(value string) (Snapshot, error) {
	if value == "" {
		return Snapshot{}, nil
	}
	raw := value
	if !strings.HasPrefix(value, "{") {
		unescaped, err := url.QueryUnescape(value)
		if err != nil {
			return Snapshot{}, dErrors.Wrap(err, dErrors.CodeMalformedState, "malformed session cookie")
		}
		raw = unescaped
	}
	return Unmarshal([]byte(raw))
}
