package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Cookie lifetimes.
const (
	DefaultTTL    = 24 * time.Hour
	RememberMeTTL = 7 * 24 * time.Hour
)

// tokenExpiry reads the exp claim without verifying the signature. The client
// holds no key; the API remains the authority on validity. Tokens that are not
// JWTs, or carry no exp, report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// lifetime is the cookie lifetime for a snapshot committed at now, capped at
// the token's own expiry when it has one in the future.
func lifetime(s Snapshot, now time.Time) time.Duration {
	ttl := DefaultTTL
	if s.RememberMe {
		ttl = RememberMeTTL
	}
	if exp, ok := tokenExpiry(s.Token); ok {
		if remaining := exp.Sub(now); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}
	return ttl
}

// expired reports whether the token carries an exp claim at or before now.
func expired(token string, now time.Time) bool {
	exp, ok := tokenExpiry(token)
	return ok && !exp.After(now)
}
