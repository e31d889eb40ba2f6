package jwttoken

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	dErrors "todoweb/pkg/domain-errors"
)

// AccessTokenClaims represents the JWT claims of the access tokens the mock
// API issues on login.
type AccessTokenClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	issuer   string
	tokenTTL time.Duration
	now      func() time.Time

	mu         sync.RWMutex
	signingKey []byte
}

func NewJWTService(signingKey string, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
		now:        time.Now,
	}
}

// SetClock replaces the time source used to stamp and check tokens.
func (s *JWTService) SetClock(now func() time.Time) {
	s.now = now
}

// RotateSigningKey replaces the signing key. Every token issued before the
// rotation stops validating, which is how the API revokes all sessions.
func (s *JWTService) RotateSigningKey(signingKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.signingKey = []byte(signingKey)
}

func (s *JWTService) key() []byte {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.signingKey
}

func (s *JWTService) GenerateAccessToken(userID, role string) (string, error) {
	if userID == "" {
		return "", dErrors.New(dErrors.CodeInvariant, "user id cannot be empty")
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	now := s.now()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        hex.EncodeToString(b),
		},
	})
	return token.SignedString(s.key())
}

func (s *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	key := s.key()
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return key, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
