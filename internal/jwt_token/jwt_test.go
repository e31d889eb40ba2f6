package jwttoken

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "todoweb/pkg/domain-errors"
)

var userID = uuid.NewString()
var expiresIn = time.Hour

func newService() *JWTService {
	return NewJWTService("test-signing-key", "test-issuer", expiresIn)
}

func Test_GenerateAccessToken(t *testing.T) {
	jwtService := newService()
	token, err := jwtService.GenerateAccessToken(userID, "ADMIN")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := jwtService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "ADMIN", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.WithinDuration(t, time.Now().Add(expiresIn), claims.ExpiresAt.Time, time.Minute)
}

func Test_GenerateAccessToken_RejectsEmptyUser(t *testing.T) {
	_, err := newService().GenerateAccessToken("", "USER")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariant))
}

func Test_ValidateToken_InvalidToken(t *testing.T) {
	_, err := newService().ValidateToken("invalid-token-string")
	require.ErrorContains(t, err, "invalid token")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_ExpiredToken(t *testing.T) {
	jwtService := newService()
	token, err := jwtService.GenerateAccessToken(userID, "USER")
	require.NoError(t, err)

	jwtService.SetClock(func() time.Time { return time.Now().Add(expiresIn + time.Minute) })

	_, err = jwtService.ValidateToken(token)
	require.ErrorContains(t, err, "token expired")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_ValidateToken_RejectsAlgorithmConfusion(t *testing.T) {
	jwtService := newService()
	claims := AccessTokenClaims{
		UserID: userID,
		Role:   "ADMIN",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "test-issuer",
			ID:        uuid.NewString(),
		},
	}

	cases := []struct {
		name       string
		signMethod jwt.SigningMethod
		signKey    any
	}{
		{
			name:       "hs512 header rejected",
			signMethod: jwt.SigningMethodHS512,
			signKey:    []byte("test-signing-key"),
		},
		{
			name:       "alg none rejected",
			signMethod: jwt.SigningMethodNone,
			signKey:    jwt.UnsafeAllowNoneSignatureType,
		},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			token := jwt.NewWithClaims(tt.signMethod, claims)
			tokenString, err := token.SignedString(tt.signKey)
			require.NoError(t, err)

			_, err = jwtService.ValidateToken(tokenString)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		})
	}
}

func Test_ValidateToken_RejectsInvalidIssuer(t *testing.T) {
	otherService := NewJWTService("test-signing-key", "https://other.issuer.com", time.Hour)
	token, err := otherService.GenerateAccessToken(userID, "USER")
	require.NoError(t, err)

	_, err = newService().ValidateToken(token)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func Test_RotateSigningKey(t *testing.T) {
	jwtService := newService()
	before, err := jwtService.GenerateAccessToken(userID, "USER")
	require.NoError(t, err)

	jwtService.RotateSigningKey("rotated-key")

	_, err = jwtService.ValidateToken(before)
	require.ErrorContains(t, err, "invalid token")

	after, err := jwtService.GenerateAccessToken(userID, "USER")
	require.NoError(t, err)
	_, err = jwtService.ValidateToken(after)
	require.NoError(t, err)
}

func Test_JWTServiceAdapter(t *testing.T) {
	jwtService := newService()
	token, err := jwtService.GenerateAccessToken(userID, "ADMIN")
	require.NoError(t, err)

	claims, err := NewJWTServiceAdapter(jwtService).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "ADMIN", claims.Role)
}
