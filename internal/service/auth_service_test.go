package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/live-timetable-api/internal/models"
	appErrors "github.com/noah-isme/live-timetable-api/pkg/errors"
)

func TestTokenVerifierRoundTrip(t *testing.T) {
	verifier := NewTokenVerifier(AuthConfig{Secret: "secret", Issuer: "registrar"})
	token, err := verifier.Issue("faculty-1", models.RoleTeacher, time.Hour)
	require.NoError(t, err)

	claims, err := verifier.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "faculty-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestTokenVerifierRejects(t *testing.T) {
	verifier := NewTokenVerifier(AuthConfig{Secret: "secret", Issuer: "registrar"})

	expired, err := verifier.Issue("faculty-1", models.RoleTeacher, -time.Minute)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(expired)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	otherIssuer, err := NewTokenVerifier(AuthConfig{Secret: "secret", Issuer: "elsewhere"}).Issue("faculty-1", models.RoleTeacher, time.Hour)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(otherIssuer)
	assert.Error(t, err)

	wrongSecret, err := NewTokenVerifier(AuthConfig{Secret: "other", Issuer: "registrar"}).Issue("faculty-1", models.RoleTeacher, time.Hour)
	require.NoError(t, err)
	_, err = verifier.ValidateToken(wrongSecret)
	assert.Error(t, err)

	noRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, models.JWTClaims{
		UserID:           "faculty-1",
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "registrar", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = verifier.ValidateToken(noRole)
	assert.Error(t, err)
}
