package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iquiquesec/ciberseguridad/internal/service"
)

func TestAuthService(t *testing.T) {
	auth := service.NewAuthService("test-secret")
	require.True(t, auth.Enabled())

	token, err := auth.GenerateToken("ops")
	require.NoError(t, err)

	claims, err := auth.ValidateAdminToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, service.RoleAdmin, claims.Role)

	refreshed, err := auth.RefreshToken(token)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed)

	_, err = service.NewAuthService("other-secret").ValidateToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAuthService_RejectsNonAdmin(t *testing.T) {
	auth := service.NewAuthService("test-secret")
	claims := &service.Claims{
		Role: "viewer",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.JWTSecret)
	require.NoError(t, err)

	_, err = auth.ValidateToken(token)
	require.NoError(t, err)
	_, err = auth.ValidateAdminToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAuthService_Expired(t *testing.T) {
	auth := service.NewAuthService("test-secret")
	claims := &service.Claims{
		Role: service.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(auth.JWTSecret)
	require.NoError(t, err)

	_, err = auth.ValidateAdminToken(token)
	assert.ErrorIs(t, err, service.ErrInvalidToken)
}

func TestAuthService_Disabled(t *testing.T) {
	auth := service.NewAuthService("")
	assert.False(t, auth.Enabled())
	_, err := auth.GenerateToken("ops")
	assert.Error(t, err)
}
