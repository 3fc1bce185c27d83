package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

const (
	expireDuration = 7 * 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid or expired token")

type AuthService struct {
	JWTSecret []byte
}

// NewAuthService creates a new authentication service
func NewAuthService(secret string) *AuthService {
	return &AuthService{
		JWTSecret: []byte(secret),
	}
}

// Enabled reports whether a secret is configured. Without one the admin
// routes are left open.
func (a *AuthService) Enabled() bool {
	return a != nil && len(a.JWTSecret) > 0
}

// GenerateToken creates a new admin JWT for subject.
func (a *AuthService) GenerateToken(subject string) (string, error) {
	if !a.Enabled() {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(expireDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.JWTSecret)
}

// ValidateToken validates a JWT token
func (a *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return a.JWTSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateAdminToken validates tokenStr and requires the admin role.
func (a *AuthService) ValidateAdminToken(tokenStr string) (*Claims, error) {
	claims, err := a.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleAdmin {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshToken refreshes a JWT token
func (a *AuthService) RefreshToken(oldToken string) (string, error) {
	claims, err := a.ValidateAdminToken(oldToken)
	if err != nil {
		return "", err
	}
	return a.GenerateToken(claims.Subject)
}
