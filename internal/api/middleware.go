package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// adminAuthMiddleware requires an admin bearer token when a JWT secret is
// configured and lets every request through otherwise.
func (s *Server) adminAuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.authService.Enabled() {
			return next(c)
		}
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, NewErrorResponseWithMessage(MsgMissingAuthHeader))
		}
		tokenStr, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok || tokenStr == "" {
			return c.JSON(http.StatusUnauthorized, NewErrorResponseWithMessage(MsgInvalidAuthHeader))
		}
		claims, err := s.authService.ValidateAdminToken(tokenStr)
		if err != nil {
			s.logger.Warnf("fail to validate token, err: %v", err)
			return c.JSON(http.StatusUnauthorized, NewErrorResponseWithMessage(MsgUnauthorized))
		}
		c.Set("admin_subject", claims.Subject)
		return next(c)
	}
}

// requireFeature answers 503 while the flag key is switched off.
func (s *Server) requireFeature(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !s.features.Enabled(c.Request().Context(), key) {
				return c.JSON(http.StatusServiceUnavailable, NewErrorResponseWithDetails(msgFeatureDisabled, key))
			}
			return next(c)
		}
	}
}
