package cmd

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/auth"
	"evalgo.org/contentupgrade/internal/config"
)

// Context keys set by AuthMiddleware.
const (
	ctxPrincipal = "principal"
)

// Header names read by AuthMiddleware.
const (
	headerAPIKey = "x-api-key"
	bearerPrefix = "Bearer "
)

// AuthMiddleware authenticates API requests according to cfg.Mode:
//   - none: every request passes as an anonymous admin
//   - apikey: x-api-key must match auth.api_key or auth.api_key_hash
//   - jwt: Authorization must carry a valid bearer token
func AuthMiddleware(cfg config.AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch cfg.Mode {
			case config.AuthAPIKey:
				key := c.Request().Header.Get(headerAPIKey)
				if key == "" {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing x-api-key header")
				}
				if !auth.CheckAPIKey(key, cfg.APIKey, cfg.APIKeyHash) {
					logrus.WithField("remote_ip", c.RealIP()).Warn("Rejected request with invalid API key")
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid API key")
				}
				c.Set(ctxPrincipal, auth.Principal{Subject: "api-key", Role: auth.RoleAdmin, Method: config.AuthAPIKey})

			case config.AuthJWT:
				header := c.Request().Header.Get(echo.HeaderAuthorization)
				if !strings.HasPrefix(header, bearerPrefix) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Missing bearer token")
				}
				claims, err := auth.ValidateToken(strings.TrimPrefix(header, bearerPrefix), cfg.Issuer, cfg.JWTSecret)
				if err != nil {
					logrus.WithError(err).WithField("remote_ip", c.RealIP()).Warn("Rejected request with invalid token")
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
				}
				c.Set(ctxPrincipal, auth.Principal{Subject: claims.Subject, Role: claims.Role, Method: config.AuthJWT})

			default:
				c.Set(ctxPrincipal, auth.Principal{Subject: "anonymous", Role: auth.RoleAdmin, Method: config.AuthNone})
			}

			return next(c)
		}
	}
}

// AdminOnlyMiddleware ensures only admin principals can access
func AdminOnlyMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if GetPrincipal(c).Role != auth.RoleAdmin {
				return echo.NewHTTPError(http.StatusForbidden, "Admin access required")
			}
			return next(c)
		}
	}
}

// GetPrincipal returns the authenticated caller from context
func GetPrincipal(c echo.Context) auth.Principal {
	if p, ok := c.Get(ctxPrincipal).(auth.Principal); ok {
		return p
	}
	return auth.Principal{}
}
