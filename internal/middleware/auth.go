// Package middleware provides the session transport gate.
package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/metrics"
)

// Auth extracts the bearer token (jwt cookie first, then Authorization
// header), verifies it, and attaches the principal to the request context.
// Any failure terminates the request with 401 before downstream handlers run.
func Auth(tokens *auth.TokenService, log zerolog.Logger) echo.MiddlewareFunc {
	authLog := log.With().Str("component", "auth_middleware").Logger()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := auth.ExtractToken(c)
			if token == "" {
				metrics.AuthFailuresTotal.WithLabelValues("missing_token").Inc()
				return apperrors.ErrUnauthenticated
			}

			principal, err := tokens.Verify(token)
			if err != nil {
				metrics.AuthFailuresTotal.WithLabelValues("invalid_token").Inc()
				authLog.Debug().
					Str("path", c.Path()).
					Msg("request rejected with invalid token")
				return apperrors.ErrUnauthenticated
			}

			auth.SetPrincipal(c, principal)
			return next(c)
		}
	}
}
