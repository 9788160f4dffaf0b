package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "jwt"

// principalKey is the echo context key the middleware stores the principal under.
const principalKey = "auth_principal"

// ExtractToken pulls the bearer token off a request. Precedence is fixed:
// the jwt cookie first, then the Authorization header. Returns "" when
// neither is present.
func ExtractToken(c echo.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := c.Request().Header.Get(echo.HeaderAuthorization)
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// sessionCookie builds the cookie with the one attribute set used for both
// setting and clearing. Browsers silently ignore a clear whose attributes
// differ from the set, so both paths must go through here.
func sessionCookie(value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// SetSessionCookie attaches the session token as an HTTP-only cookie whose
// lifetime matches the token's expiry.
func SetSessionCookie(c echo.Context, token string, ttl time.Duration, secure bool) {
	c.SetCookie(sessionCookie(token, int(ttl.Seconds()), secure))
}

// ClearSessionCookie expires the session cookie using the same attributes it
// was set with.
func ClearSessionCookie(c echo.Context, secure bool) {
	c.SetCookie(sessionCookie("", -1, secure))
}

// SetPrincipal attaches the verified principal to the request context.
func SetPrincipal(c echo.Context, p *Principal) {
	c.Set(principalKey, p)
}

// PrincipalFrom returns the principal attached by the auth middleware, or
// nil when the request never passed the gate.
func PrincipalFrom(c echo.Context) *Principal {
	p, _ := c.Get(principalKey).(*Principal)
	return p
}
