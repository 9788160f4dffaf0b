package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/model"
)

func runGate(t *testing.T, tokens *auth.TokenService, mutate func(*http.Request)) (*auth.Principal, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen *auth.Principal
	handler := Auth(tokens, zerolog.Nop())(func(c echo.Context) error {
		seen = auth.PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	return seen, err
}

func TestAuth_MissingToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())

	seen, err := runGate(t, tokens, nil)
	assert.Nil(t, seen)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuth_InvalidToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())

	seen, err := runGate(t, tokens, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.token")
	})
	assert.Nil(t, seen)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuth_ForgedToken(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())
	other := auth.NewTokenService("other-secret", time.Hour, zerolog.Nop())

	forged, err := other.Issue(uuid.New(), "mallory@example.com", model.RoleAdmin)
	assert.NoError(t, err)

	seen, err := runGate(t, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: forged})
	})
	assert.Nil(t, seen)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuth_ValidCookieAttachesPrincipal(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())
	id := uuid.New()

	token, err := tokens.Issue(id, "alice@example.com", model.RoleStudent)
	assert.NoError(t, err)

	seen, err := runGate(t, tokens, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
	})
	assert.NoError(t, err)
	assert.NotNil(t, seen)
	assert.Equal(t, id, seen.ID)
	assert.Equal(t, "alice@example.com", seen.Email)
	assert.Equal(t, model.RoleStudent, seen.Role)
}

func TestAuth_ValidHeaderAttachesPrincipal(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())

	token, err := tokens.Issue(uuid.New(), "bob@example.com", model.RoleLecturer)
	assert.NoError(t, err)

	seen, err := runGate(t, tokens, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	assert.NoError(t, err)
	assert.NotNil(t, seen)
	assert.Equal(t, model.RoleLecturer, seen.Role)
}
