package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"educrm/internal/model"
)

func newTestTokenService(ttl time.Duration) *TokenService {
	return NewTokenService("test-secret", ttl, zerolog.Nop())
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	id := uuid.New()

	token, err := svc.Issue(id, "alice@example.com", model.RoleStudent)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	principal, err := svc.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, id, principal.ID)
	assert.Equal(t, "alice@example.com", principal.Email)
	assert.Equal(t, model.RoleStudent, principal.Role)
}

func TestTokenService_VerifyIsIdempotent(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	token, err := svc.Issue(uuid.New(), "alice@example.com", model.RoleAdmin)
	assert.NoError(t, err)

	first, err := svc.Verify(token)
	assert.NoError(t, err)
	second, err := svc.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenService_UniformInvalidOutcome(t *testing.T) {
	svc := newTestTokenService(time.Hour)
	otherSvc := NewTokenService("different-secret", time.Hour, zerolog.Nop())

	valid, err := svc.Issue(uuid.New(), "alice@example.com", model.RoleStudent)
	assert.NoError(t, err)

	forged, err := otherSvc.Issue(uuid.New(), "mallory@example.com", model.RoleAdmin)
	assert.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"malformed", "not.a.token"},
		{"empty", ""},
		{"wrong signing key", forged},
		{"tampered payload", valid[:len(valid)-2] + "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			principal, err := svc.Verify(tt.token)
			assert.Nil(t, principal)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_ExpiredToken(t *testing.T) {
	// Constructed directly so the expiry horizon can sit in the past.
	svc := &TokenService{secret: []byte("test-secret"), ttl: -time.Minute, log: zerolog.Nop()}

	token, err := svc.Issue(uuid.New(), "alice@example.com", model.RoleStudent)
	assert.NoError(t, err)

	principal, err := svc.Verify(token)
	assert.Nil(t, principal)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_DefaultTTL(t *testing.T) {
	svc := newTestTokenService(0)
	assert.Equal(t, time.Hour, svc.TTL())
}
