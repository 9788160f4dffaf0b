package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/metrics"
	"educrm/internal/model"
	"educrm/internal/repository"
)

// AuthService handles registration, login and token verification.
//
// Request handling is stateless with respect to this service: tokens are
// self-contained, nothing is stored per session, and logout only clears the
// client-side cookie. A logged-out token therefore stays valid until its
// natural expiry.
type AuthService interface {
	Register(ctx context.Context, email, password string, role model.Role) (*model.User, error)
	Login(ctx context.Context, email, password string) (token string, user *model.User, err error)
	Logout(token string)
	Verify(token string) (*auth.Principal, error)
}

type authService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	tokens *auth.TokenService
	log    zerolog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(users repository.UserRepository, hasher auth.PasswordHasher, tokens *auth.TokenService, log zerolog.Logger) AuthService {
	return &authService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		log:    log.With().Str("component", "auth_service").Logger(),
	}
}

// Register creates a new identity with a hashed password.
//
// The lookup-by-email is an early exit only: two concurrent registrations can
// both pass it, so the database uniqueness constraint is the authoritative
// duplicate signal and a duplicate-key error at insert maps to the same
// conflict outcome.
func (s *authService) Register(ctx context.Context, email, password string, role model.Role) (*model.User, error) {
	if !role.Valid() {
		return nil, apperrors.Validation("role must be either STUDENT, LECTURER, or ADMIN")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	metrics.RegistrationsTotal.WithLabelValues(string(role)).Inc()
	s.log.Info().Str("email", user.Email).Str("role", string(role)).Msg("user registered")

	return user, nil
}

// Login authenticates credentials and mints a session token. Unknown email
// and wrong password are indistinguishable to the caller; the real cause is
// only logged.
func (s *authService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Error().Err(err).Msg("login lookup failed")
		} else {
			s.log.Warn().Str("email", email).Msg("login failed: unknown email")
		}
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, apperrors.ErrInvalidCredentials
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.Warn().Str("email", email).Msg("login failed: wrong password")
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", nil, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.log.Info().Str("email", email).Msg("login successful")

	return token, user, nil
}

// Logout is idempotent and never a point of authentication failure: an
// expired, forged or absent token still results in success. The token is
// verified only so the departure can be logged.
func (s *authService) Logout(token string) {
	if token == "" {
		return
	}
	if principal, err := s.tokens.Verify(token); err == nil {
		s.log.Info().Str("email", principal.Email).Msg("user logged out")
	} else {
		s.log.Warn().Msg("logout with invalid token attempted")
	}
}

// Verify validates a session token and returns its principal.
func (s *authService) Verify(token string) (*auth.Principal, error) {
	principal, err := s.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.ErrUnauthenticated
	}
	return principal, nil
}
