package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"educrm/internal/model"
)

// ErrInvalidToken is the single verification failure outcome. Expired, forged
// and malformed tokens are indistinguishable to callers; the distinction is
// only logged internally.
var ErrInvalidToken = errors.New("invalid token")

// Principal is the request-scoped identity attached after verification.
// It is never persisted.
type Principal struct {
	ID    uuid.UUID  `json:"id"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

// Claims is the signed claim set carried by a session token.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies stateless HS256 session tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	log    zerolog.Logger
}

// NewTokenService creates a token service. The secret is immutable
// process-wide configuration; ttl is the fixed expiry horizon.
func NewTokenService(secret string, ttl time.Duration, log zerolog.Logger) *TokenService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		log:    log.With().Str("component", "token_service").Logger(),
	}
}

// TTL returns the expiry horizon tokens are minted with.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue mints a signed token for the identity.
func (s *TokenService) Issue(id uuid.UUID, email string, role model.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: email,
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and structure, returning the embedded
// principal. Verification is stateless and side-effect free: the same valid
// token yields identical claims every time.
func (s *TokenService) Verify(tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		// Log the real cause; callers only ever see ErrInvalidToken.
		s.log.Debug().Err(err).Msg("token rejected")
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.log.Debug().Err(err).Msg("token subject is not a uuid")
		return nil, ErrInvalidToken
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		s.log.Debug().Str("role", claims.Role).Msg("token carries unknown role")
		return nil, ErrInvalidToken
	}

	return &Principal{ID: subject, Email: claims.Email, Role: role}, nil
}
