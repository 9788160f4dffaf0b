package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/model"
)

func newTestAuthService(users *MockUserRepository) AuthService {
	hasher := auth.NewPasswordHasher()
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())
	return NewAuthService(users, hasher, tokens, zerolog.Nop())
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		email         string
		password      string
		role          model.Role
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name:     "successful registration",
			email:    "alice@example.com",
			password: "password123",
			role:     model.RoleStudent,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
			expectedError: nil,
		},
		{
			name:     "email already taken",
			email:    "taken@example.com",
			password: "password123",
			role:     model.RoleStudent,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "taken@example.com").
					Return(&model.User{Email: "taken@example.com"}, nil)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:     "duplicate surfaced at insert wins the race",
			email:    "racer@example.com",
			password: "password123",
			role:     model.RoleStudent,
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "racer@example.com").Return(nil, gorm.ErrRecordNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(gorm.ErrDuplicatedKey)
			},
			expectedError: apperrors.ErrEmailTaken,
		},
		{
			name:          "unknown role rejected",
			email:         "alice@example.com",
			password:      "password123",
			role:          model.Role("SUPERUSER"),
			setupMock:     func(m *MockUserRepository) {},
			expectedError: apperrors.Validation("role must be either STUDENT, LECTURER, or ADMIN"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := newTestAuthService(mockRepo)
			user, err := svc.Register(context.Background(), tt.email, tt.password, tt.role)

			if tt.expectedError != nil {
				assert.Nil(t, user)
				assert.EqualError(t, err, tt.expectedError.Error())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.email, user.Email)
				assert.Equal(t, tt.role, user.Role)
				assert.NotEqual(t, tt.password, user.PasswordHash)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	hasher := auth.NewPasswordHasher()
	digest, err := hasher.Hash("password123")
	assert.NoError(t, err)

	stored := &model.User{Email: "alice@example.com", PasswordHash: digest, Role: model.RoleStudent}

	tests := []struct {
		name      string
		email     string
		password  string
		setupMock func(*MockUserRepository)
		wantErr   error
	}{
		{
			name:     "successful login",
			email:    "alice@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
			},
		},
		{
			name:     "unknown email",
			email:    "ghost@example.com",
			password: "password123",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
			},
			wantErr: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "wrong password",
			email:    "alice@example.com",
			password: "wrong",
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)
			},
			wantErr: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			svc := newTestAuthService(mockRepo)
			token, user, err := svc.Login(context.Background(), tt.email, tt.password)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				assert.Nil(t, user)
			} else {
				assert.NoError(t, err)
				assert.NotEmpty(t, token)
				assert.Equal(t, tt.email, user.Email)
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginFailuresAreUniform(t *testing.T) {
	// Unknown email and wrong password must be indistinguishable to the caller.
	hasher := auth.NewPasswordHasher()
	digest, err := hasher.Hash("password123")
	assert.NoError(t, err)

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)
	mockRepo.On("FindByEmail", mock.Anything, "alice@example.com").
		Return(&model.User{Email: "alice@example.com", PasswordHash: digest}, nil)

	svc := newTestAuthService(mockRepo)

	_, _, unknownErr := svc.Login(context.Background(), "ghost@example.com", "password123")
	_, _, wrongErr := svc.Login(context.Background(), "alice@example.com", "not-the-password")

	assert.Equal(t, unknownErr, wrongErr)
}

func TestAuthService_LoginTokenCarriesIdentity(t *testing.T) {
	hasher := auth.NewPasswordHasher()
	digest, err := hasher.Hash("password123")
	assert.NoError(t, err)

	stored := &model.User{Email: "alice@example.com", PasswordHash: digest, Role: model.RoleLecturer}

	mockRepo := new(MockUserRepository)
	mockRepo.On("FindByEmail", mock.Anything, "alice@example.com").Return(stored, nil)

	hasherIface := auth.NewPasswordHasher()
	tokens := auth.NewTokenService("test-secret", time.Hour, zerolog.Nop())
	svc := NewAuthService(mockRepo, hasherIface, tokens, zerolog.Nop())

	token, _, err := svc.Login(context.Background(), "alice@example.com", "password123")
	assert.NoError(t, err)

	principal, err := svc.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", principal.Email)
	assert.Equal(t, model.RoleLecturer, principal.Role)
}

func TestAuthService_VerifyRejectsInvalid(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository))

	principal, err := svc.Verify("not.a.token")
	assert.Nil(t, principal)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestAuthService_LogoutIsIdempotent(t *testing.T) {
	svc := newTestAuthService(new(MockUserRepository))

	// None of these may panic or fail: logout succeeds regardless of what
	// token, if any, accompanied the request.
	svc.Logout("")
	svc.Logout("garbage")
	svc.Logout("garbage")
}
