package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"educrm/internal/auth"
	"educrm/internal/authz"
	apperrors "educrm/internal/errors"
	"educrm/internal/metrics"
	"educrm/internal/model"
	"educrm/internal/repository"
)

// CreateUserInput carries validated admin user-creation fields.
type CreateUserInput struct {
	Email    string
	Password string
	Role     model.Role
}

// UpdateUserInput carries the partial profile update; nil fields are untouched.
type UpdateUserInput struct {
	Email *string
	Role  *model.Role
}

// UserStats aggregates a user's academic standing.
type UserStats struct {
	TotalCourses     int64    `json:"totalCourses"`
	TotalEnrollments int64    `json:"totalEnrollments"`
	TotalAssignments int64    `json:"totalAssignments"`
	AverageGrade     *float64 `json:"averageGrade"`
	TotalCredits     int      `json:"totalCredits"`
}

// UserService implements user administration under the self-or-admin rule,
// widened for lecturers to the students approved into their courses.
type UserService interface {
	Create(ctx context.Context, p *auth.Principal, in CreateUserInput) (*model.User, error)
	List(ctx context.Context, p *auth.Principal) ([]model.User, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.User, error)
	Stats(ctx context.Context, p *auth.Principal, id uuid.UUID) (*UserStats, error)
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, in UpdateUserInput) (*model.User, error)
	UpdatePassword(ctx context.Context, p *auth.Principal, id uuid.UUID, currentPassword, newPassword string) error
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
}

type userService struct {
	users       repository.UserRepository
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	hasher      auth.PasswordHasher
	log         zerolog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	users repository.UserRepository,
	enrollments repository.EnrollmentRepository,
	assignments repository.AssignmentRepository,
	hasher auth.PasswordHasher,
	log zerolog.Logger,
) UserService {
	return &userService{
		users:       users,
		enrollments: enrollments,
		assignments: assignments,
		hasher:      hasher,
		log:         log.With().Str("component", "user_service").Logger(),
	}
}

func (s *userService) Create(ctx context.Context, p *auth.Principal, in CreateUserInput) (*model.User, error) {
	if !authz.CanCreateUser(p.Role) {
		metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
		return nil, apperrors.Forbidden("only administrators can create users")
	}

	role := in.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, apperrors.Validation("role must be either STUDENT, LECTURER, or ADMIN")
	}

	if existing, err := s.users.FindByEmail(ctx, in.Email); err == nil && existing != nil {
		return nil, apperrors.ErrEmailTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	passwordHash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        in.Email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().Str("email", user.Email).Str("role", string(role)).Msg("user created by admin")
	return user, nil
}

func (s *userService) List(ctx context.Context, p *auth.Principal) ([]model.User, error) {
	switch p.Role {
	case model.RoleAdmin:
		return s.users.List(ctx)
	case model.RoleLecturer:
		return s.users.ListStudentsForLecturer(ctx, p.ID)
	default:
		// Students see only themselves.
		user, err := s.users.FindByID(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("find user: %w", err)
		}
		return []model.User{*user}, nil
	}
}

func (s *userService) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.User, error) {
	if err := s.authorizeProfileRead(ctx, p, id); err != nil {
		return nil, err
	}

	user, err := s.users.FindByIDWithRelations(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *userService) Stats(ctx context.Context, p *auth.Principal, id uuid.UUID) (*UserStats, error) {
	if err := s.authorizeProfileRead(ctx, p, id); err != nil {
		return nil, err
	}

	counts, err := s.users.Counts(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("count user relations: %w", err)
	}

	stats := &UserStats{
		TotalCourses:     counts.Courses,
		TotalEnrollments: counts.Enrollments,
		TotalAssignments: counts.Assignments,
	}

	graded, err := s.assignments.ListGradedByStudent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list graded assignments: %w", err)
	}
	var weighted, totalWeight float64
	for _, a := range graded {
		if a.Grade != nil {
			weighted += *a.Grade * a.Weight
			totalWeight += a.Weight
		}
	}
	if totalWeight > 0 {
		avg := math.Round(weighted / totalWeight)
		stats.AverageGrade = &avg
	}

	studentID := id
	approved, err := s.enrollments.List(ctx, repository.EnrollmentFilter{
		StudentID: &studentID,
		Status:    model.EnrollApproved,
	})
	if err != nil {
		return nil, fmt.Errorf("list approved enrollments: %w", err)
	}
	for _, e := range approved {
		if e.Course != nil {
			stats.TotalCredits += e.Course.Credits
		}
	}

	return stats, nil
}

func (s *userService) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, in UpdateUserInput) (*model.User, error) {
	if !authz.SelfOrAdmin(p, id) {
		metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
		return nil, apperrors.Forbidden("you can only update your own profile")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if in.Email != nil && *in.Email != user.Email {
		if existing, err := s.users.FindByEmail(ctx, *in.Email); err == nil && existing != nil {
			return nil, apperrors.ErrEmailTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check email: %w", err)
		}
		user.Email = *in.Email
	}

	if in.Role != nil && *in.Role != user.Role {
		// Role reassignment is admin-only, even on one's own record.
		if !authz.CanChangeRole(p.Role) {
			metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
			return nil, apperrors.Forbidden("only administrators can change user roles")
		}
		if !in.Role.Valid() {
			return nil, apperrors.Validation("role must be either STUDENT, LECTURER, or ADMIN")
		}
		user.Role = *in.Role
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *userService) UpdatePassword(ctx context.Context, p *auth.Principal, id uuid.UUID, currentPassword, newPassword string) error {
	if !authz.SelfOrAdmin(p, id) {
		metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
		return apperrors.Forbidden("you can only update your own password")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	// Admins may reset without the current password; everyone else must prove it.
	if p.Role != model.RoleAdmin && !s.hasher.Verify(currentPassword, user.PasswordHash) {
		return apperrors.ErrWrongPassword
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, passwordHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.log.Info().Str("email", user.Email).Msg("password updated")
	return nil
}

func (s *userService) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if !authz.CanDeleteUser(p.Role) {
		metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
		return apperrors.Forbidden("only administrators can delete users")
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.log.Info().Str("email", user.Email).Msg("user deleted")
	return nil
}

// authorizeProfileRead applies the self-or-admin rule, widened for lecturers
// to students holding an APPROVED enrollment in one of their courses.
func (s *userService) authorizeProfileRead(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	if authz.SelfOrAdmin(p, id) {
		return nil
	}

	if p.Role == model.RoleLecturer {
		ok, err := s.enrollments.ExistsApprovedForLecturer(ctx, id, p.ID)
		if err != nil {
			return fmt.Errorf("check lecturer access: %w", err)
		}
		if ok {
			return nil
		}
		metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
		return apperrors.Forbidden("you can only view students enrolled in your courses")
	}

	metrics.AuthzDenialsTotal.WithLabelValues("user").Inc()
	return apperrors.Forbidden("you can only view your own profile")
}
