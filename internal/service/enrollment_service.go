package service

import (
	"context"
	"errors"
	"fmt"

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

// CreateEnrollmentInput carries validated enrollment creation fields.
// StudentID defaults to the requester when nil; Status defaults to PENDING.
type CreateEnrollmentInput struct {
	CourseID  uuid.UUID
	StudentID *uuid.UUID
	Status    model.EnrollStatus
}

// ListEnrollmentsInput carries the optional listing filters.
type ListEnrollmentsInput struct {
	CourseID  *uuid.UUID
	StudentID *uuid.UUID
	Status    model.EnrollStatus
}

// EnrollmentStats is the per-status breakdown scoped to the requester's role.
type EnrollmentStats struct {
	Total    int64                        `json:"total"`
	ByStatus map[model.EnrollStatus]int64 `json:"byStatus"`
}

// EnrollmentService implements enrollment CRUD with ownership rules threaded
// through every operation.
type EnrollmentService interface {
	Create(ctx context.Context, p *auth.Principal, in CreateEnrollmentInput) (*model.Enrollment, error)
	List(ctx context.Context, p *auth.Principal, in ListEnrollmentsInput) ([]model.Enrollment, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.Enrollment, error)
	UpdateStatus(ctx context.Context, p *auth.Principal, id uuid.UUID, status model.EnrollStatus) (*model.Enrollment, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	Stats(ctx context.Context, p *auth.Principal) (*EnrollmentStats, error)
}

type enrollmentService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	users       repository.UserRepository
	log         zerolog.Logger
}

// NewEnrollmentService creates a new enrollment service.
func NewEnrollmentService(
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
	users repository.UserRepository,
	log zerolog.Logger,
) EnrollmentService {
	return &enrollmentService{
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		log:         log.With().Str("component", "enrollment_service").Logger(),
	}
}

func (s *enrollmentService) Create(ctx context.Context, p *auth.Principal, in CreateEnrollmentInput) (*model.Enrollment, error) {
	studentID := p.ID
	if in.StudentID != nil {
		studentID = *in.StudentID
	}

	if !authz.CanEnrollStudent(p, studentID) {
		metrics.AuthzDenialsTotal.WithLabelValues("enrollment").Inc()
		return nil, apperrors.Forbidden("students can only enroll themselves")
	}

	if _, err := s.courses.FindByID(ctx, in.CourseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}

	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	if student.Role != model.RoleStudent {
		return nil, apperrors.ErrNotAStudent
	}

	if exists, err := s.enrollments.Exists(ctx, in.CourseID, studentID); err != nil {
		return nil, fmt.Errorf("check enrollment: %w", err)
	} else if exists {
		return nil, apperrors.ErrAlreadyEnrolled
	}

	status := in.Status
	if status == "" {
		status = model.EnrollPending
	}
	if !status.Valid() {
		return nil, apperrors.Validation("status must be PENDING, APPROVED, or REJECTED")
	}

	enrollment := &model.Enrollment{
		CourseID:  in.CourseID,
		StudentID: studentID,
		Status:    status,
	}
	if err := s.enrollments.Create(ctx, enrollment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrAlreadyEnrolled
		}
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	s.log.Info().
		Str("course_id", in.CourseID.String()).
		Str("student", student.Email).
		Msg("enrollment created")

	return s.enrollments.FindByID(ctx, enrollment.ID)
}

func (s *enrollmentService) List(ctx context.Context, p *auth.Principal, in ListEnrollmentsInput) ([]model.Enrollment, error) {
	filter := repository.EnrollmentFilter{
		CourseID: in.CourseID,
		Status:   in.Status,
	}

	switch p.Role {
	case model.RoleStudent:
		// Students see their own enrollments; the studentId filter is ignored.
		id := p.ID
		filter.StudentID = &id
	case model.RoleLecturer:
		id := p.ID
		filter.LecturerID = &id
		filter.StudentID = in.StudentID
	default:
		filter.StudentID = in.StudentID
	}

	return s.enrollments.List(ctx, filter)
}

func (s *enrollmentService) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*model.Enrollment, error) {
	enrollment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanReadEnrollment(p, enrollment.StudentID, enrollment.Course.LecturerID) {
		metrics.AuthzDenialsTotal.WithLabelValues("enrollment").Inc()
		return nil, apperrors.Forbidden("you can only access your own enrollments")
	}
	return enrollment, nil
}

func (s *enrollmentService) UpdateStatus(ctx context.Context, p *auth.Principal, id uuid.UUID, status model.EnrollStatus) (*model.Enrollment, error) {
	if !status.Valid() {
		return nil, apperrors.Validation("status must be PENDING, APPROVED, or REJECTED")
	}

	enrollment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !authz.CanUpdateEnrollment(p, enrollment.Course.LecturerID) {
		metrics.AuthzDenialsTotal.WithLabelValues("enrollment").Inc()
		if p.Role == model.RoleStudent {
			return nil, apperrors.Forbidden("students cannot update enrollment status")
		}
		return nil, apperrors.Forbidden("you can only update enrollments for your own courses")
	}

	enrollment.Status = status
	if err := s.enrollments.Update(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}

	return s.enrollments.FindByID(ctx, id)
}

func (s *enrollmentService) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	enrollment, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	if !authz.CanDeleteEnrollment(p, enrollment.StudentID, enrollment.Course.LecturerID) {
		metrics.AuthzDenialsTotal.WithLabelValues("enrollment").Inc()
		return apperrors.Forbidden("you can only remove your own enrollments")
	}

	if err := s.enrollments.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}
	return nil
}

func (s *enrollmentService) Stats(ctx context.Context, p *auth.Principal) (*EnrollmentStats, error) {
	filter := repository.EnrollmentFilter{}
	switch p.Role {
	case model.RoleStudent:
		id := p.ID
		filter.StudentID = &id
	case model.RoleLecturer:
		id := p.ID
		filter.LecturerID = &id
	}

	byStatus, err := s.enrollments.CountByStatus(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}

	stats := &EnrollmentStats{ByStatus: byStatus}
	for _, n := range byStatus {
		stats.Total += n
	}
	return stats, nil
}

func (s *enrollmentService) find(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	enrollment, err := s.enrollments.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	if enrollment.Course == nil {
		return nil, apperrors.ErrCourseNotFound
	}
	return enrollment, nil
}
