package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"educrm/internal/auth"
	"educrm/internal/authz"
	"educrm/internal/cache"
	apperrors "educrm/internal/errors"
	"educrm/internal/metrics"
	"educrm/internal/model"
	"educrm/internal/repository"
)

const (
	catalogCacheKey = "courses:catalog"
	catalogCacheTTL = 5 * time.Minute
)

// CreateCourseInput carries validated course creation fields.
type CreateCourseInput struct {
	Title        string
	Credits      int
	SyllabusPath string
}

// UpdateCourseInput carries the partial update; nil fields are untouched.
type UpdateCourseInput struct {
	Title        *string
	Credits      *int
	SyllabusPath *string
}

// CourseDetail is the full projection served to admins, owners and enrolled students.
type CourseDetail struct {
	*model.Course
	Counts repository.CourseCounts `json:"counts"`
}

// CourseSummary is the reduced projection a non-enrolled student receives.
// Withholding enrollment and assignment detail is policy, not an error.
type CourseSummary struct {
	ID        uuid.UUID               `json:"id"`
	Title     string                  `json:"title"`
	Credits   int                     `json:"credits"`
	Lecturer  model.PublicUser        `json:"lecturer"`
	CreatedAt time.Time               `json:"createdAt"`
	Counts    repository.CourseCounts `json:"counts"`
}

// StudentCourseStats summarises one student's own standing in a course.
type StudentCourseStats struct {
	CourseID             uuid.UUID          `json:"courseId"`
	CourseTitle          string             `json:"courseTitle"`
	TotalAssignments     int                `json:"totalAssignments"`
	SubmittedAssignments int                `json:"submittedAssignments"`
	AverageGrade         *float64           `json:"averageGrade"`
	Assignments          []model.Assignment `json:"assignments"`
}

// CourseStats is the owner/admin view of a course's aggregates.
type CourseStats struct {
	CourseID         uuid.UUID                    `json:"courseId"`
	CourseTitle      string                       `json:"courseTitle"`
	EnrollmentStats  map[model.EnrollStatus]int64 `json:"enrollmentStats"`
	TotalEnrollments int64                        `json:"totalEnrollments"`
	TotalAssignments int64                        `json:"totalAssignments"`
	AverageGrade     *float64                     `json:"averageGrade"`
}

// CourseService implements course CRUD with the ownership and visibility
// narrowing rules applied after identity attachment.
type CourseService interface {
	Create(ctx context.Context, p *auth.Principal, in CreateCourseInput) (*CourseDetail, error)
	List(ctx context.Context, p *auth.Principal) ([]model.Course, error)
	Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*CourseDetail, *CourseSummary, error)
	Stats(ctx context.Context, p *auth.Principal, id uuid.UUID) (interface{}, error)
	Update(ctx context.Context, p *auth.Principal, id uuid.UUID, in UpdateCourseInput) (*CourseDetail, error)
	Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error
	Catalog(ctx context.Context) ([]model.Course, error)
}

type courseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	assignments repository.AssignmentRepository
	cache       *cache.Client
	log         zerolog.Logger
}

// NewCourseService creates a new course service.
func NewCourseService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	assignments repository.AssignmentRepository,
	cacheClient *cache.Client,
	log zerolog.Logger,
) CourseService {
	return &courseService{
		courses:     courses,
		enrollments: enrollments,
		assignments: assignments,
		cache:       cacheClient,
		log:         log.With().Str("component", "course_service").Logger(),
	}
}

func (s *courseService) Create(ctx context.Context, p *auth.Principal, in CreateCourseInput) (*CourseDetail, error) {
	if !authz.CanCreateCourse(p.Role) {
		metrics.AuthzDenialsTotal.WithLabelValues("course").Inc()
		return nil, apperrors.Forbidden("only lecturers and admins can create courses")
	}

	if _, err := s.courses.FindByLecturerAndTitle(ctx, p.ID, in.Title); err == nil {
		return nil, apperrors.ErrCourseTitleTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check course title: %w", err)
	}

	course := &model.Course{
		Title:        in.Title,
		Credits:      in.Credits,
		SyllabusPath: in.SyllabusPath,
		LecturerID:   p.ID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrCourseTitleTaken
		}
		return nil, fmt.Errorf("create course: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.log.Info().Str("title", course.Title).Str("lecturer", p.Email).Msg("course created")

	return s.detail(ctx, course.ID)
}

func (s *courseService) List(ctx context.Context, p *auth.Principal) ([]model.Course, error) {
	switch p.Role {
	case model.RoleStudent:
		// Every course, annotated with the student's own enrollments only.
		return s.courses.ListForStudent(ctx, p.ID)
	case model.RoleLecturer:
		return s.courses.ListByLecturer(ctx, p.ID)
	default:
		return s.Catalog(ctx)
	}
}

func (s *courseService) Get(ctx context.Context, p *auth.Principal, id uuid.UUID) (*CourseDetail, *CourseSummary, error) {
	course, err := s.courses.FindByIDFull(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperrors.ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("find course: %w", err)
	}

	enrolled := false
	for _, e := range course.Enrollments {
		if e.StudentID == p.ID {
			enrolled = true
			break
		}
	}

	counts, err := s.courses.Counts(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("count course relations: %w", err)
	}

	switch authz.CourseRead(p, course.LecturerID, enrolled) {
	case authz.CourseFull:
		return &CourseDetail{Course: course, Counts: *counts}, nil, nil
	case authz.CourseReduced:
		var lecturer model.PublicUser
		if course.Lecturer != nil {
			lecturer = course.Lecturer.Public()
		}
		return nil, &CourseSummary{
			ID:        course.ID,
			Title:     course.Title,
			Credits:   course.Credits,
			Lecturer:  lecturer,
			CreatedAt: course.CreatedAt,
			Counts:    *counts,
		}, nil
	default:
		metrics.AuthzDenialsTotal.WithLabelValues("course").Inc()
		return nil, nil, apperrors.Forbidden("you can only view your own courses")
	}
}

func (s *courseService) Stats(ctx context.Context, p *auth.Principal, id uuid.UUID) (interface{}, error) {
	detail, summary, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	title := ""
	if detail != nil {
		title = detail.Title
	} else if summary != nil {
		title = summary.Title
	}

	if p.Role == model.RoleStudent {
		assignments, err := s.assignments.ListByCourseAndStudent(ctx, id, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list assignments: %w", err)
		}

		stats := &StudentCourseStats{
			CourseID:         id,
			CourseTitle:      title,
			TotalAssignments: len(assignments),
			Assignments:      assignments,
		}
		var weighted, totalWeight float64
		for _, a := range assignments {
			if a.SubmittedAt != nil {
				stats.SubmittedAssignments++
			}
			if a.Grade != nil {
				weighted += *a.Grade * a.Weight
				totalWeight += a.Weight
			}
		}
		if totalWeight > 0 {
			avg := weighted / totalWeight
			stats.AverageGrade = &avg
		}
		return stats, nil
	}

	byStatus, err := s.enrollments.CountByStatus(ctx, repository.EnrollmentFilter{CourseID: &id})
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	var total int64
	for _, n := range byStatus {
		total += n
	}

	agg, err := s.assignments.AggregateByCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("aggregate assignments: %w", err)
	}

	return &CourseStats{
		CourseID:         id,
		CourseTitle:      title,
		EnrollmentStats:  byStatus,
		TotalEnrollments: total,
		TotalAssignments: agg.Total,
		AverageGrade:     agg.AverageGrade,
	}, nil
}

func (s *courseService) Update(ctx context.Context, p *auth.Principal, id uuid.UUID, in UpdateCourseInput) (*CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}

	if !authz.CanMutateCourse(p, course.LecturerID) {
		metrics.AuthzDenialsTotal.WithLabelValues("course").Inc()
		return nil, apperrors.Forbidden("you can only update your own courses")
	}

	if in.Title != nil && *in.Title != course.Title {
		if _, err := s.courses.FindByLecturerAndTitle(ctx, course.LecturerID, *in.Title); err == nil {
			return nil, apperrors.ErrCourseTitleTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check course title: %w", err)
		}
		course.Title = *in.Title
	}
	if in.Credits != nil {
		course.Credits = *in.Credits
	}
	if in.SyllabusPath != nil {
		course.SyllabusPath = *in.SyllabusPath
	}

	if err := s.courses.Update(ctx, course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrCourseTitleTaken
		}
		return nil, fmt.Errorf("update course: %w", err)
	}

	s.invalidateCatalog(ctx)
	return s.detail(ctx, course.ID)
}

func (s *courseService) Delete(ctx context.Context, p *auth.Principal, id uuid.UUID) error {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCourseNotFound
		}
		return fmt.Errorf("find course: %w", err)
	}

	if !authz.CanMutateCourse(p, course.LecturerID) {
		metrics.AuthzDenialsTotal.WithLabelValues("course").Inc()
		return apperrors.Forbidden("you can only delete your own courses")
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}

	s.invalidateCatalog(ctx)
	s.log.Info().Str("title", course.Title).Msg("course deleted")
	return nil
}

// Catalog returns the full course list, served from redis when fresh. A cold
// or unreachable cache falls through to the database.
func (s *courseService) Catalog(ctx context.Context) ([]model.Course, error) {
	if data, _ := s.cache.Get(ctx, catalogCacheKey); data != nil {
		var courses []model.Course
		if err := json.Unmarshal(data, &courses); err == nil {
			return courses, nil
		}
	}

	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	if data, err := json.Marshal(courses); err == nil {
		_ = s.cache.Set(ctx, catalogCacheKey, data, catalogCacheTTL)
	}
	return courses, nil
}

func (s *courseService) invalidateCatalog(ctx context.Context) {
	_ = s.cache.Delete(ctx, catalogCacheKey)
}

func (s *courseService) detail(ctx context.Context, id uuid.UUID) (*CourseDetail, error) {
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload course: %w", err)
	}
	counts, err := s.courses.Counts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count course relations: %w", err)
	}
	return &CourseDetail{Course: course, Counts: *counts}, nil
}
