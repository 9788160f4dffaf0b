package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"educrm/internal/model"
)

// CourseCounts aggregates a course's related record counts.
type CourseCounts struct {
	Enrollments int64 `json:"enrollments"`
	Assignments int64 `json:"assignments"`
}

// CourseRepository defines course persistence operations.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindByLecturerAndTitle(ctx context.Context, lecturerID uuid.UUID, title string) (*model.Course, error)
	ListAll(ctx context.Context) ([]model.Course, error)
	ListByLecturer(ctx context.Context, lecturerID uuid.UUID) ([]model.Course, error)
	ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Course, error)
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context, id uuid.UUID) (*CourseCounts, error)
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository builds a GORM-backed repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Lecturer").
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// FindByIDFull loads the course with enrollments (and their students) and
// assignments, the projection served to owners, admins and enrolled students.
func (r *courseRepository) FindByIDFull(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Preload("Lecturer").
		Preload("Enrollments").
		Preload("Enrollments.Student").
		Preload("Assignments").
		Where("id = ?", id).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindByLecturerAndTitle(ctx context.Context, lecturerID uuid.UUID, title string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("lecturer_id = ? AND title = ?", lecturerID, title).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) ListAll(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Lecturer").
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) ListByLecturer(ctx context.Context, lecturerID uuid.UUID) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Lecturer").
		Where("lecturer_id = ?", lecturerID).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ListForStudent returns every course annotated with only the requesting
// student's own enrollment rows.
func (r *courseRepository) ListForStudent(ctx context.Context, studentID uuid.UUID) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Preload("Lecturer").
		Preload("Enrollments", "student_id = ?", studentID).
		Order("created_at DESC").
		Find(&courses).Error
	if err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Course{}).Error
}

func (r *courseRepository) Counts(ctx context.Context, id uuid.UUID) (*CourseCounts, error) {
	var counts CourseCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Enrollment{}).Where("course_id = ?", id).Count(&counts.Enrollments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Assignment{}).Where("course_id = ?", id).Count(&counts.Assignments).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
