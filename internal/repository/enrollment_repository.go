package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"educrm/internal/model"
)

// EnrollmentFilter narrows enrollment listings. Nil/empty fields are ignored.
// LecturerID restricts results to enrollments in that lecturer's courses.
type EnrollmentFilter struct {
	CourseID   *uuid.UUID
	StudentID  *uuid.UUID
	LecturerID *uuid.UUID
	Status     model.EnrollStatus
}

// EnrollmentRepository defines enrollment persistence operations.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error)
	List(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, error)
	Update(ctx context.Context, enrollment *model.Enrollment) error
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, courseID, studentID uuid.UUID) (bool, error)
	ExistsApprovedForLecturer(ctx context.Context, studentID, lecturerID uuid.UUID) (bool, error)
	CountByStatus(ctx context.Context, filter EnrollmentFilter) (map[model.EnrollStatus]int64, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository builds a GORM-backed repository.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (r *enrollmentRepository) Create(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Preload("Course.Lecturer").
		Preload("Student").
		Where("enrollments.id = ?", id).
		First(&enrollment).Error
	if err != nil {
		return nil, err
	}
	return &enrollment, nil
}

func (r *enrollmentRepository) applyFilter(db *gorm.DB, filter EnrollmentFilter) *gorm.DB {
	if filter.CourseID != nil {
		db = db.Where("enrollments.course_id = ?", *filter.CourseID)
	}
	if filter.StudentID != nil {
		db = db.Where("enrollments.student_id = ?", *filter.StudentID)
	}
	if filter.Status != "" {
		db = db.Where("enrollments.status = ?", filter.Status)
	}
	if filter.LecturerID != nil {
		db = db.Joins("JOIN courses ON courses.id = enrollments.course_id").
			Where("courses.lecturer_id = ?", *filter.LecturerID)
	}
	return db
}

func (r *enrollmentRepository) List(ctx context.Context, filter EnrollmentFilter) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	db := r.applyFilter(r.db.WithContext(ctx).Model(&model.Enrollment{}), filter)
	err := db.
		Preload("Course").
		Preload("Course.Lecturer").
		Preload("Student").
		Order("enrollments.enrolled_at DESC").
		Find(&enrollments).Error
	if err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepository) Update(ctx context.Context, enrollment *model.Enrollment) error {
	return r.db.WithContext(ctx).Save(enrollment).Error
}

func (r *enrollmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Enrollment{}).Error
}

func (r *enrollmentRepository) Exists(ctx context.Context, courseID, studentID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsApprovedForLecturer reports whether the student holds an APPROVED
// enrollment in any of the lecturer's courses. Lecturer access to student
// profiles hangs off this relation.
func (r *enrollmentRepository) ExistsApprovedForLecturer(ctx context.Context, studentID, lecturerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Enrollment{}).
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("enrollments.student_id = ? AND enrollments.status = ? AND courses.lecturer_id = ?",
			studentID, model.EnrollApproved, lecturerID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *enrollmentRepository) CountByStatus(ctx context.Context, filter EnrollmentFilter) (map[model.EnrollStatus]int64, error) {
	type row struct {
		Status model.EnrollStatus
		Count  int64
	}
	var rows []row

	db := r.applyFilter(r.db.WithContext(ctx).Model(&model.Enrollment{}), filter)
	err := db.
		Select("enrollments.status AS status, COUNT(*) AS count").
		Group("enrollments.status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[model.EnrollStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
