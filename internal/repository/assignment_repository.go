package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"educrm/internal/model"
)

// AssignmentAggregate summarises graded work in a course.
type AssignmentAggregate struct {
	Total        int64    `json:"total"`
	AverageGrade *float64 `json:"averageGrade"`
}

// AssignmentRepository defines assignment persistence operations.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	ListByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) ([]model.Assignment, error)
	ListGradedByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error)
	AggregateByCourse(ctx context.Context, courseID uuid.UUID) (*AssignmentAggregate, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

// NewAssignmentRepository builds a GORM-backed repository.
func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) Create(ctx context.Context, assignment *model.Assignment) error {
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepository) ListByCourseAndStudent(ctx context.Context, courseID, studentID uuid.UUID) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, studentID).
		Order("created_at DESC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) ListGradedByStudent(ctx context.Context, studentID uuid.UUID) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND grade IS NOT NULL", studentID).
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *assignmentRepository) AggregateByCourse(ctx context.Context, courseID uuid.UUID) (*AssignmentAggregate, error) {
	var agg AssignmentAggregate

	err := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("course_id = ?", courseID).
		Count(&agg.Total).Error
	if err != nil {
		return nil, err
	}

	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&model.Assignment{}).
		Where("course_id = ?", courseID).
		Select("AVG(grade)").
		Row()
	if err := row.Scan(&avg); err != nil {
		return nil, err
	}
	if avg.Valid {
		agg.AverageGrade = &avg.Float64
	}
	return &agg, nil
}
