package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"educrm/internal/model"
)

// UserCounts aggregates a user's related record counts.
type UserCounts struct {
	Courses     int64 `json:"courses"`
	Enrollments int64 `json:"enrollments"`
	Assignments int64 `json:"assignments"`
}

// UserRepository defines identity persistence operations. All operations are
// single-row and atomic; consistency is delegated to the database.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	ListStudentsForLecturer(ctx context.Context, lecturerID uuid.UUID) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	Delete(ctx context.Context, id uuid.UUID) error
	Counts(ctx context.Context, id uuid.UUID) (*UserCounts, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository builds a GORM-backed repository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Preload("Courses").
		Preload("Enrollments").
		Preload("Enrollments.Course").
		Preload("Enrollments.Course.Lecturer").
		Preload("Assignments").
		Preload("Assignments.Course").
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListStudentsForLecturer returns the distinct students holding an APPROVED
// enrollment in any of the lecturer's courses.
func (r *userRepository) ListStudentsForLecturer(ctx context.Context, lecturerID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Distinct("users.*").
		Joins("JOIN enrollments ON enrollments.student_id = users.id").
		Joins("JOIN courses ON courses.id = enrollments.course_id").
		Where("courses.lecturer_id = ? AND enrollments.status = ?", lecturerID, model.EnrollApproved).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{}).Error
}

func (r *userRepository) Counts(ctx context.Context, id uuid.UUID) (*UserCounts, error) {
	var counts UserCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.Course{}).Where("lecturer_id = ?", id).Count(&counts.Courses).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Enrollment{}).Where("student_id = ?", id).Count(&counts.Enrollments).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Assignment{}).Where("student_id = ?", id).Count(&counts.Assignments).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}
