package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/model"
	"educrm/internal/repository"
)

func newTestEnrollmentService(enrollments *MockEnrollmentRepository, courses *MockCourseRepository, users *MockUserRepository) EnrollmentService {
	return NewEnrollmentService(enrollments, courses, users, zerolog.Nop())
}

func TestEnrollmentService_StudentEnrollsSelf(t *testing.T) {
	courseID := uuid.New()
	studentID := uuid.New()

	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByID", mock.Anything, courseID).Return(&model.Course{ID: courseID}, nil)

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByID", mock.Anything, studentID).
		Return(&model.User{ID: studentID, Email: "alice@example.com", Role: model.RoleStudent}, nil)

	mockEnrollments := new(MockEnrollmentRepository)
	mockEnrollments.On("Exists", mock.Anything, courseID, studentID).Return(false, nil)
	mockEnrollments.On("Create", mock.Anything, mock.AnythingOfType("*model.Enrollment")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Enrollment).ID = uuid.New()
		}).
		Return(nil)
	mockEnrollments.On("FindByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(&model.Enrollment{CourseID: courseID, StudentID: studentID, Status: model.EnrollPending}, nil)

	svc := newTestEnrollmentService(mockEnrollments, mockCourses, mockUsers)

	enrollment, err := svc.Create(context.Background(), studentPrincipal(studentID), CreateEnrollmentInput{CourseID: courseID})
	assert.NoError(t, err)
	assert.Equal(t, model.EnrollPending, enrollment.Status)
	mockEnrollments.AssertExpectations(t)
}

func TestEnrollmentService_StudentCannotEnrollOthers(t *testing.T) {
	otherStudent := uuid.New()
	svc := newTestEnrollmentService(new(MockEnrollmentRepository), new(MockCourseRepository), new(MockUserRepository))

	enrollment, err := svc.Create(context.Background(), studentPrincipal(uuid.New()), CreateEnrollmentInput{
		CourseID:  uuid.New(),
		StudentID: &otherStudent,
	})
	assert.Nil(t, enrollment)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestEnrollmentService_RejectsNonStudents(t *testing.T) {
	courseID := uuid.New()
	targetID := uuid.New()

	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByID", mock.Anything, courseID).Return(&model.Course{ID: courseID}, nil)

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByID", mock.Anything, targetID).
		Return(&model.User{ID: targetID, Role: model.RoleLecturer}, nil)

	svc := newTestEnrollmentService(new(MockEnrollmentRepository), mockCourses, mockUsers)

	enrollment, err := svc.Create(context.Background(), &auth.Principal{ID: uuid.New(), Role: model.RoleAdmin}, CreateEnrollmentInput{
		CourseID:  courseID,
		StudentID: &targetID,
	})
	assert.Nil(t, enrollment)
	assert.ErrorIs(t, err, apperrors.ErrNotAStudent)
}

func TestEnrollmentService_DuplicateEnrollment(t *testing.T) {
	courseID := uuid.New()
	studentID := uuid.New()

	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByID", mock.Anything, courseID).Return(&model.Course{ID: courseID}, nil)

	mockUsers := new(MockUserRepository)
	mockUsers.On("FindByID", mock.Anything, studentID).
		Return(&model.User{ID: studentID, Role: model.RoleStudent}, nil)

	t.Run("caught by the existence check", func(t *testing.T) {
		mockEnrollments := new(MockEnrollmentRepository)
		mockEnrollments.On("Exists", mock.Anything, courseID, studentID).Return(true, nil)

		svc := newTestEnrollmentService(mockEnrollments, mockCourses, mockUsers)
		_, err := svc.Create(context.Background(), studentPrincipal(studentID), CreateEnrollmentInput{CourseID: courseID})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
	})

	t.Run("caught by the unique constraint", func(t *testing.T) {
		mockEnrollments := new(MockEnrollmentRepository)
		mockEnrollments.On("Exists", mock.Anything, courseID, studentID).Return(false, nil)
		mockEnrollments.On("Create", mock.Anything, mock.AnythingOfType("*model.Enrollment")).
			Return(gorm.ErrDuplicatedKey)

		svc := newTestEnrollmentService(mockEnrollments, mockCourses, mockUsers)
		_, err := svc.Create(context.Background(), studentPrincipal(studentID), CreateEnrollmentInput{CourseID: courseID})
		assert.ErrorIs(t, err, apperrors.ErrAlreadyEnrolled)
	})
}

func TestEnrollmentService_StudentCannotChangeStatus(t *testing.T) {
	enrollmentID := uuid.New()
	studentID := uuid.New()
	lecturerID := uuid.New()

	mockEnrollments := new(MockEnrollmentRepository)
	mockEnrollments.On("FindByID", mock.Anything, enrollmentID).Return(&model.Enrollment{
		ID:        enrollmentID,
		StudentID: studentID,
		Course:    &model.Course{LecturerID: lecturerID},
	}, nil)

	svc := newTestEnrollmentService(mockEnrollments, new(MockCourseRepository), new(MockUserRepository))

	// Not even the enrolled student may approve their own enrollment.
	enrollment, err := svc.UpdateStatus(context.Background(), studentPrincipal(studentID), enrollmentID, model.EnrollApproved)
	assert.Nil(t, enrollment)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestEnrollmentService_LecturerUpdatesOwnCourseOnly(t *testing.T) {
	enrollmentID := uuid.New()
	ownerID := uuid.New()

	stored := &model.Enrollment{
		ID:     enrollmentID,
		Status: model.EnrollPending,
		Course: &model.Course{LecturerID: ownerID},
	}

	t.Run("owner approves", func(t *testing.T) {
		mockEnrollments := new(MockEnrollmentRepository)
		mockEnrollments.On("FindByID", mock.Anything, enrollmentID).Return(stored, nil)
		mockEnrollments.On("Update", mock.Anything, mock.AnythingOfType("*model.Enrollment")).Return(nil)

		svc := newTestEnrollmentService(mockEnrollments, new(MockCourseRepository), new(MockUserRepository))
		_, err := svc.UpdateStatus(context.Background(), lecturerPrincipal(ownerID), enrollmentID, model.EnrollApproved)
		assert.NoError(t, err)
	})

	t.Run("other lecturer denied", func(t *testing.T) {
		mockEnrollments := new(MockEnrollmentRepository)
		mockEnrollments.On("FindByID", mock.Anything, enrollmentID).Return(stored, nil)

		svc := newTestEnrollmentService(mockEnrollments, new(MockCourseRepository), new(MockUserRepository))
		_, err := svc.UpdateStatus(context.Background(), lecturerPrincipal(uuid.New()), enrollmentID, model.EnrollApproved)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestEnrollmentService_ListScopesStudentToSelf(t *testing.T) {
	studentID := uuid.New()
	otherID := uuid.New()

	mockEnrollments := new(MockEnrollmentRepository)
	mockEnrollments.On("List", mock.Anything, mock.MatchedBy(func(f repository.EnrollmentFilter) bool {
		return f.StudentID != nil && *f.StudentID == studentID
	})).Return([]model.Enrollment{}, nil)

	svc := newTestEnrollmentService(mockEnrollments, new(MockCourseRepository), new(MockUserRepository))

	// A student asking for another student's rows still only gets their own.
	_, err := svc.List(context.Background(), studentPrincipal(studentID), ListEnrollmentsInput{StudentID: &otherID})
	assert.NoError(t, err)
	mockEnrollments.AssertExpectations(t)
}

func TestEnrollmentService_Stats(t *testing.T) {
	lecturerID := uuid.New()

	mockEnrollments := new(MockEnrollmentRepository)
	mockEnrollments.On("CountByStatus", mock.Anything, mock.MatchedBy(func(f repository.EnrollmentFilter) bool {
		return f.LecturerID != nil && *f.LecturerID == lecturerID
	})).Return(map[model.EnrollStatus]int64{
		model.EnrollPending:  2,
		model.EnrollApproved: 5,
	}, nil)

	svc := newTestEnrollmentService(mockEnrollments, new(MockCourseRepository), new(MockUserRepository))

	stats, err := svc.Stats(context.Background(), lecturerPrincipal(lecturerID))
	assert.NoError(t, err)
	assert.Equal(t, int64(7), stats.Total)
	assert.Equal(t, int64(5), stats.ByStatus[model.EnrollApproved])
}
