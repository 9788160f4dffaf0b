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

func newTestCourseService(courses *MockCourseRepository, enrollments *MockEnrollmentRepository, assignments *MockAssignmentRepository) CourseService {
	// nil cache client behaves as a permanent miss
	return NewCourseService(courses, enrollments, assignments, nil, zerolog.Nop())
}

func lecturerPrincipal(id uuid.UUID) *auth.Principal {
	return &auth.Principal{ID: id, Email: "lecturer@example.com", Role: model.RoleLecturer}
}

func studentPrincipal(id uuid.UUID) *auth.Principal {
	return &auth.Principal{ID: id, Email: "student@example.com", Role: model.RoleStudent}
}

func TestCourseService_CreateForbiddenForStudents(t *testing.T) {
	svc := newTestCourseService(new(MockCourseRepository), new(MockEnrollmentRepository), new(MockAssignmentRepository))

	detail, err := svc.Create(context.Background(), studentPrincipal(uuid.New()), CreateCourseInput{
		Title:   "Sneaky Course",
		Credits: 3,
	})
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCourseService_CreateTitleConflict(t *testing.T) {
	lecturerID := uuid.New()
	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByLecturerAndTitle", mock.Anything, lecturerID, "Databases").
		Return(&model.Course{Title: "Databases"}, nil)

	svc := newTestCourseService(mockCourses, new(MockEnrollmentRepository), new(MockAssignmentRepository))

	detail, err := svc.Create(context.Background(), lecturerPrincipal(lecturerID), CreateCourseInput{
		Title:   "Databases",
		Credits: 3,
	})
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, apperrors.ErrCourseTitleTaken)
	mockCourses.AssertExpectations(t)
}

func TestCourseService_CreateSuccess(t *testing.T) {
	lecturerID := uuid.New()
	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByLecturerAndTitle", mock.Anything, lecturerID, "Databases").
		Return(nil, gorm.ErrRecordNotFound)
	mockCourses.On("Create", mock.Anything, mock.AnythingOfType("*model.Course")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*model.Course).ID = uuid.New()
		}).
		Return(nil)
	mockCourses.On("FindByID", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(&model.Course{Title: "Databases", Credits: 3, LecturerID: lecturerID}, nil)
	mockCourses.On("Counts", mock.Anything, mock.AnythingOfType("uuid.UUID")).
		Return(&repository.CourseCounts{}, nil)

	svc := newTestCourseService(mockCourses, new(MockEnrollmentRepository), new(MockAssignmentRepository))

	detail, err := svc.Create(context.Background(), lecturerPrincipal(lecturerID), CreateCourseInput{
		Title:   "Databases",
		Credits: 3,
	})
	assert.NoError(t, err)
	assert.Equal(t, "Databases", detail.Title)
	assert.Equal(t, lecturerID, detail.LecturerID)
	mockCourses.AssertExpectations(t)
}

func TestCourseService_GetVisibilityNarrowing(t *testing.T) {
	courseID := uuid.New()
	lecturerID := uuid.New()
	enrolledStudentID := uuid.New()

	course := &model.Course{
		ID:         courseID,
		Title:      "Databases",
		Credits:    3,
		LecturerID: lecturerID,
		Lecturer:   &model.User{ID: lecturerID, Email: "lecturer@example.com", Role: model.RoleLecturer},
		Enrollments: []model.Enrollment{
			{CourseID: courseID, StudentID: enrolledStudentID, Status: model.EnrollApproved},
		},
	}

	setup := func() *MockCourseRepository {
		m := new(MockCourseRepository)
		m.On("FindByIDFull", mock.Anything, courseID).Return(course, nil)
		m.On("Counts", mock.Anything, courseID).Return(&repository.CourseCounts{Enrollments: 1}, nil)
		return m
	}

	t.Run("owner gets the full projection", func(t *testing.T) {
		svc := newTestCourseService(setup(), new(MockEnrollmentRepository), new(MockAssignmentRepository))

		detail, summary, err := svc.Get(context.Background(), lecturerPrincipal(lecturerID), courseID)
		assert.NoError(t, err)
		assert.Nil(t, summary)
		assert.Equal(t, "Databases", detail.Title)
		assert.Len(t, detail.Enrollments, 1)
	})

	t.Run("enrolled student gets the full projection", func(t *testing.T) {
		svc := newTestCourseService(setup(), new(MockEnrollmentRepository), new(MockAssignmentRepository))

		detail, summary, err := svc.Get(context.Background(), studentPrincipal(enrolledStudentID), courseID)
		assert.NoError(t, err)
		assert.Nil(t, summary)
		assert.NotNil(t, detail)
	})

	t.Run("non-enrolled student gets the reduced projection", func(t *testing.T) {
		svc := newTestCourseService(setup(), new(MockEnrollmentRepository), new(MockAssignmentRepository))

		detail, summary, err := svc.Get(context.Background(), studentPrincipal(uuid.New()), courseID)
		assert.NoError(t, err)
		assert.Nil(t, detail)
		assert.Equal(t, "Databases", summary.Title)
		assert.Equal(t, "lecturer@example.com", summary.Lecturer.Email)
	})

	t.Run("other lecturer is denied", func(t *testing.T) {
		svc := newTestCourseService(setup(), new(MockEnrollmentRepository), new(MockAssignmentRepository))

		detail, summary, err := svc.Get(context.Background(), lecturerPrincipal(uuid.New()), courseID)
		assert.Nil(t, detail)
		assert.Nil(t, summary)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestCourseService_UpdateOwnershipRule(t *testing.T) {
	courseID := uuid.New()
	ownerID := uuid.New()
	course := &model.Course{ID: courseID, Title: "Databases", LecturerID: ownerID}

	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByID", mock.Anything, courseID).Return(course, nil)

	svc := newTestCourseService(mockCourses, new(MockEnrollmentRepository), new(MockAssignmentRepository))

	newTitle := "Advanced Databases"
	detail, err := svc.Update(context.Background(), lecturerPrincipal(uuid.New()), courseID, UpdateCourseInput{Title: &newTitle})
	assert.Nil(t, detail)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCourseService_DeleteNotFound(t *testing.T) {
	courseID := uuid.New()
	mockCourses := new(MockCourseRepository)
	mockCourses.On("FindByID", mock.Anything, courseID).Return(nil, gorm.ErrRecordNotFound)

	svc := newTestCourseService(mockCourses, new(MockEnrollmentRepository), new(MockAssignmentRepository))

	err := svc.Delete(context.Background(), lecturerPrincipal(uuid.New()), courseID)
	assert.ErrorIs(t, err, apperrors.ErrCourseNotFound)
}

func TestCourseService_ListScopedByRole(t *testing.T) {
	studentID := uuid.New()
	lecturerID := uuid.New()

	mockCourses := new(MockCourseRepository)
	mockCourses.On("ListForStudent", mock.Anything, studentID).Return([]model.Course{{Title: "A"}}, nil)
	mockCourses.On("ListByLecturer", mock.Anything, lecturerID).Return([]model.Course{{Title: "B"}, {Title: "C"}}, nil)
	mockCourses.On("ListAll", mock.Anything).Return([]model.Course{{Title: "A"}, {Title: "B"}, {Title: "C"}}, nil)

	svc := newTestCourseService(mockCourses, new(MockEnrollmentRepository), new(MockAssignmentRepository))

	forStudent, err := svc.List(context.Background(), studentPrincipal(studentID))
	assert.NoError(t, err)
	assert.Len(t, forStudent, 1)

	forLecturer, err := svc.List(context.Background(), lecturerPrincipal(lecturerID))
	assert.NoError(t, err)
	assert.Len(t, forLecturer, 2)

	forAdmin, err := svc.List(context.Background(), &auth.Principal{ID: uuid.New(), Role: model.RoleAdmin})
	assert.NoError(t, err)
	assert.Len(t, forAdmin, 3)
}
