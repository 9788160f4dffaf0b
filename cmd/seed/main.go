package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"educrm/internal/auth"
	"educrm/internal/config"
	"educrm/internal/db"
	"educrm/internal/logger"
	"educrm/internal/model"
	"educrm/internal/repository"
)

type seedUser struct {
	email    string
	password string
	role     model.Role
}

type seedCourse struct {
	title    string
	credits  int
	lecturer string
}

type seedEnrollment struct {
	course  string
	student string
	status  model.EnrollStatus
}

type seedAssignment struct {
	title   string
	course  string
	student string
	grade   *float64
	weight  float64
}

func gradeOf(v float64) *float64 { return &v }

var (
	users = []seedUser{
		{"admin@educrm.local", "admin123", model.RoleAdmin},
		{"lecturer@educrm.local", "lecturer123", model.RoleLecturer},
		{"alice@educrm.local", "student123", model.RoleStudent},
		{"bob@educrm.local", "student123", model.RoleStudent},
	}
	courses = []seedCourse{
		{"Introduction to Databases", 3, "lecturer@educrm.local"},
		{"Distributed Systems", 4, "lecturer@educrm.local"},
		{"Linear Algebra", 3, "lecturer@educrm.local"},
	}
	enrollments = []seedEnrollment{
		{"Introduction to Databases", "alice@educrm.local", model.EnrollApproved},
		{"Distributed Systems", "alice@educrm.local", model.EnrollPending},
		{"Introduction to Databases", "bob@educrm.local", model.EnrollRejected},
		{"Linear Algebra", "bob@educrm.local", model.EnrollApproved},
	}
	assignments = []seedAssignment{
		{"Relational Model Quiz", "Introduction to Databases", "alice@educrm.local", gradeOf(88), 1},
		{"Normalization Project", "Introduction to Databases", "alice@educrm.local", gradeOf(92), 3},
		{"Eigenvalues Problem Set", "Linear Algebra", "bob@educrm.local", nil, 2},
	}
)

func main() {
	ctx := context.Background()
	log := logger.New(logger.Options{Pretty: true})

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Enrollment{},
		&model.Assignment{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate")
	}

	userRepo := repository.NewUserRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	enrollmentRepo := repository.NewEnrollmentRepository(gormDB)
	assignmentRepo := repository.NewAssignmentRepository(gormDB)
	hasher := auth.NewPasswordHasher()

	byEmail := make(map[string]*model.User, len(users))
	for _, u := range users {
		user, err := seedOneUser(ctx, userRepo, hasher, u)
		if err != nil {
			log.Fatal().Err(err).Str("email", u.email).Msg("seed user")
		}
		byEmail[u.email] = user
		log.Info().Str("email", user.Email).Str("role", string(user.Role)).Msg("user ready")
	}

	byTitle := make(map[string]*model.Course, len(courses))
	for _, c := range courses {
		lecturer := byEmail[c.lecturer]
		course, err := seedOneCourse(ctx, courseRepo, c, lecturer)
		if err != nil {
			log.Fatal().Err(err).Str("title", c.title).Msg("seed course")
		}
		byTitle[c.title] = course
		log.Info().Str("title", course.Title).Msg("course ready")
	}

	for _, e := range enrollments {
		course := byTitle[e.course]
		student := byEmail[e.student]

		exists, err := enrollmentRepo.Exists(ctx, course.ID, student.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("check enrollment")
		}
		if exists {
			continue
		}

		enrollment := &model.Enrollment{
			CourseID:  course.ID,
			StudentID: student.ID,
			Status:    e.status,
		}
		if err := enrollmentRepo.Create(ctx, enrollment); err != nil {
			log.Fatal().Err(err).Msg("seed enrollment")
		}
		log.Info().
			Str("course", e.course).
			Str("student", e.student).
			Str("status", string(e.status)).
			Msg("enrollment ready")
	}

	for _, a := range assignments {
		course := byTitle[a.course]
		student := byEmail[a.student]

		existing, err := assignmentRepo.ListByCourseAndStudent(ctx, course.ID, student.ID)
		if err != nil {
			log.Fatal().Err(err).Msg("list assignments")
		}
		if containsTitle(existing, a.title) {
			continue
		}

		now := time.Now()
		assignment := &model.Assignment{
			Title:     a.title,
			Weight:    a.weight,
			Grade:     a.grade,
			CourseID:  course.ID,
			StudentID: student.ID,
		}
		if a.grade != nil {
			assignment.SubmittedAt = &now
		}
		if err := assignmentRepo.Create(ctx, assignment); err != nil {
			log.Fatal().Err(err).Msg("seed assignment")
		}
		log.Info().Str("title", a.title).Str("student", a.student).Msg("assignment ready")
	}

	log.Info().Msg("seed completed")
}

func containsTitle(assignments []model.Assignment, title string) bool {
	for _, a := range assignments {
		if a.Title == title {
			return true
		}
	}
	return false
}

func seedOneUser(ctx context.Context, repo repository.UserRepository, hasher auth.PasswordHasher, u seedUser) (*model.User, error) {
	existing, err := repo.FindByEmail(ctx, u.email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := hasher.Hash(u.password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &model.User{Email: u.email, PasswordHash: hash, Role: u.role}
	if err := repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func seedOneCourse(ctx context.Context, repo repository.CourseRepository, c seedCourse, lecturer *model.User) (*model.Course, error) {
	existing, err := repo.FindByLecturerAndTitle(ctx, lecturer.ID, c.title)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find course: %w", err)
	}

	course := &model.Course{Title: c.title, Credits: c.credits, LecturerID: lecturer.ID}
	if err := repo.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return course, nil
}
