package main

import (
	"context"
	"os"

	_ "educrm/docs" // swagger docs

	"github.com/labstack/echo/v4"

	"educrm/internal/ai"
	"educrm/internal/auth"
	"educrm/internal/cache"
	"educrm/internal/config"
	"educrm/internal/db"
	"educrm/internal/handler"
	"educrm/internal/logger"
	"educrm/internal/model"
	"educrm/internal/repository"
	"educrm/internal/router"
	"educrm/internal/service"
)

// @title Education CRM API
// @version 1.0
// @description Education management API with role-based access, course enrollment, and AI-assisted advising.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token. Browser clients use the jwt cookie instead.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.New(logger.Options{})
		bootLog.Fatal().Err(err).Msg("load config")
	}

	log := logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: !cfg.IsProduction(),
	})

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("database init")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, dropping all tables")
		tables := []interface{}{
			&model.Assignment{},
			&model.Enrollment{},
			&model.Course{},
			&model.User{},
		}
		for _, table := range tables {
			if err := gormDB.Migrator().DropTable(table); err != nil {
				log.Warn().Err(err).Msg("drop table failed, may not exist")
			}
		}
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Course{},
		&model.Enrollment{},
		&model.Assignment{},
	); err != nil {
		log.Fatal().Err(err).Msg("auto-migrate")
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)

	// Repositories
	userRepo := repository.NewUserRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	enrollmentRepo := repository.NewEnrollmentRepository(gormDB)
	assignmentRepo := repository.NewAssignmentRepository(gormDB)

	// Auth components
	hasher := auth.NewPasswordHasher()
	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenTTL, log)

	aiClient, err := ai.NewClient(ai.Config{
		APIKey: cfg.OpenAIKey,
		Model:  cfg.OpenAIModel,
	}, log)
	if err != nil {
		// The advisory endpoints degrade to errors without a key; the rest
		// of the API stays up.
		log.Warn().Err(err).Msg("AI client disabled")
	}

	// Services
	authService := service.NewAuthService(userRepo, hasher, tokens, log)
	courseService := service.NewCourseService(courseRepo, enrollmentRepo, assignmentRepo, cacheClient, log)
	enrollmentService := service.NewEnrollmentService(enrollmentRepo, courseRepo, userRepo, log)
	userService := service.NewUserService(userRepo, enrollmentRepo, assignmentRepo, hasher, log)
	aiService := service.NewAIService(aiClient, userRepo, courseService, cacheClient, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, tokens.TTL(), cfg.IsProduction())
	userHandler := handler.NewUserHandler(userService)
	courseHandler := handler.NewCourseHandler(courseService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	aiHandler := handler.NewAIHandler(aiService)

	e := echo.New()
	router.Register(
		e,
		tokens,
		cacheClient,
		log,
		authHandler,
		userHandler,
		courseHandler,
		enrollmentHandler,
		aiHandler,
	)

	log.Info().Str("port", cfg.ServerPort).Str("env", cfg.Env).Msg("server starting")
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
