package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"educrm/internal/auth"
	"educrm/internal/cache"
	"educrm/internal/errors"
	"educrm/internal/handler"
	"educrm/internal/middleware"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	tokens *auth.TokenService,
	cacheClient *cache.Client,
	log zerolog.Logger,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	courseHandler *handler.CourseHandler,
	enrollmentHandler *handler.EnrollmentHandler,
	aiHandler *handler.AIHandler,
) {
	e.HideBanner = true
	e.HTTPErrorHandler = errors.NewHTTPErrorHandler(log)
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(log))

	e.GET("/healthz", func(c echo.Context) error {
		if err := cacheClient.Ping(c.Request().Context()); err != nil {
			log.Warn().Err(err).Msg("redis unreachable")
		}
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/logout", authHandler.Logout)
	api.POST("/auth/verify", authHandler.VerifyToken)

	// Secured routes: the gate attaches the verified principal or fails 401.
	secured := api.Group("", middleware.Auth(tokens, log))

	secured.POST("/users", userHandler.Create)
	secured.GET("/users", userHandler.List)
	secured.GET("/users/me", userHandler.Me)
	secured.GET("/users/:id", userHandler.Get)
	secured.GET("/users/:id/stats", userHandler.Stats)
	secured.PATCH("/users/:id", userHandler.Update)
	secured.PATCH("/users/:id/password", userHandler.UpdatePassword)
	secured.DELETE("/users/:id", userHandler.Delete)

	secured.POST("/courses", courseHandler.Create)
	secured.GET("/courses", courseHandler.List)
	secured.GET("/courses/:id", courseHandler.Get)
	secured.GET("/courses/:id/stats", courseHandler.Stats)
	secured.PATCH("/courses/:id", courseHandler.Update)
	secured.DELETE("/courses/:id", courseHandler.Delete)

	secured.POST("/enrollments", enrollmentHandler.Create)
	secured.GET("/enrollments", enrollmentHandler.List)
	secured.GET("/enrollments/stats", enrollmentHandler.Stats)
	secured.GET("/enrollments/:id", enrollmentHandler.Get)
	secured.PATCH("/enrollments/:id", enrollmentHandler.Update)
	secured.DELETE("/enrollments/:id", enrollmentHandler.Delete)

	secured.POST("/ai/recommend", aiHandler.Recommend)
	secured.POST("/ai/syllabus", aiHandler.Syllabus)
	secured.POST("/ai/generate", aiHandler.Generate)
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
