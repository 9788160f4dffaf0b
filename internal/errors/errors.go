package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var (
	// ErrUnauthenticated is returned when no valid session token accompanies a request.
	// Missing, expired, malformed and forged tokens are indistinguishable by design.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidCredentials is returned on login failure. Unknown email and wrong
	// password produce the same error so accounts cannot be enumerated.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden is returned when an authenticated principal lacks the privilege
	// for the requested operation.
	ErrForbidden = errors.New("insufficient permissions")
	// ErrEmailTaken is returned when registering or updating to an email already in use.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrCourseTitleTaken is returned when a lecturer already has a course with the title.
	ErrCourseTitleTaken = errors.New("course with this title already exists for this lecturer")
	// ErrAlreadyEnrolled is returned when the student is already enrolled in the course.
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	// ErrNotAStudent is returned when enrolling a user that does not hold the STUDENT role.
	ErrNotAStudent = errors.New("only students can be enrolled in courses")
	// ErrWrongPassword is returned when a password change presents an incorrect current password.
	ErrWrongPassword = errors.New("current password is incorrect")

	// ErrUserNotFound is returned when a referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrCourseNotFound is returned when a referenced course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrEnrollmentNotFound is returned when a referenced enrollment does not exist.
	ErrEnrollmentNotFound = errors.New("enrollment not found")
)

// forbiddenError carries a rule-specific message while still matching
// ErrForbidden through errors.Is.
type forbiddenError struct {
	msg string
}

func (e *forbiddenError) Error() string { return e.msg }
func (e *forbiddenError) Unwrap() error { return ErrForbidden }

// Forbidden wraps a rule-specific denial message as an ErrForbidden.
func Forbidden(msg string) error {
	return &forbiddenError{msg: msg}
}

// validationError marks malformed input rejected before any auth or store work.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

// Validation wraps a message as a 400 validation failure.
func Validation(msg string) error {
	return &validationError{msg: msg}
}

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that maps domain errors
// to their status codes, logs unexpected errors internally, and renders the
// uniform JSON envelope without leaking internal details to the client.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, resp := resolve(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, resp)
	}
}

func resolve(err error, log zerolog.Logger, c echo.Context) (int, ErrorResponse) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, ErrorResponse{Error: ErrUnauthenticated.Error(), Code: "UNAUTHENTICATED"}
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: ErrInvalidCredentials.Error(), Code: "INVALID_CREDENTIALS"}
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "FORBIDDEN"}
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict, ErrorResponse{Error: ErrEmailTaken.Error(), Code: "EMAIL_TAKEN"}
	case errors.Is(err, ErrCourseTitleTaken):
		return http.StatusConflict, ErrorResponse{Error: ErrCourseTitleTaken.Error(), Code: "COURSE_TITLE_TAKEN"}
	case errors.Is(err, ErrAlreadyEnrolled):
		return http.StatusConflict, ErrorResponse{Error: ErrAlreadyEnrolled.Error(), Code: "ALREADY_ENROLLED"}
	case errors.Is(err, ErrNotAStudent):
		return http.StatusConflict, ErrorResponse{Error: ErrNotAStudent.Error(), Code: "NOT_A_STUDENT"}
	case errors.Is(err, ErrWrongPassword):
		return http.StatusBadRequest, ErrorResponse{Error: ErrWrongPassword.Error(), Code: "WRONG_PASSWORD"}
	case errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound, ErrorResponse{Error: ErrUserNotFound.Error(), Code: "USER_NOT_FOUND"}
	case errors.Is(err, ErrCourseNotFound):
		return http.StatusNotFound, ErrorResponse{Error: ErrCourseNotFound.Error(), Code: "COURSE_NOT_FOUND"}
	case errors.Is(err, ErrEnrollmentNotFound):
		return http.StatusNotFound, ErrorResponse{Error: ErrEnrollmentNotFound.Error(), Code: "ENROLLMENT_NOT_FOUND"}
	}

	var ve *validationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, ErrorResponse{Error: ve.Error(), Code: "VALIDATION_FAILED"}
	}

	// Echo's own errors: bind failures, validation rejections, router 404s.
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := "BAD_REQUEST"
		switch he.Code {
		case http.StatusUnauthorized:
			code = "UNAUTHENTICATED"
		case http.StatusForbidden:
			code = "FORBIDDEN"
		case http.StatusNotFound:
			code = "NOT_FOUND"
		case http.StatusMethodNotAllowed:
			code = "METHOD_NOT_ALLOWED"
		}
		return he.Code, ErrorResponse{Error: fmt.Sprintf("%v", he.Message), Code: code}
	}

	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}
}
