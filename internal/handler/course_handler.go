package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/service"
)

// CourseHandler handles course endpoints.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// CreateCourseRequest represents a course creation request.
type CreateCourseRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=255"`
	Credits      int    `json:"credits" validate:"required,min=1,max=10"`
	SyllabusPath string `json:"syllabusPath"`
}

// UpdateCourseRequest represents a partial course update.
type UpdateCourseRequest struct {
	Title        *string `json:"title" validate:"omitempty,min=1,max=255"`
	Credits      *int    `json:"credits" validate:"omitempty,min=1,max=10"`
	SyllabusPath *string `json:"syllabusPath"`
}

// Create godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCourseRequest true "Course data"
// @Success 201 {object} service.CourseDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	var req CreateCourseRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	course, err := h.courseService.Create(c.Request().Context(), auth.PrincipalFrom(c), service.CreateCourseInput{
		Title:        req.Title,
		Credits:      req.Credits,
		SyllabusPath: req.SyllabusPath,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, course)
}

// List godoc
// @Summary List courses scoped to the requester's role
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Course
// @Failure 401 {object} errors.ErrorResponse
// @Router /courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	courses, err := h.courseService.List(c.Request().Context(), auth.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

// Get godoc
// @Summary Get a course
// @Description Non-enrolled students receive a reduced projection without rosters.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} service.CourseDetail
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid course id")
	}

	detail, summary, err := h.courseService.Get(c.Request().Context(), auth.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	if summary != nil {
		return c.JSON(http.StatusOK, summary)
	}
	return c.JSON(http.StatusOK, detail)
}

// Stats godoc
// @Summary Get course statistics
// @Description Students get their own standing; owners and admins get course aggregates.
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} service.CourseStats
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id}/stats [get]
func (h *CourseHandler) Stats(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid course id")
	}

	stats, err := h.courseService.Stats(c.Request().Context(), auth.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Update godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body UpdateCourseRequest true "Fields to update"
// @Success 200 {object} service.CourseDetail
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses/{id} [patch]
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid course id")
	}

	var req UpdateCourseRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	course, err := h.courseService.Update(c.Request().Context(), auth.PrincipalFrom(c), id, service.UpdateCourseInput{
		Title:        req.Title,
		Credits:      req.Credits,
		SyllabusPath: req.SyllabusPath,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid course id")
	}

	if err := h.courseService.Delete(c.Request().Context(), auth.PrincipalFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Course deleted successfully"})
}
