package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/model"
	"educrm/internal/service"
)

// EnrollmentHandler handles enrollment endpoints.
type EnrollmentHandler struct {
	enrollmentService service.EnrollmentService
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(enrollmentService service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollmentService: enrollmentService}
}

// CreateEnrollmentRequest represents an enrollment request. StudentID is only
// honoured for lecturers and admins; students always enroll themselves.
type CreateEnrollmentRequest struct {
	CourseID  string  `json:"courseId" validate:"required,uuid"`
	StudentID *string `json:"studentId" validate:"omitempty,uuid"`
	Status    string  `json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED"`
}

// UpdateEnrollmentRequest represents a status change.
type UpdateEnrollmentRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING APPROVED REJECTED"`
}

// Create godoc
// @Summary Enroll a student in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateEnrollmentRequest true "Enrollment data"
// @Success 201 {object} model.Enrollment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /enrollments [post]
func (h *EnrollmentHandler) Create(c echo.Context) error {
	var req CreateEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return apperrors.Validation("invalid course id")
	}

	in := service.CreateEnrollmentInput{
		CourseID: courseID,
		Status:   model.EnrollStatus(req.Status),
	}
	if req.StudentID != nil {
		studentID, err := uuid.Parse(*req.StudentID)
		if err != nil {
			return apperrors.Validation("invalid student id")
		}
		in.StudentID = &studentID
	}

	enrollment, err := h.enrollmentService.Create(c.Request().Context(), auth.PrincipalFrom(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, enrollment)
}

// List godoc
// @Summary List enrollments scoped to the requester's role
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param courseId query string false "Filter by course"
// @Param studentId query string false "Filter by student (ignored for students)"
// @Param status query string false "Filter by status"
// @Success 200 {array} model.Enrollment
// @Failure 400 {object} errors.ErrorResponse
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c echo.Context) error {
	var in service.ListEnrollmentsInput

	if raw := c.QueryParam("courseId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.Validation("invalid course id")
		}
		in.CourseID = &id
	}
	if raw := c.QueryParam("studentId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.Validation("invalid student id")
		}
		in.StudentID = &id
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := model.EnrollStatus(raw)
		if !status.Valid() {
			return apperrors.Validation("status must be PENDING, APPROVED, or REJECTED")
		}
		in.Status = status
	}

	enrollments, err := h.enrollmentService.List(c.Request().Context(), auth.PrincipalFrom(c), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollments)
}

// Stats godoc
// @Summary Get enrollment counts by status
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.EnrollmentStats
// @Failure 401 {object} errors.ErrorResponse
// @Router /enrollments/stats [get]
func (h *EnrollmentHandler) Stats(c echo.Context) error {
	stats, err := h.enrollmentService.Stats(c.Request().Context(), auth.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Get godoc
// @Summary Get an enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} model.Enrollment
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/{id} [get]
func (h *EnrollmentHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid enrollment id")
	}

	enrollment, err := h.enrollmentService.Get(c.Request().Context(), auth.PrincipalFrom(c), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollment)
}

// Update godoc
// @Summary Update an enrollment's status
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Param request body UpdateEnrollmentRequest true "New status"
// @Success 200 {object} model.Enrollment
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/{id} [patch]
func (h *EnrollmentHandler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid enrollment id")
	}

	var req UpdateEnrollmentRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	enrollment, err := h.enrollmentService.UpdateStatus(c.Request().Context(), auth.PrincipalFrom(c), id, model.EnrollStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, enrollment)
}

// Delete godoc
// @Summary Withdraw an enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.Validation("invalid enrollment id")
	}

	if err := h.enrollmentService.Delete(c.Request().Context(), auth.PrincipalFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Enrollment removed successfully"})
}
