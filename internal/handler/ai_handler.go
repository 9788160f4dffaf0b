package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"educrm/internal/auth"
	apperrors "educrm/internal/errors"
	"educrm/internal/service"
)

// AIHandler handles the model-backed advisory endpoints.
type AIHandler struct {
	aiService service.AIService
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(aiService service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// RecommendCoursesRequest represents a recommendation request.
type RecommendCoursesRequest struct {
	Interests string `json:"interests" validate:"required,min=3,max=500"`
}

// GenerateSyllabusRequest represents a syllabus generation request.
type GenerateSyllabusRequest struct {
	Topic    string `json:"topic" validate:"required,min=3,max=255"`
	Credits  int    `json:"credits" validate:"omitempty,min=1,max=10"`
	Duration string `json:"duration" validate:"omitempty,max=100"`
	Context  string `json:"context" validate:"omitempty,max=500"`
}

// GenerateTextRequest represents a free-form generation request.
type GenerateTextRequest struct {
	Prompt string `json:"prompt" validate:"required,min=1,max=2000"`
}

// Recommend godoc
// @Summary Recommend courses matching a student's interests
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body RecommendCoursesRequest true "Interests"
// @Success 200 {object} service.RecommendationResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /ai/recommend [post]
func (h *AIHandler) Recommend(c echo.Context) error {
	var req RecommendCoursesRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	result, err := h.aiService.Recommend(c.Request().Context(), auth.PrincipalFrom(c), req.Interests)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Syllabus godoc
// @Summary Generate a course syllabus for a topic
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateSyllabusRequest true "Syllabus parameters"
// @Success 200 {object} service.SyllabusResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /ai/syllabus [post]
func (h *AIHandler) Syllabus(c echo.Context) error {
	var req GenerateSyllabusRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	result, err := h.aiService.Syllabus(c.Request().Context(), auth.PrincipalFrom(c), service.GenerateSyllabusInput{
		Topic:    req.Topic,
		Credits:  req.Credits,
		Duration: req.Duration,
		Context:  req.Context,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Generate godoc
// @Summary Generate an educational text completion
// @Tags ai
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body GenerateTextRequest true "Prompt"
// @Success 200 {object} service.TextResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /ai/generate [post]
func (h *AIHandler) Generate(c echo.Context) error {
	var req GenerateTextRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return apperrors.Validation(err.Error())
	}

	result, err := h.aiService.Generate(c.Request().Context(), auth.PrincipalFrom(c), req.Prompt)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}
