package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// AssistHandler exposes the AI study-assistance endpoints.
type AssistHandler struct {
	service *service.AssistService
}

// NewAssistHandler creates a new handler.
func NewAssistHandler(svc *service.AssistService) *AssistHandler {
	return &AssistHandler{service: svc}
}

// Explain godoc
// @Summary Explain question
// @Description Produce a step-by-step explanation of an exam question
// @Tags Assist
// @Accept json
// @Produce json
// @Param payload body service.ExplainRequest true "Explain payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assist/explain [post]
func (h *AssistHandler) Explain(c *gin.Context) {
	var req service.ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assist payload"))
		return
	}

	res, err := h.service.ExplainQuestion(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Topics godoc
// @Summary Suggest revision topics
// @Tags Assist
// @Accept json
// @Produce json
// @Param payload body service.TopicsRequest true "Topics payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assist/topics [post]
func (h *AssistHandler) Topics(c *gin.Context) {
	var req service.TopicsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assist payload"))
		return
	}

	res, err := h.service.SuggestTopics(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Questions godoc
// @Summary Generate practice questions
// @Tags Assist
// @Accept json
// @Produce json
// @Param payload body service.QuestionsRequest true "Questions payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assist/questions [post]
func (h *AssistHandler) Questions(c *gin.Context) {
	var req service.QuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assist payload"))
		return
	}

	res, err := h.service.GenerateQuestions(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// StudyPlan godoc
// @Summary Generate study plan
// @Tags Assist
// @Accept json
// @Produce json
// @Param payload body service.StudyPlanRequest true "Study plan payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /assist/study-plan [post]
func (h *AssistHandler) StudyPlan(c *gin.Context) {
	var req service.StudyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assist payload"))
		return
	}

	res, err := h.service.GenerateStudyPlan(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
