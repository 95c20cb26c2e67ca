package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// SuggestionHandler exposes the feedback endpoints.
type SuggestionHandler struct {
	service *service.SuggestionService
}

// NewSuggestionHandler creates a new handler.
func NewSuggestionHandler(svc *service.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: svc}
}

// Create godoc
// @Summary Send suggestion
// @Description Submit feedback to the administrators. Authentication is optional.
// @Tags Suggestions
// @Accept json
// @Produce json
// @Param payload body service.CreateSuggestionRequest true "Suggestion payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /suggestions [post]
func (h *SuggestionHandler) Create(c *gin.Context) {
	var req service.CreateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid suggestion payload"))
		return
	}

	userID := ""
	if claims := claimsFromContext(c); claims != nil {
		userID = claims.UserID
	}

	suggestion, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, suggestion)
}

// List godoc
// @Summary List suggestions
// @Description Return submitted suggestions (admin only)
// @Tags Suggestions
// @Produce json
// @Param unread query bool false "Only unread suggestions"
// @Success 200 {object} response.Envelope
// @Router /suggestions [get]
func (h *SuggestionHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	suggestions, err := h.service.List(c.Request.Context(), unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, suggestions, nil)
}

// MarkRead godoc
// @Summary Mark suggestion read
// @Description Flag a suggestion as handled (admin only)
// @Tags Suggestions
// @Produce json
// @Param id path string true "Suggestion ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /suggestions/{id}/read [post]
func (h *SuggestionHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
