package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// RatingHandler exposes paper rating endpoints.
type RatingHandler struct {
	service *service.RatingService
	metrics *service.MetricsService
}

// NewRatingHandler creates a new handler.
func NewRatingHandler(svc *service.RatingService, metrics *service.MetricsService) *RatingHandler {
	return &RatingHandler{service: svc, metrics: metrics}
}

type submitRatingRequest struct {
	Value int `json:"value" binding:"required,gte=1,lte=5"`
}

// Submit godoc
// @Summary Rate paper
// @Description Submit or replace the caller's vote on a paper
// @Tags Ratings
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body submitRatingRequest true "Rating payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /papers/{id}/ratings [post]
func (h *RatingHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req submitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "rating value must be between 1 and 5"))
		return
	}

	summary, err := h.service.Submit(c.Request.Context(), c.Param("id"), claims.UserID, req.Value)
	if err != nil {
		if appErr := appErrors.FromError(err); appErr.Status == http.StatusConflict {
			h.metrics.RecordRatingConflict()
		}
		response.Error(c, err)
		return
	}

	h.metrics.RecordRatingSubmission()
	response.JSON(c, http.StatusOK, summary, nil)
}

// Mine godoc
// @Summary Get own rating
// @Description Return the caller's current vote on a paper, if any
// @Tags Ratings
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/ratings/me [get]
func (h *RatingHandler) Mine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entry, err := h.service.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, entry, nil)
}
