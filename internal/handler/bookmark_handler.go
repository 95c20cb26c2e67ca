package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// BookmarkHandler exposes bookmark endpoints.
type BookmarkHandler struct {
	service *service.BookmarkService
}

// NewBookmarkHandler creates a new handler.
func NewBookmarkHandler(svc *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{service: svc}
}

// Toggle godoc
// @Summary Toggle bookmark
// @Description Flip the caller's bookmark on a paper and return the new state
// @Tags Bookmarks
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /papers/{id}/bookmark [post]
func (h *BookmarkHandler) Toggle(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	bookmarked, err := h.service.Toggle(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"bookmarked": bookmarked}, nil)
}

// List godoc
// @Summary List bookmarked papers
// @Description Return the caller's bookmarked papers in bookmark order
// @Tags Bookmarks
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /me/bookmarks [get]
func (h *BookmarkHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	papers, err := h.service.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, papers, nil)
}
