package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// CommentHandler exposes comment endpoints, including the live stream.
type CommentHandler struct {
	service *service.CommentService
	users   *service.UserService
}

// NewCommentHandler creates a new handler.
func NewCommentHandler(svc *service.CommentService, users *service.UserService) *CommentHandler {
	return &CommentHandler{service: svc, users: users}
}

// List godoc
// @Summary List comments
// @Description Return all comments on a paper, newest first
// @Tags Comments
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Router /papers/{id}/comments [get]
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.service.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, comments, nil)
}

// Create godoc
// @Summary Post comment
// @Description Append a comment to a paper
// @Tags Comments
// @Accept json
// @Produce json
// @Param id path string true "Paper ID"
// @Param payload body service.CreateCommentRequest true "Comment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /papers/{id}/comments [post]
func (h *CommentHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid comment payload"))
		return
	}

	author, err := h.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	comment, err := h.service.Create(c.Request.Context(), c.Param("id"), *author, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, comment)
}

// Stream godoc
// @Summary Stream comments
// @Description Server-sent events stream of full comment snapshots
// @Tags Comments
// @Produce text/event-stream
// @Param id path string true "Paper ID"
// @Success 200 {string} string "event stream"
// @Failure 404 {object} response.Envelope
// @Router /papers/{id}/comments/stream [get]
func (h *CommentHandler) Stream(c *gin.Context) {
	snapshots, err := h.service.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		snapshot, ok := <-snapshots
		if !ok {
			return false
		}
		payload, err := json.Marshal(snapshot)
		if err != nil {
			return false
		}
		c.SSEvent("comments", string(payload))
		return true
	})
}
