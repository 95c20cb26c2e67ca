package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/models"
	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// PaperHandler exposes the paper catalogue endpoints.
type PaperHandler struct {
	service *service.PaperService
}

// NewPaperHandler creates a new handler.
func NewPaperHandler(svc *service.PaperService) *PaperHandler {
	return &PaperHandler{service: svc}
}

// List godoc
// @Summary List papers
// @Description Filter and search the paper catalogue. Authenticated non-admin users default to their own level.
// @Tags Papers
// @Produce json
// @Param q query string false "Search query"
// @Param level query string false "Level filter"
// @Param grade query string false "Grade filter"
// @Param subject query string false "Subject filter"
// @Param year query int false "Year filter"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /papers [get]
func (h *PaperHandler) List(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	listing, err := h.service.List(c.Request.Context(), viewerFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, listing, nil)
}

// Get godoc
// @Summary Get paper
// @Description Fetch a single paper with viewer bookmark state
// @Tags Papers
// @Produce json
// @Param id path string true "Paper ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /papers/{id} [get]
func (h *PaperHandler) Get(c *gin.Context) {
	view, err := h.service.GetByID(c.Request.Context(), viewerFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, view, nil)
}

// Upload godoc
// @Summary Upload paper
// @Description Upload a new question paper (admin only, multipart)
// @Tags Papers
// @Accept mpfd
// @Produce json
// @Param title formData string true "Title"
// @Param description formData string false "Description"
// @Param level formData string true "Level"
// @Param grade formData string false "Grade (high school only)"
// @Param subject formData string true "Subject"
// @Param year formData int true "Year"
// @Param file formData file true "Paper file"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /papers [post]
func (h *PaperHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, err := uploadRequestFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload(req)

	paper, err := h.service.Upload(c.Request.Context(), claims.UserID, *req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, paper)
}

// UploadCompat godoc
// @Summary Upload paper (compat)
// @Description Legacy upload surface returning a flat message payload
// @Tags Papers
// @Accept mpfd
// @Produce json
// @Success 201 {object} map[string]string
// @Failure 400 {object} response.Envelope
// @Router /upload [post]
func (h *PaperHandler) UploadCompat(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	req, err := uploadRequestFromForm(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer closeUpload(req)

	paper, err := h.service.Upload(c.Request.Context(), claims.UserID, *req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "paper uploaded successfully",
		"file_url": paper.FileURL,
	})
}

func filterFromQuery(c *gin.Context) (models.PaperFilter, error) {
	filter := models.PaperFilter{
		Query:   c.Query("q"),
		Level:   models.Level(c.Query("level")),
		Grade:   models.Grade(c.Query("grade")),
		Subject: c.Query("subject"),
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "year must be a number")
		}
		filter.Year = &year
	}
	return filter, nil
}

func uploadRequestFromForm(c *gin.Context) (*service.UploadPaperRequest, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "paper file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "could not read uploaded file")
	}

	year, err := strconv.Atoi(c.PostForm("year"))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "year must be a number")
	}

	req := &service.UploadPaperRequest{
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Level:       models.Level(c.PostForm("level")),
		Subject:     c.PostForm("subject"),
		Year:        year,
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		File:        file,
	}
	if raw := c.PostForm("grade"); raw != "" {
		grade := models.Grade(raw)
		req.Grade = &grade
	}
	return req, nil
}

func closeUpload(req *service.UploadPaperRequest) {
	if closer, ok := req.File.(io.Closer); ok {
		closer.Close() //nolint:errcheck
	}
}
