package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/papervault/papervault-api/internal/service"
	appErrors "github.com/papervault/papervault-api/pkg/errors"
	"github.com/papervault/papervault-api/pkg/response"
)

// CalculatorHandler exposes the study-tools calculator endpoint.
type CalculatorHandler struct {
	service *service.CalculatorService
}

// NewCalculatorHandler creates a new handler.
func NewCalculatorHandler(svc *service.CalculatorService) *CalculatorHandler {
	return &CalculatorHandler{service: svc}
}

// Calculate godoc
// @Summary Evaluate expression
// @Description Evaluate an arithmetic expression for the study tools page
// @Tags Tools
// @Accept json
// @Produce json
// @Param payload body service.CalculateRequest true "Expression payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tools/calculate [post]
func (h *CalculatorHandler) Calculate(c *gin.Context) {
	var req service.CalculateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "expression is required"))
		return
	}

	res, err := h.service.Evaluate(req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}
