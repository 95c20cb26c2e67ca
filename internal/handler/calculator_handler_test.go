package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/papervault/papervault-api/internal/service"
)

func newCalculatorRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewCalculatorHandler(service.NewCalculatorService(nil))
	r.POST("/tools/calculate", h.Calculate)
	return r
}

func TestCalculatorHandlerCalculate(t *testing.T) {
	router := newCalculatorRouter()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/calculate", strings.NewReader(`{"expression":"(2+3)*4"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"result":20`)
}

func TestCalculatorHandlerRejectsMalformedExpression(t *testing.T) {
	router := newCalculatorRouter()

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tools/calculate", strings.NewReader(`{"expression":"1 / 0"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
