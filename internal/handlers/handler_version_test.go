package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestVersionRouteReportsServiceName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerVersionRoutes(r)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/version", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "splitroom-backend")
	assert.Contains(t, w.Body.String(), "version")
}
