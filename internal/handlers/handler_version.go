package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/splitroomhq/splitroom_backend/cmd/docs"
)

// getVersion godoc
// @Summary Report the running service name and version.
// @Description Returns the service name and API version.
// @Tags root
// @Produce json
// @Success 200 {object} map[string]string
// @Router /version [get]
func getVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":    "splitroom-backend",
		"version": docs.SwaggerInfo.Version,
	})
}

// registerVersionRoutes registers the public '/version' route.
func registerVersionRoutes(r *gin.Engine) {
	r.GET("/version", getVersion)
}
