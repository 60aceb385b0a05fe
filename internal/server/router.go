// internal/server/router.go
package server

import (
	"github.com/gin-gonic/gin"

	"hr-analysis/internal/common/logger"
)

// NewRouter constructs the Gin engine with middleware and all analysis routes
// registered.
func NewRouter(handlers *Handlers, log logger.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		Recovery(log),
		RequestLogging(log),
		CORS(),
	)

	handlers.RegisterRoutes(r)
	return r
}
