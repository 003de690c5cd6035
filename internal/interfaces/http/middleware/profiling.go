package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/retailpos/backend/internal/infrastructure/telemetry"
)

// Profiling attaches route, method and tenant labels to the CPU profile
// samples taken while the request runs. Place it after the tenant middleware.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || skipPath(route, []string{"/health"}, []string{"/swagger"}) {
			c.Next()
			return
		}
		labels := telemetry.HTTPRequestLabels(route, c.Request.Method, GetTenantID(c))
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
