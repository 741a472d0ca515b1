package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/merchpulse/backend/internal/infrastructure/telemetry"
)

// Profiling attaches operation, route and method pprof labels to the request
// goroutine so Pyroscope can slice CPU time per endpoint. Disabled it is a pass-through.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			c.Next()
			return
		}
		labels := telemetry.RequestLabels(handlerOperation(c.HandlerName()), route, c.Request.Method)
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

// handlerOperation turns "pkg/handler.(*AttendanceHandler).RecordPunch-fm" into "AttendanceHandler.RecordPunch"
func handlerOperation(name string) string {
	name = strings.TrimSuffix(name, "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.NewReplacer("(", "", ")", "", "*", "").Replace(name)
}
