package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yakhtimoon-console/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records console request metrics labelled by route template, so
// screen names and row keys do not multiply the series. Scrapes of
// skipPaths are not recorded.
func Metrics(metricsSvc *service.MetricsService, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if _, ok := skip[path]; ok {
			return
		}
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
