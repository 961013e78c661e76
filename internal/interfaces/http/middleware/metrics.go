package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/motifchem/geomval/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request counts, durations, and in-flight gauges.  The
// route template (not the raw URL) labels the metric so path parameters do
// not explode cardinality.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		active := m.HTTPActiveRequests.WithLabelValues(c.Request.Method, path)
		active.Inc()
		started := time.Now()

		c.Next()

		active.Dec()
		prometheus.RecordHTTPRequest(m, c.Request.Method, path, c.Writer.Status(), time.Since(started))
	}
}
