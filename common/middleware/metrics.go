package middleware

import (
	"context"
	"fmt"
	"time"

	awspkg "catalog-service/pkg/aws"

	"github.com/gin-gonic/gin"
)

const metricsFlushTimeout = 5 * time.Second

// MetricsMiddleware publishes request count, latency and error counters per
// route template. Data points are sent after the response, off the request
// goroutine.
func MetricsMiddleware(metrics *awspkg.MetricsClient, serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !metrics.IsEnabled() {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		sample := requestSample{
			status:  c.Writer.Status(),
			latency: time.Since(start),
			dims:    requestDimensions(c, serviceName),
		}
		go sample.publish(metrics)
	}
}

type requestSample struct {
	status  int
	latency time.Duration
	dims    map[string]string
}

func (s requestSample) publish(metrics *awspkg.MetricsClient) {
	ctx, cancel := context.WithTimeout(context.Background(), metricsFlushTimeout)
	defer cancel()

	names := []string{awspkg.MetricHTTPRequests}
	switch statusClass(s.status) {
	case "4xx":
		names = append(names, awspkg.MetricHTTPErrors, awspkg.MetricHTTP4xx)
	case "5xx":
		names = append(names, awspkg.MetricHTTPErrors, awspkg.MetricHTTP5xx)
	}
	for _, name := range names {
		_ = metrics.RecordCount(ctx, name, s.dims)
	}
	_ = metrics.RecordLatency(ctx, awspkg.MetricHTTPLatency, s.latency, s.dims)
}

func requestDimensions(c *gin.Context, serviceName string) map[string]string {
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	return map[string]string{
		"Service": serviceName,
		"Method":  c.Request.Method,
		"Route":   route,
		"Status":  statusClass(c.Writer.Status()),
	}
}

// statusClass buckets a status code as "2xx" .. "5xx". Anything outside
// 200-599 is "unknown".
func statusClass(code int) string {
	if code < 200 || code > 599 {
		return "unknown"
	}
	return fmt.Sprintf("%dxx", code/100)
}
