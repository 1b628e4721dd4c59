// Package metrics provides Prometheus metrics for the listing server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dirserve_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	listingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_listings_total",
			Help: "Directory listings served, by language",
		},
		[]string{"lang"},
	)

	listingEntries = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dirserve_listing_entries",
			Help:    "Number of entries per directory listing",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_downloads_total",
			Help: "Files served, by disposition (inline, attachment, archive)",
		},
		[]string{"disposition"},
	)

	resolveFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dirserve_resolve_failures_total",
			Help: "Rejected or failed path resolutions, by kind",
		},
		[]string{"kind"},
	)

	websocketSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dirserve_websocket_sessions",
			Help: "Open websocket sessions",
		},
	)
)

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request counts and latency per route template.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func RecordListing(lang string, entries int) {
	listingsTotal.WithLabelValues(lang).Inc()
	listingEntries.Observe(float64(entries))
}

func RecordDownload(disposition string) {
	downloadsTotal.WithLabelValues(disposition).Inc()
}

func RecordResolveFailure(kind string) {
	resolveFailuresTotal.WithLabelValues(kind).Inc()
}

func WebsocketOpened() {
	websocketSessions.Inc()
}

func WebsocketClosed() {
	websocketSessions.Dec()
}
