package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	exportStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cv_export_started_total",
		Help: "Total CV exports started",
	})
	exportCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cv_export_completed_total",
		Help: "Total CV exports delivered",
	})
	exportFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_export_failed_total",
		Help: "Total CV exports failed, by reason",
	}, []string{"reason"})
	exportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cv_export_duration_seconds",
		Help:    "CV export duration in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	})
	staleSkillsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cv_export_stale_skills_total",
		Help: "Skill ratings dropped because the skill is not in the catalog",
	})
	malformedRatingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cv_export_malformed_ratings_total",
		Help: "Skill ratings rendered as unknown because the stored value was malformed",
	})
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_http_requests_total",
		Help: "HTTP requests by route, method and status",
	}, []string{"route", "method", "status"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cv_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds by route",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	rateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cv_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by group",
	}, []string{"group"})
	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cv_http_panics_total",
		Help: "Handler panics recovered by the server",
	})
)

// Failure reasons used as the reason label of cv_export_failed_total.
const (
	ReasonNotFound            = "not_found"
	ReasonTemplateUnavailable = "template_unavailable"
	ReasonRenderFailed        = "render_failed"
	ReasonInternal            = "internal"
)

// IncExportStarted increments the started counter.
func IncExportStarted() {
	exportStartedTotal.Inc()
}

// IncExportCompleted increments the completed counter.
func IncExportCompleted() {
	exportCompletedTotal.Inc()
}

// IncExportFailed increments the failed counter for reason.
func IncExportFailed(reason string) {
	exportFailedTotal.WithLabelValues(reason).Inc()
}

// ObserveExportDuration records the time spent since start.
func ObserveExportDuration(start time.Time) {
	exportDuration.Observe(time.Since(start).Seconds())
}

// AddStaleSkills counts dropped skill references.
func AddStaleSkills(n int) {
	if n > 0 {
		staleSkillsTotal.Add(float64(n))
	}
}

// AddMalformedRatings counts ratings rendered as unknown.
func AddMalformedRatings(n int) {
	if n > 0 {
		malformedRatingsTotal.Add(float64(n))
	}
}

// ObserveRequest records one served request. Unmatched routes are grouped
// under "unmatched" to bound label cardinality.
func ObserveRequest(route, method string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

// IncRateLimited counts a rejected request of group.
func IncRateLimited(group string) {
	rateLimitedTotal.WithLabelValues(group).Inc()
}

// IncPanics counts a recovered panic.
func IncPanics() {
	panicsTotal.Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
