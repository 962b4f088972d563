package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Advisory outcomes used as the "outcome" label.
const (
	OutcomeSuccess     = "success"
	OutcomeCacheHit    = "cache_hit"
	OutcomeUnavailable = "unavailable"
	OutcomeMalformed   = "malformed"
	OutcomeTimeout     = "timeout"
	OutcomeQuota       = "quota"
	OutcomeError       = "error"
)

var (
	analysesScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_analyses_scored_total",
		Help: "Mission statements scored by the deterministic engine",
	}, []string{"source"})

	overallScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mission_overall_score",
		Help:    "Distribution of overall scores",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})

	advisoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_advisory_requests_total",
		Help: "Advisory generation attempts by outcome",
	}, []string{"outcome"})

	advisoryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mission_advisory_duration_seconds",
		Help:    "Advisory generation latency",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	})

	persistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mission_analysis_persist_failures_total",
		Help: "Analyses that could not be saved",
	})

	jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_advisory_jobs_total",
		Help: "Queued advisory jobs by final status",
	}, []string{"status"})

	queueMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_queue_messages_total",
		Help: "Queue messages seen by workers by disposition",
	}, []string{"disposition"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mission_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
)

// ObserveScored records one deterministic scoring pass.
func ObserveScored(source string, overall int) {
	analysesScored.WithLabelValues(source).Inc()
	overallScore.Observe(float64(overall))
}

// ObserveAdvisory records an advisory attempt.
func ObserveAdvisory(outcome string, seconds float64) {
	advisoryRequests.WithLabelValues(outcome).Inc()
	if seconds > 0 {
		advisoryDuration.Observe(seconds)
	}
}

// IncPersistFailure counts a failed save.
func IncPersistFailure() {
	persistFailures.Inc()
}

// IncJob counts a finished queued job.
func IncJob(status string) {
	jobsProcessed.WithLabelValues(status).Inc()
}

// Queue message dispositions.
const (
	MessageReceived  = "received"
	MessageCompleted = "completed"
	MessageFailed    = "failed"
	MessageDropped   = "dropped"
)

// IncQueueMessage counts a worker message by disposition.
func IncQueueMessage(disposition string) {
	queueMessages.WithLabelValues(disposition).Inc()
}

// ObserveHTTP counts a served request.
func ObserveHTTP(method, route, status string) {
	httpRequests.WithLabelValues(method, route, status).Inc()
}

// Handler exposes the default registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
