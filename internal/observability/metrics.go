package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	httpRequestsTotal     *prometheus.CounterVec
	httpLatencySeconds    *prometheus.HistogramVec
	httpErrorsTotal       *prometheus.CounterVec
	xpAwardedTotal        *prometheus.CounterVec
	achievementsUnlocked  *prometheus.CounterVec
	notificationsTotal    *prometheus.CounterVec
	streamClientsActive   prometheus.Gauge
	accessDecisionedTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors.
func RegisterMetrics() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentoria_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mentoria_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		httpErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentoria_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		xpAwardedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentoria_xp_awarded_total",
			Help: "Total XP awarded, labelled by activity type.",
		}, []string{"activity_type"})

		achievementsUnlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentoria_achievements_unlocked_total",
			Help: "Achievement grants, labelled by achievement slug.",
		}, []string{"slug"})

		notificationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentoria_notifications_published_total",
			Help: "Notifications published, labelled by notification type.",
		}, []string{"type"})

		streamClientsActive = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mentoria_stream_clients_active",
			Help: "Currently connected notification stream subscribers.",
		})

		accessDecisionedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mentoria_access_decisions_total",
			Help: "Content gate decisions, labelled by outcome reason.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			httpRequestsTotal,
			httpLatencySeconds,
			httpErrorsTotal,
			xpAwardedTotal,
			achievementsUnlocked,
			notificationsTotal,
			streamClientsActive,
			accessDecisionedTotal,
		)
	})
}

// Requests exposes the counter for API requests.
func Requests() *prometheus.CounterVec {
	RegisterMetrics()
	return httpRequestsTotal
}

// Latency exposes the latency histogram for API requests.
func Latency() *prometheus.HistogramVec {
	RegisterMetrics()
	return httpLatencySeconds
}

// Errors exposes the counter for API error responses.
func Errors() *prometheus.CounterVec {
	RegisterMetrics()
	return httpErrorsTotal
}

// XPAwarded exposes the counter for awarded XP.
func XPAwarded() *prometheus.CounterVec {
	RegisterMetrics()
	return xpAwardedTotal
}

// AchievementsUnlocked exposes the counter for achievement grants.
func AchievementsUnlocked() *prometheus.CounterVec {
	RegisterMetrics()
	return achievementsUnlocked
}

// NotificationsPublished exposes the counter for published notifications.
func NotificationsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return notificationsTotal
}

// StreamClientsActive exposes the gauge of live stream subscribers.
func StreamClientsActive() prometheus.Gauge {
	RegisterMetrics()
	return streamClientsActive
}

// AccessDecisions exposes the counter for content gate outcomes.
func AccessDecisions() *prometheus.CounterVec {
	RegisterMetrics()
	return accessDecisionedTotal
}
