package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FeedSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unishare_feed_sync_duration_seconds",
		Help:    "Time to fetch and upsert the campus announcement feed",
		Buckets: prometheus.DefBuckets,
	})

	FeedSyncErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unishare_feed_sync_errors_total",
		Help: "Total announcement feed sync failures",
	})

	FeedbackSubmissions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unishare_feedback_submissions_total",
		Help: "Feedback submissions by delivery outcome",
	}, []string{"outcome"})

	FeedbackOutboxDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unishare_feedback_outbox_depth",
		Help: "Current number of queued feedback entries awaiting delivery",
	})

	FormsDeliveryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "unishare_forms_delivery_duration_seconds",
		Help:    "Time to deliver a feedback entry to the upstream form endpoint",
		Buckets: prometheus.DefBuckets,
	})

	ActiveListings = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "unishare_active_listings",
		Help: "Number of marketplace listings by status",
	}, []string{"status"})

	RideSeatReservations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "unishare_ride_seat_reservations_total",
		Help: "Ride seat reservation attempts by outcome",
	}, []string{"outcome"})

	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "unishare_sse_clients",
		Help: "Current number of SSE clients connected",
	})
)

func ObserveFeedSyncDuration(duration time.Duration) {
	FeedSyncDuration.Observe(duration.Seconds())
}

func IncFeedSyncError() {
	FeedSyncErrors.Inc()
}

func IncFeedbackSubmission(outcome string) {
	label := strings.TrimSpace(outcome)
	if label == "" {
		label = "unknown"
	}
	FeedbackSubmissions.WithLabelValues(label).Inc()
}

func SetFeedbackOutboxDepth(count int64) {
	if count < 0 {
		count = 0
	}
	FeedbackOutboxDepth.Set(float64(count))
}

func ObserveFormsDeliveryDuration(duration time.Duration) {
	FormsDeliveryDuration.Observe(duration.Seconds())
}

func SetActiveListingCount(status string, count int64) {
	label := strings.TrimSpace(status)
	if label == "" {
		label = "unknown"
	}
	if count < 0 {
		count = 0
	}
	ActiveListings.WithLabelValues(label).Set(float64(count))
}

func IncRideSeatReservation(outcome string) {
	label := strings.TrimSpace(outcome)
	if label == "" {
		label = "unknown"
	}
	RideSeatReservations.WithLabelValues(label).Inc()
}

func SetSSEClients(count int) {
	if count < 0 {
		count = 0
	}
	SSEClients.Set(float64(count))
}
