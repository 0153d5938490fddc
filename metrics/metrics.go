package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "marketplace"

var (
	once sync.Once

	listingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_submissions_total",
			Help:      "Listing submissions by outcome.",
		},
		[]string{"outcome"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_submissions_total",
			Help:      "Booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	descriptions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "description_generations_total",
			Help:      "Description generation requests by outcome.",
		},
		[]string{"outcome"},
	)

	snapshotSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_size",
			Help:      "Number of records in the latest snapshot per collection.",
		},
		[]string{"collection"},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_notifications_total",
			Help:      "Booking notifications sent to admins by outcome.",
		},
		[]string{"outcome"},
	)
)

// Outcome labels.
const (
	OutcomeOK      = "ok"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
	OutcomeCached  = "cached"
	OutcomeBusy    = "busy"
	OutcomeDropped = "dropped"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(listingsCreated, bookingsCreated, descriptions, snapshotSize, notificationsSent)
	})
}

func IncListingSubmission(outcome string) {
	listingsCreated.WithLabelValues(outcome).Inc()
}

func IncBookingSubmission(outcome string) {
	bookingsCreated.WithLabelValues(outcome).Inc()
}

func IncDescription(outcome string) {
	descriptions.WithLabelValues(outcome).Inc()
}

func SetSnapshotSize(collection string, n int) {
	snapshotSize.WithLabelValues(collection).Set(float64(n))
}

func IncNotification(outcome string) {
	notificationsSent.WithLabelValues(outcome).Inc()
}
