package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_booking_operations_total",
			Help: "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	verifyOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verify_operations_total",
			Help: "Payment verification attempts by outcome",
		},
		[]string{"outcome"},
	)

	sweepReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "expired_holds_reclaimed_total",
			Help: "Holds reclaimed by the expiry sweep",
		},
	)

	gatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_request_seconds",
			Help:    "Latency of payment gateway round trips",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"operation"},
	)
)

func TrackBooking(outcome string) {
	bookingOps.WithLabelValues(outcome).Inc()
}

func TrackVerify(outcome string) {
	verifyOps.WithLabelValues(outcome).Inc()
}

func TrackSweep(reclaimed int) {
	sweepReclaimed.Add(float64(reclaimed))
}

func ObserveGateway(operation string, duration time.Duration) {
	gatewayLatency.WithLabelValues(operation).Observe(duration.Seconds())
}
