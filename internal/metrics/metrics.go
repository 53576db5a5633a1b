package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_booking_operations_total",
			Help: "Booking create/update/delete calls by result",
		},
		[]string{"operation", "result"},
	)

	seatsReserved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_seats_reserved_total",
			Help: "Seats flipped to unavailable by bookings",
		},
	)

	seatsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ticketing_seats_released_total",
			Help: "Seats returned to the inventory",
		},
	)

	webhookDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticketing_payment_webhooks_total",
			Help: "Payment webhook deliveries by outcome",
		},
		[]string{"outcome"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticketing_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// Result labels
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// RecordBooking counts one booking operation
func RecordBooking(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	bookingOperations.WithLabelValues(operation, result).Inc()
}

// SeatsReserved adds n to the reserved-seat counter
func SeatsReserved(n int) {
	if n > 0 {
		seatsReserved.Add(float64(n))
	}
}

// SeatsReleased adds n to the released-seat counter
func SeatsReleased(n int) {
	if n > 0 {
		seatsReleased.Add(float64(n))
	}
}

// RecordWebhook counts one webhook delivery outcome
func RecordWebhook(outcome string) {
	webhookDeliveries.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the latency of one HTTP request
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
