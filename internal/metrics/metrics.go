package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "serviceconnect_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_booking_transitions_total",
			Help: "Booking status transitions by action and resulting status",
		},
		[]string{"action", "status"},
	)

	SettlementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_settlements_total",
			Help: "Payment settlements by result",
		},
		[]string{"result"},
	)

	SettledAmount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serviceconnect_settled_amount_total",
			Help: "Sum of settled booking amounts",
		},
	)

	WalletMovementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_wallet_movements_total",
			Help: "Ledger movements by transaction type",
		},
		[]string{"type"},
	)

	WalletRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_wallet_requests_total",
			Help: "Wallet requests by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ReviewsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_reviews_total",
			Help: "Submitted reviews by rating",
		},
		[]string{"rating"},
	)

	ChatMessagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "serviceconnect_chat_messages_total",
			Help: "Total number of chat messages sent",
		},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "serviceconnect_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "serviceconnect_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingTransition(action, status string) {
	BookingTransitionsTotal.WithLabelValues(action, status).Inc()
}

func RecordSettlement(result string, amount float64) {
	SettlementsTotal.WithLabelValues(result).Inc()
	if result == "succeeded" {
		SettledAmount.Add(amount)
	}
}

func RecordWalletMovement(txType string) {
	WalletMovementsTotal.WithLabelValues(txType).Inc()
}

func RecordWalletRequest(reqType, outcome string) {
	WalletRequestsTotal.WithLabelValues(reqType, outcome).Inc()
}

func RecordReview(rating string) {
	ReviewsTotal.WithLabelValues(rating).Inc()
}

func RecordChatMessage() {
	ChatMessagesTotal.Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func SetEmailQueueLength(n int64) {
	EmailQueueLength.Set(float64(n))
}
