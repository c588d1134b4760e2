package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skiphire",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	stepConfirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skiphire",
			Name:      "wizard_step_confirmations_total",
			Help:      "Confirmed wizard step outputs by step.",
		},
		[]string{"step"},
	)

	paymentOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "skiphire",
			Name:      "payment_submissions_total",
			Help:      "Payment submission outcomes by method and result.",
		},
		[]string{"method", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, stepConfirmations, paymentOutcomes)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncStepConfirmed increments the confirmation counter for a wizard step.
func IncStepConfirmed(step string) {
	stepConfirmations.WithLabelValues(step).Inc()
}

// IncPayment increments the payment outcome counter.
func IncPayment(method, result string) {
	paymentOutcomes.WithLabelValues(method, result).Inc()
}
