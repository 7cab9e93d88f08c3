package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MailAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_mail_attempts_total",
		Help: "Total number of transport attempts, including retries",
	}, []string{"kind"})
	// Logical sends by final result: sent, failed, rejected, limited
	MailSends = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_mail_sends_total",
		Help: "Total number of logical email sends grouped by result",
	}, []string{"kind", "result"})
	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_tokens_issued_total",
		Help: "Total number of single use tokens issued",
	}, []string{"purpose"})
	TokensConsumed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "feedback_tokens_consumed_total",
		Help: "Token consume attempts grouped by result",
	}, []string{"purpose", "result"})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedback_http_rate_limited_total",
		Help: "Total number of requests rejected by the rate limiter",
	})
	HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "feedback_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(
		MailAttempts,
		MailSends,
		TokensIssued,
		TokensConsumed,
		RateLimited,
		HTTPDuration,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
