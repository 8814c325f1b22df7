package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the domain metrics exercised by the services. HTTP-level
// series live in the router middleware.
type Metrics struct {
	LoginAttempts    *prometheus.CounterVec
	TokensIssued     *prometheus.CounterVec
	TokensRevoked    prometheus.Counter
	UploadsProcessed *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace, subsystem string) *Metrics {
	return &Metrics{
		LoginAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts",
		}, []string{"status"}),
		TokensIssued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tokens_issued_total",
			Help:      "Total number of JWT tokens issued",
		}, []string{"type"}),
		TokensRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "tokens_revoked_total",
			Help:      "Total number of refresh tokens blacklisted",
		}),
		UploadsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "uploads_processed_total",
			Help:      "Total number of treatment image uploads",
		}, []string{"status"}),
	}
}
