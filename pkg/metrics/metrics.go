package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RateLimitAllowed = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "htmlhost", Name: "rate_limit_allowed_total", Help: "Number of allowed requests by limiter type."},
		[]string{"limiter"},
	)
	RateLimitRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "htmlhost", Name: "rate_limit_rejected_total", Help: "Number of rejected requests by limiter type."},
		[]string{"limiter"},
	)
	DocumentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "htmlhost", Name: "document_operations_total", Help: "Document operations by operation and result."},
		[]string{"op", "result"},
	)
	StaleRecords = prometheus.NewCounter(
		prometheus.CounterOpts{Namespace: "htmlhost", Name: "document_stale_records_total", Help: "Renames whose old record could not be removed."},
	)
	SessionEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: "htmlhost", Name: "session_events_total", Help: "Session issue/verify/revoke outcomes."},
		[]string{"event", "result"},
	)
)

func RegisterCollectors(reg prometheus.Registerer) {
	reg.MustRegister(RateLimitAllowed)
	reg.MustRegister(RateLimitRejected)
	reg.MustRegister(DocumentOperations)
	reg.MustRegister(StaleRecords)
	reg.MustRegister(SessionEvents)
}
