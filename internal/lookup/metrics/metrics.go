package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "brdatabot_upstream_requests_total",
	Help: "Requests to external data sources by upstream and outcome",
}, []string{"upstream", "outcome"})

// RecordRequest counts one upstream call. Outcome is success, not_found or
// unavailable.
func RecordRequest(upstream, outcome string) {
	upstreamRequests.WithLabelValues(upstream, outcome).Inc()
}
