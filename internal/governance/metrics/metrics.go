package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	RateChecks     *prometheus.CounterVec
	BlockedDenials prometheus.Counter
	FailOpen       prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		RateChecks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "brdatabot_governance_rate_checks_total",
			Help: "Rate limit checks by outcome",
		}, []string{"outcome"}),
		BlockedDenials: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brdatabot_governance_blocked_denials_total",
			Help: "Messages rejected because the sender is blocked",
		}),
		FailOpen: promauto.NewCounter(prometheus.CounterOpts{
			Name: "brdatabot_governance_fail_open_total",
			Help: "Governance checks that failed open because the store was unreachable",
		}),
	}
}

func (m *Metrics) RecordRateCheck(allowed bool) {
	outcome := "allowed"
	if !allowed {
		outcome = "denied"
	}
	m.RateChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordBlockedDenial() { m.BlockedDenials.Inc() }

func (m *Metrics) RecordFailOpen() { m.FailOpen.Inc() }
