package consensus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	submissions *prometheus.CounterVec
	votes       *prometheus.CounterVec
	retries     *prometheus.CounterVec
	txDuration  *prometheus.HistogramVec
}

// newMetrics registers the engine collectors with reg. A nil reg leaves
// them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashorcard_consensus_submissions_total",
			Help: "Fact submissions by kind and outcome (created or refined)",
		}, []string{"kind", "outcome"}),
		votes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashorcard_consensus_votes_total",
			Help: "Votes cast by fact kind and vote type",
		}, []string{"kind", "vote_type"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashorcard_consensus_tx_retries_total",
			Help: "Transactions restarted after a serialization conflict",
		}, []string{"op"}),
		txDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cashorcard_consensus_tx_duration_seconds",
			Help:    "Time spent in consensus transactions, retries included",
			Buckets: prometheus.DefBuckets,
		}, []string{"op"}),
	}
}
