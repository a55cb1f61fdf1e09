package moderation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	approvals  *prometheus.CounterVec
	rejections *prometheus.CounterVec
	evictions  prometheus.Counter
	retries    *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		approvals: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashorcard_moderation_approvals_total",
			Help: "Items verified by an admin, by kind",
		}, []string{"kind"}),
		rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashorcard_moderation_rejections_total",
			Help: "Items deleted by an admin, by kind",
		}, []string{"kind"}),
		evictions: f.NewCounter(prometheus.CounterOpts{
			Name: "cashorcard_moderation_evictions_total",
			Help: "Verified payment facts replaced by a newly approved proposal",
		}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "cashorcard_moderation_tx_retries_total",
			Help: "Moderation transactions restarted after a serialization conflict",
		}, []string{"op"}),
	}
}
