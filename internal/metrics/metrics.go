package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsgw_gateway_requests_total",
			Help: "Gateway calls by endpoint and result code",
		},
		[]string{"endpoint", "code"},
	)

	GatewayRequestSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smsgw_gateway_request_seconds",
			Help:    "Gateway call latency by endpoint",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smsgw_messages_total",
			Help: "Messages lifecycle counter by stage and mode",
		},
		[]string{"stage", "mode"}, // queued|sent|failed , single|batch|personal|queue
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		GatewayRequestsTotal,
		GatewayRequestSeconds,
		MessagesTotal,
	)
}
