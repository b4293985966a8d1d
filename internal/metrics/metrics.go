package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telemedicine",
		Name:      "logins_total",
		Help:      "Login attempts by principal kind and outcome.",
	}, []string{"kind", "outcome"})

	Registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telemedicine",
		Name:      "registrations_total",
		Help:      "Registration attempts by principal kind and outcome.",
	}, []string{"kind", "outcome"})

	TokenRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telemedicine",
		Name:      "token_rejections_total",
		Help:      "Rejected bearer tokens by internal reason.",
	}, []string{"reason"})

	RemedyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "telemedicine",
		Name:      "remedy_requests_total",
		Help:      "AI remedy requests by source (cache, upstream, failed).",
	}, []string{"source"})

	StoreUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "telemedicine",
		Name:      "store_up",
		Help:      "1 when the last record store probe succeeded.",
	})
)
