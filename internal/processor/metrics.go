package processor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "paygate",
		Subsystem: "processor",
		Name:      "calls_total",
		Help:      "Outbound processor API calls by resource and outcome.",
	}, []string{"resource", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "paygate",
		Subsystem: "processor",
		Name:      "call_duration_seconds",
		Help:      "Outbound processor API call latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"resource"})
)
