package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufosure_monitor_connects_total",
			Help: "Monitoring stream dial attempts by outcome.",
		},
		[]string{"outcome"},
	)

	messagesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ufosure_monitor_messages_total",
			Help: "Monitoring events received.",
		},
	)

	connectedGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ufosure_monitor_connected",
			Help: "1 while a monitoring session is open.",
		},
	)
)
