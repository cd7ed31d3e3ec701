package script

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var runsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ufosure_script_runs_total",
		Help: "Script runs by kind and outcome.",
	},
	[]string{"kind", "outcome"},
)
