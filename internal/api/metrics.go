package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ufosure_api_requests_total",
			Help: "Total number of robot API requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ufosure_api_request_duration_seconds",
			Help:    "Robot API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func observeRequest(op, result string, d time.Duration) {
	apiRequestsTotal.WithLabelValues(op, result).Inc()
	apiRequestDuration.WithLabelValues(op).Observe(d.Seconds())
}

// outcome is "ok", the HTTP status code, or "error" when no response arrived.
func outcome(status int, err error) string {
	if err == nil {
		return "ok"
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) && reqErr.Status != 0 && reqErr.Cause == nil {
		return strconv.Itoa(status)
	}
	if status >= http.StatusOK && status < http.StatusMultipleChoices {
		return "decode_error"
	}
	return "error"
}
