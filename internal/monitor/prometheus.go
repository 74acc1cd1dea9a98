package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collectors are the Prometheus metrics mirrored from every recorded call.
type Collectors struct {
	Requests *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Errors   *prometheus.CounterVec
}

// NewCollectors registers the collectors on reg. Registration panics on
// duplicate names, as promauto does; pass a fresh registry per client.
func NewCollectors(reg prometheus.Registerer) *Collectors {
	factory := promauto.With(reg)

	return &Collectors{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotask_requests_total",
				Help: "Total Autotask API calls by endpoint, method and outcome",
			},
			[]string{"endpoint", "method", "outcome"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autotask_request_duration_seconds",
				Help:    "Autotask API call duration including retries",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "method"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autotask_errors_total",
				Help: "Failed Autotask API calls by error kind",
			},
			[]string{"kind"},
		),
	}
}

func (c *Collectors) observe(timing autotask.Timing) {
	outcome := OutcomeSuccess
	if !timing.Success {
		outcome = OutcomeFailure
		c.Errors.WithLabelValues(string(timing.Kind)).Inc()
	}

	c.Requests.WithLabelValues(timing.Endpoint, timing.Method, outcome).Inc()
	c.Duration.WithLabelValues(timing.Endpoint, timing.Method).Observe(timing.Duration.Seconds())
}
