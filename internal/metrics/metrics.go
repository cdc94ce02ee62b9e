package metrics

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/opsgrid/cbcheck/internal/models"
)

const (
	// OutcomeSuccess labels completed REST requests.
	OutcomeSuccess = "success"
	// OutcomeError labels failed REST requests.
	OutcomeError = "error"
)

var (
	checksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbcheck",
			Name:      "checks_total",
			Help:      "Total number of check results produced, partitioned by severity.",
		},
		[]string{"severity"},
	)

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cbcheck",
			Name:      "couchbase_requests_total",
			Help:      "Total number of Couchbase REST requests, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	runDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "cbcheck",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last completed run.",
		},
	)
)

// Register attaches cbcheck collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		checksTotal,
		requestsTotal,
		runDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveCheck counts one produced check result.
func ObserveCheck(severity models.Severity) {
	checksTotal.WithLabelValues(strings.ToLower(severity.String())).Inc()
}

// ObserveFetch counts one Couchbase REST request by outcome label.
func ObserveFetch(outcome string) {
	if outcome != OutcomeError {
		outcome = OutcomeSuccess
	}
	requestsTotal.WithLabelValues(outcome).Inc()
}

// SetRunDuration records the wall-clock duration of the run.
func SetRunDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	runDurationSeconds.Set(d.Seconds())
}

// PushToGateway delivers the run's collectors to a Pushgateway, the usual
// scrape surface for batch jobs that exit before Prometheus can poll them.
func PushToGateway(ctx context.Context, gatewayURL, job string) error {
	return push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
}
