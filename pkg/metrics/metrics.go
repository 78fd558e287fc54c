package metrics

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	AllowedStatus = "Allowed"
	DeniedStatus  = "Denied"
	ErrorStatus   = "Error"

	// error_code is required although successful steps do not use it.
	// We set a default value for them.
	OKCode = "OK"
)

var (
	// Registry holds every k8s-netinspect metric. It is separate from the default registry so a
	// textfile export contains only the metrics of one run.
	Registry = prometheus.NewRegistry()

	// PermissionProbeCounter tracks the results of RBAC probes.
	PermissionProbeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8s_netinspect_permission_probe_total",
			Help: "Total number of RBAC permission probes, labeled by resource, verb and status",
		},
		[]string{"resource", "verb", "status"},
	)

	// StepResultCounter tracks the outcome of diagnosis steps.
	StepResultCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8s_netinspect_step_result_total",
			Help: "Total number of diagnosis step runs, labeled by step, outcome and error code",
		},
		[]string{"step", "outcome", "error_code"},
	)

	// StepDuration observes how long each diagnosis step took.
	StepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "k8s_netinspect_step_duration_seconds",
			Help:    "Duration of diagnosis steps in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		},
		[]string{"step"},
	)

	// ConnectivityAttemptCounter tracks individual pod reachability attempts.
	ConnectivityAttemptCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "k8s_netinspect_connectivity_attempt_total",
			Help: "Total number of pod HTTP reachability attempts, labeled by attempt number and result",
		},
		[]string{"attempt", "result"},
	)
)

func init() {
	Registry.MustRegister(
		PermissionProbeCounter,
		StepResultCounter,
		StepDuration,
		ConnectivityAttemptCounter,
	)
}

// ObserveProbe records one RBAC probe.
func ObserveProbe(resource, verb string, allowed bool, err error) {
	status := AllowedStatus
	switch {
	case allowed:
	case err == nil:
		status = DeniedStatus
	default:
		status = ErrorStatus
	}
	PermissionProbeCounter.WithLabelValues(resource, verb, status).Inc()
}

// ObserveAttempt records one connectivity attempt.
func ObserveAttempt(attempt int, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	ConnectivityAttemptCounter.WithLabelValues(strconv.Itoa(attempt), result).Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format, suitable for the node exporter
// textfile collector.
func WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}
