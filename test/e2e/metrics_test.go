//go:build e2e

package e2e

import (
	"fmt"
	"os"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const (
	stepResultMetricName      = "k8s_netinspect_step_result_total"
	permissionProbeMetricName = "k8s_netinspect_permission_probe_total"
	connectivityMetricName    = "k8s_netinspect_connectivity_attempt_total"
)

// readMetricsFile parses a textfile written with --metrics-file.
func readMetricsFile(path string) (map[string]*dto.MetricFamily, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metrics file: %w", err)
	}
	defer f.Close()

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse metrics file: %w", err)
	}
	return families, nil
}

// getCounterMetricValue returns the value of the counter in metricName whose labels include
// targetLabels. A missing series counts as zero.
func getCounterMetricValue(metrics map[string]*dto.MetricFamily, metricName string, targetLabels map[string]string) (float64, error) {
	family, ok := metrics[metricName]
	if !ok {
		return 0, nil
	}
	if family.GetType() != dto.MetricType_COUNTER {
		return 0, fmt.Errorf("metric %s is not a counter", metricName)
	}
	for _, metric := range family.GetMetric() {
		if matchesLabels(metric, targetLabels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, nil
}

func matchesLabels(metric *dto.Metric, targetLabels map[string]string) bool {
	labels := make(map[string]string, len(metric.GetLabel()))
	for _, label := range metric.GetLabel() {
		labels[label.GetName()] = label.GetValue()
	}
	for name, value := range targetLabels {
		if labels[name] != value {
			return false
		}
	}
	return true
}
