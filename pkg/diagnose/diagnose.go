// Package diagnose sequences the diagnosis steps of k8s-netinspect. Every step runs under its own
// deadline and is recorded with an explicit outcome: ok, degraded (the run continues) or fatal.
package diagnose

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	"github.com/netinspect/k8s-netinspect/pkg/cni"
	"github.com/netinspect/k8s-netinspect/pkg/config"
	"github.com/netinspect/k8s-netinspect/pkg/connectivity"
	"github.com/netinspect/k8s-netinspect/pkg/dnsprobe"
	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/metrics"
	"github.com/netinspect/k8s-netinspect/pkg/rbac"
	"github.com/netinspect/k8s-netinspect/pkg/types"
	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

// PodTester checks that a pod address answers.
type PodTester interface {
	Test(ctx context.Context, address string, maxAttempts int) error
}

// DNSChecker checks the cluster DNS service.
type DNSChecker interface {
	Run(ctx context.Context) (*types.Result, error)
}

// Observer is told about every step as soon as it completes.
type Observer interface {
	StepCompleted(rec types.StepRecord)
}

type noopObserver struct{}

func (noopObserver) StepCompleted(types.StepRecord) {}

// Diagnoser runs diagnoses and pod tests against one cluster.
type Diagnoser struct {
	client   kubernetes.Interface
	cfg      *config.Config
	prober   *rbac.Prober
	tester   PodTester
	dns      DNSChecker
	observer Observer
}

// Option customizes a Diagnoser.
type Option func(*Diagnoser)

// WithPodTester replaces the connectivity tester.
func WithPodTester(t PodTester) Option {
	return func(d *Diagnoser) {
		d.tester = t
	}
}

// WithDNSChecker replaces the cluster DNS checker.
func WithDNSChecker(c DNSChecker) Option {
	return func(d *Diagnoser) {
		d.dns = c
	}
}

// WithObserver registers an observer for completed steps.
func WithObserver(o Observer) Option {
	return func(d *Diagnoser) {
		d.observer = o
	}
}

// New creates a Diagnoser.
func New(client kubernetes.Interface, cfg *config.Config, opts ...Option) *Diagnoser {
	d := &Diagnoser{
		client:   client,
		cfg:      cfg,
		prober:   rbac.NewProber(client, cfg.Permissions.ProbeNamespace),
		tester:   connectivity.NewTester(cfg.Connectivity),
		dns:      dnsprobe.NewChecker(client, cfg.DNS, nil),
		observer: noopObserver{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Prober returns the permission prober used for pre-flight checks.
func (d *Diagnoser) Prober() *rbac.Prober {
	return d.prober
}

// Preflight validates RBAC access and, when namespace is set, that the namespace exists.
// It must pass before Diagnose or TestPod touch the cluster.
func (d *Diagnoser) Preflight(ctx context.Context, namespace string) error {
	var log types.StepLog

	start := time.Now()
	if err := d.prober.ValidateAccess(ctx); err != nil {
		d.record(&log, StepPermissions, types.OutcomeFatal, failed(ErrorCodePermissionDenied, err), start)
		return err
	}
	d.record(&log, StepPermissions, types.OutcomeOK,
		types.Healthy(fmt.Sprintf("%d permission probes allowed", len(d.prober.Results()))), start)

	if namespace == "" {
		return nil
	}
	start = time.Now()
	if err := d.prober.ValidateNamespaceExists(ctx, namespace); err != nil {
		d.record(&log, StepNamespace, types.OutcomeFatal, failed(ErrorCodeNamespaceUnavailable, err), start)
		return err
	}
	d.record(&log, StepNamespace, types.OutcomeOK, types.Healthy(fmt.Sprintf("Namespace '%s' exists", namespace)), start)
	return nil
}

// Diagnose inspects the cluster. Node listing with CNI detection and node counting must succeed;
// pod counting and the optional DNS check only degrade the report. An empty namespace counts pods
// cluster-wide. The returned report is never nil.
func (d *Diagnoser) Diagnose(ctx context.Context, namespace string) (*types.DiagnosisReport, error) {
	report := &types.DiagnosisReport{}
	if namespace != "" {
		if err := validation.ValidateNamespace(namespace); err != nil {
			return report, err
		}
	}
	klog.InfoS("Starting network diagnosis", "namespace", namespace)

	// Step 1: CNI detection from the node list.
	start := time.Now()
	nodes, err := runWithTimeout(ctx, d.cfg.Diagnose.NodeListTimeout, "CNI detection",
		func(ctx context.Context) ([]corev1.Node, error) {
			list, err := d.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
			if err != nil {
				return nil, errkind.ClassifyAPIError(err)
			}
			return list.Items, nil
		})
	if err != nil {
		d.record(&report.StepLog, StepCNI, types.OutcomeFatal, failed(ErrorCodeNodeListFailed, err), start)
		return report, err
	}
	classification := cni.Detect(nodes)
	report.CNI = classification.Name
	report.CNIEvidence = classification.Evidence
	d.record(&report.StepLog, StepCNI, types.OutcomeOK,
		types.Healthy(fmt.Sprintf("CNI detected: %s", classification.Name)), start)

	// Step 2: node count.
	start = time.Now()
	nodeCount, err := runWithTimeout(ctx, d.cfg.Diagnose.NodeCountTimeout, "Node listing",
		func(ctx context.Context) (int, error) {
			list, err := d.client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
			if err != nil {
				return 0, errkind.ClassifyAPIError(err)
			}
			return len(list.Items), nil
		})
	if err != nil {
		d.record(&report.StepLog, StepNodes, types.OutcomeFatal, failed(ErrorCodeNodeCountFailed, err), start)
		return report, err
	}
	report.NodeCount = nodeCount
	if nodeCount == 0 {
		d.record(&report.StepLog, StepNodes, types.OutcomeOK, types.Unknown(ErrorCodeNoNodes, "No nodes found in cluster"), start)
	} else {
		d.record(&report.StepLog, StepNodes, types.OutcomeOK, types.Healthy(fmt.Sprintf("Found %d nodes", nodeCount)), start)
	}

	// Step 3: pod count. Failures only degrade the report.
	start = time.Now()
	podCount, err := runWithTimeout(ctx, d.cfg.Diagnose.PodCountTimeout, "Pod listing",
		func(ctx context.Context) (int, error) {
			list, err := d.client.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
			if err != nil {
				return 0, errkind.ClassifyAPIError(err)
			}
			return len(list.Items), nil
		})
	if err != nil {
		klog.V(1).InfoS("Pod count failed, continuing", "namespace", namespace, "err", err)
		d.record(&report.StepLog, StepPods, types.OutcomeDegraded,
			types.Degraded(ErrorCodePodCountFailed, fmt.Sprintf("Failed to check pods: %v", err)), start)
	} else {
		report.PodCount = &podCount
		msg := fmt.Sprintf("Found %d pods cluster-wide", podCount)
		if namespace != "" {
			ns := namespace
			report.NamespaceScope = &ns
			msg = fmt.Sprintf("Found %d pods in namespace '%s'", podCount, namespace)
		}
		d.record(&report.StepLog, StepPods, types.OutcomeOK, types.Healthy(msg), start)
	}

	// Step 4: cluster DNS, when enabled. Failures only degrade the report.
	if d.cfg.Diagnose.CheckDNS {
		start = time.Now()
		result, err := runWithTimeout(ctx, d.cfg.Diagnose.DNSTimeout, "Cluster DNS check", d.dns.Run)
		switch {
		case err != nil:
			report.DNS = types.Degraded(ErrorCodeDNSCheckFailed, fmt.Sprintf("Failed to check cluster DNS: %v", err))
			d.record(&report.StepLog, StepDNS, types.OutcomeDegraded, report.DNS, start)
		case result.Status != types.StatusHealthy:
			report.DNS = types.Degraded(result.Detail.Code, result.Detail.Message)
			d.record(&report.StepLog, StepDNS, types.OutcomeDegraded, report.DNS, start)
		default:
			report.DNS = result
			d.record(&report.StepLog, StepDNS, types.OutcomeOK, result, start)
		}
	}

	klog.InfoS("Network diagnosis completed", "cni", report.CNI, "nodes", report.NodeCount, "degraded", report.Degraded())
	return report, nil
}

// record appends a step to log, exports its metrics and notifies the observer.
func (d *Diagnoser) record(log *types.StepLog, name string, outcome types.Outcome, result *types.Result, start time.Time) {
	elapsed := time.Since(start)
	rec := log.AddStep(name, outcome, result, elapsed)

	code := metrics.OKCode
	if result != nil && result.Detail.Code != "" {
		code = result.Detail.Code
	}
	metrics.StepResultCounter.WithLabelValues(name, string(outcome), code).Inc()
	metrics.StepDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	klog.V(2).InfoS("Step completed", "step", name, "outcome", outcome, "duration", elapsed)
	d.observer.StepCompleted(rec)
}

// failed builds the result of a fatal step from its error.
func failed(code string, err error) *types.Result {
	msg := err.Error()
	if e, ok := errkind.As(err); ok {
		msg = e.Message()
	}
	return types.Unhealthy(code, msg)
}
