package diagnose

import (
	"context"
	"fmt"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/klog/v2"
	"k8s.io/kubectl/pkg/util/podutils"

	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/types"
	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

// TestPod fetches a pod, checks that it is in a testable state and probes its IP over HTTP.
// Pods that are pending, finished or have no IP fail with NotFound without being probed.
func (d *Diagnoser) TestPod(ctx context.Context, name, namespace string) (*types.PodReport, error) {
	report := &types.PodReport{Pod: name, Namespace: namespace}
	if err := validation.ValidatePodName(name); err != nil {
		return report, err
	}
	if err := validation.ValidateNamespace(namespace); err != nil {
		return report, err
	}
	klog.InfoS("Testing pod connectivity", "pod", klog.KRef(namespace, name))

	start := time.Now()
	pod, err := runWithTimeout(ctx, d.cfg.Diagnose.PodGetTimeout, "Pod lookup",
		func(ctx context.Context) (*corev1.Pod, error) {
			pod, err := d.client.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
			if err != nil {
				classified := errkind.ClassifyAPIError(err)
				if classified.Kind() == errkind.NotFound {
					return nil, errkind.Wrap(errkind.NotFound, err,
						fmt.Sprintf("Pod '%s' not found in namespace '%s'", name, namespace))
				}
				return nil, classified
			}
			return pod, nil
		})
	if err != nil {
		d.record(&report.StepLog, StepPodLookup, types.OutcomeFatal, failed(ErrorCodePodLookupFailed, err), start)
		return report, err
	}
	d.record(&report.StepLog, StepPodLookup, types.OutcomeOK, types.Healthy(fmt.Sprintf("Found pod %s/%s", namespace, name)), start)

	start = time.Now()
	ip, err := checkPodStatus(pod, report)
	if err != nil {
		d.record(&report.StepLog, StepPodStatus, types.OutcomeFatal, failed(ErrorCodePodNotTestable, err), start)
		return report, err
	}
	d.record(&report.StepLog, StepPodStatus, types.OutcomeOK,
		types.Healthy(fmt.Sprintf("Pod is %s with IP %s", report.Phase, ip)), start)

	start = time.Now()
	if err := d.tester.Test(ctx, ip, d.cfg.Connectivity.Attempts); err != nil {
		report.Connectivity = failed(ErrorCodePodUnreachable, err)
		d.record(&report.StepLog, StepConnectivity, types.OutcomeFatal, report.Connectivity, start)
		return report, err
	}
	report.Connectivity = types.Healthy("PASS")
	d.record(&report.StepLog, StepConnectivity, types.OutcomeOK, report.Connectivity, start)
	return report, nil
}

// checkPodStatus returns the IP to probe, or a NotFound error when the pod cannot be tested.
func checkPodStatus(pod *corev1.Pod, report *types.PodReport) (string, error) {
	phase := pod.Status.Phase
	report.Phase = string(phase)

	switch phase {
	case "":
		return "", errkind.Newf(errkind.NotFound,
			"Pod '%s' has no status information - it may be initializing", pod.Name)
	case corev1.PodPending:
		return "", errkind.New(errkind.NotFound, "Pod is pending and has no IP address yet")
	case corev1.PodFailed, corev1.PodSucceeded:
		return "", errkind.Newf(errkind.NotFound, "Pod is in %s phase and cannot be tested", phase)
	case corev1.PodRunning:
		if !podutils.IsPodReady(pod) {
			report.Notes = append(report.Notes, "Pod is running but not all containers are ready")
		}
	default:
		report.Notes = append(report.Notes, fmt.Sprintf("Pod phase: %s", phase))
	}

	ip := pod.Status.PodIP
	if ip == "" {
		return "", errkind.Newf(errkind.NotFound,
			"Pod '%s' has no IP address assigned - check if it's running", pod.Name)
	}
	if err := validation.ValidatePodIP(ip); err != nil {
		return "", err
	}
	report.IP = ip
	return ip, nil
}
