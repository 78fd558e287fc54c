//go:build e2e

package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/kubectl/pkg/util/podutils"
)

const testPodNamespace = "default"

func createTestPod(name string, nodeSelector map[string]string) *corev1.Pod {
	pod := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Name:      name,
			Namespace: testPodNamespace,
			Labels:    map[string]string{"app": "k8s-netinspect-e2e"},
		},
		Spec: corev1.PodSpec{
			NodeSelector: nodeSelector,
			Containers: []corev1.Container{{
				Name:  "web",
				Image: "nginx:1.27-alpine",
				Ports: []corev1.ContainerPort{{ContainerPort: 80}},
			}},
		},
	}
	created, err := clientset.CoreV1().Pods(testPodNamespace).Create(context.TODO(), pod, metav1.CreateOptions{})
	Expect(err).NotTo(HaveOccurred(), "Failed to create pod %s", name)
	DeferCleanup(func() {
		By("Deleting pod " + name)
		err := clientset.CoreV1().Pods(testPodNamespace).Delete(context.TODO(), name, metav1.DeleteOptions{})
		Expect(err).NotTo(HaveOccurred(), "Failed to delete pod %s", name)
	})
	return created
}

var _ = Describe("test-pod", func() {
	It("should probe a running pod", func() {
		createTestPod("netinspect-web", nil)

		By("Waiting for the pod to become ready")
		var ip string
		Eventually(func() bool {
			pod, err := clientset.CoreV1().Pods(testPodNamespace).Get(context.TODO(), "netinspect-web", metav1.GetOptions{})
			if err != nil {
				return false
			}
			ip = pod.Status.PodIP
			return podutils.IsPodReady(pod) && ip != ""
		}, "120s", "2s").Should(BeTrue(), "Pod did not become ready")

		session := runNetinspect("test-pod", "-p", "netinspect-web")
		// Pod IPs are only routable from the test host on some setups, so both outcomes are valid.
		Eventually(session).Should(gexec.Exit())
		Expect(session.ExitCode()).To(BeElementOf(0, 4))
		Expect(session.Out).To(gbytes.Say("│ default/netinspect-web"))
		Expect(string(session.Out.Contents())).To(ContainSubstring(ip))
		if session.ExitCode() == 4 {
			Expect(session.Err).To(gbytes.Say("Network Error|Timeout"))
		}
	})

	It("should not probe a pending pod", func() {
		createTestPod("netinspect-pending", map[string]string{"k8s-netinspect/unschedulable": "true"})

		Eventually(func() corev1.PodPhase {
			pod, err := clientset.CoreV1().Pods(testPodNamespace).Get(context.TODO(), "netinspect-pending", metav1.GetOptions{})
			if err != nil {
				return ""
			}
			return pod.Status.Phase
		}, 30*time.Second, time.Second).Should(Equal(corev1.PodPending))

		session := runNetinspect("test-pod", "-p", "netinspect-pending")
		Expect(session).To(gexec.Exit(4))
		Expect(session.Err).To(gbytes.Say("Pod is pending and has no IP address yet"))
	})

	It("should fail for a pod that does not exist", func() {
		session := runNetinspect("test-pod", "-p", "netinspect-missing", "-n", kubesystem)
		Expect(session).To(gexec.Exit(4))
		Expect(session.Err).To(gbytes.Say("Pod 'netinspect-missing' not found in namespace 'kube-system'"))
	})
})
