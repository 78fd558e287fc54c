//go:build e2e

package e2e

import (
	"context"
	"os/exec"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"

	"github.com/netinspect/k8s-netinspect/pkg/kube"
)

const (
	kubesystem         = "kube-system"
	commandTimeout     = 2 * time.Minute
	coreDNSLabel       = "k8s-app=kube-dns"
	kindClusterContext = "kind-" + kindClusterName
)

// run executes cmd and returns its combined output.
func run(cmd *exec.Cmd) ([]byte, error) {
	GinkgoWriter.Printf("Running: %s\n", cmd.String())
	return cmd.CombinedOutput()
}

func kubeContext() string {
	if skipClusterSetup {
		return ""
	}
	return kindClusterContext
}

func getKubeClient() (kubernetes.Interface, error) {
	return kube.NewClientset(kube.Options{Context: kubeContext()})
}

func getCoreDNSPodList(clientset kubernetes.Interface) (*corev1.PodList, error) {
	return clientset.CoreV1().Pods(kubesystem).List(context.TODO(), metav1.ListOptions{LabelSelector: coreDNSLabel})
}

// runNetinspect runs the built binary against the test cluster and waits for it to exit.
func runNetinspect(args ...string) *gexec.Session {
	if ctx := kubeContext(); ctx != "" {
		args = append([]string{"--context", ctx, "--no-color"}, args...)
	}
	cmd := exec.Command(netinspectPath, args...)
	session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
	Expect(err).NotTo(HaveOccurred(), "Failed to start k8s-netinspect")
	Eventually(session, commandTimeout).Should(gexec.Exit())
	return session
}
