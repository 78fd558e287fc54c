//go:build e2e

package e2e

import (
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"

	"github.com/netinspect/k8s-netinspect/pkg/diagnose"
	"github.com/netinspect/k8s-netinspect/pkg/metrics"
)

var _ = Describe("diagnose", func() {
	It("should report the cluster network", func() {
		metricsFile := filepath.Join(GinkgoT().TempDir(), "diagnose.prom")
		session := runNetinspect("diagnose", "--metrics-file", metricsFile)
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("CNI detected:"))
		Expect(session.Out).To(gbytes.Say(`Found \d+ nodes`))
		Expect(session.Out).To(gbytes.Say(`Found \d+ pods cluster-wide`))
		Expect(session.Out).To(gbytes.Say("Diagnosis completed"))

		By("Checking the exported step results")
		families, err := readMetricsFile(metricsFile)
		Expect(err).NotTo(HaveOccurred())
		for _, step := range []string{diagnose.StepPermissions, diagnose.StepCNI, diagnose.StepNodes, diagnose.StepPods} {
			value, err := getCounterMetricValue(families, stepResultMetricName, map[string]string{
				"step":       step,
				"outcome":    "ok",
				"error_code": metrics.OKCode,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(value).To(BeNumerically("==", 1), "step %s was not reported ok", step)
		}
		denied, err := getCounterMetricValue(families, permissionProbeMetricName, map[string]string{"status": metrics.DeniedStatus})
		Expect(err).NotTo(HaveOccurred())
		Expect(denied).To(BeZero())
	})

	It("should count pods of one namespace", func() {
		session := runNetinspect("diagnose", "-n", kubesystem)
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say(`Found \d+ pods in namespace 'kube-system'`))
	})

	It("should check cluster DNS when asked", func() {
		session := runNetinspect("diagnose", "--check-dns")
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("Cluster DNS"))
		Expect(session.Out).To(gbytes.Say("Diagnosis completed"))
	})

	It("should fail for a namespace that does not exist", func() {
		session := runNetinspect("diagnose", "-n", "netinspect-missing")
		Expect(session).To(gexec.Exit(4))
		Expect(session.Err).To(gbytes.Say("Namespace 'netinspect-missing' does not exist in the cluster"))
	})

	It("should reject an invalid namespace before contacting the cluster", func() {
		session := runNetinspect("diagnose", "-n", "Not_Valid")
		Expect(session).To(gexec.Exit(2))
		Expect(session.Err).To(gbytes.Say("Invalid Input"))
	})
})
