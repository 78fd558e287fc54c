//go:build e2e

package e2e

import (
	"context"
	"os/exec"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gbytes"
	"github.com/onsi/gomega/gexec"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const rbacTestNamespace = "netinspect-rbac"

var _ = Describe("permissions", Ordered, func() {
	It("should allow the admin to list and get pods", func() {
		session := runNetinspect("check-permission", "--resource", "pods", "--verb", "list,get", "-n", kubesystem)
		Expect(session).To(gexec.Exit(0))
		Expect(session.Out).To(gbytes.Say("pods/list"))
		Expect(session.Out).To(gbytes.Say("pods/get"))
	})

	It("should reject an unsupported verb", func() {
		session := runNetinspect("check-permission", "--resource", "pods", "--verb", "delete")
		Expect(session).To(gexec.Exit(2))
		Expect(session.Err).To(gbytes.Say("Unsupported verb 'delete'"))
	})

	It("should apply the generated RBAC setup script", func() {
		ns := &corev1.Namespace{ObjectMeta: metav1.ObjectMeta{Name: rbacTestNamespace}}
		_, err := clientset.CoreV1().Namespaces().Create(context.TODO(), ns, metav1.CreateOptions{})
		Expect(err).NotTo(HaveOccurred(), "Failed to create namespace")
		DeferCleanup(func() {
			err := clientset.CoreV1().Namespaces().Delete(context.TODO(), rbacTestNamespace, metav1.DeleteOptions{})
			Expect(err).NotTo(HaveOccurred())
			err = clientset.RbacV1().ClusterRoleBindings().Delete(context.TODO(), "k8s-netinspect-cluster", metav1.DeleteOptions{})
			Expect(err).NotTo(HaveOccurred())
			err = clientset.RbacV1().ClusterRoles().Delete(context.TODO(), "k8s-netinspect-cluster", metav1.DeleteOptions{})
			Expect(err).NotTo(HaveOccurred())
		})

		session := runNetinspect("rbac-manifest", "--service-account", "netinspect", "-n", rbacTestNamespace)
		Expect(session).To(gexec.Exit(0))

		By("Running the setup script")
		// kind create cluster switches the current context, so kubectl in the script targets it.
		cmd := exec.Command("bash")
		cmd.Stdin = strings.NewReader(string(session.Out.Contents()))
		output, err := run(cmd)
		Expect(err).NotTo(HaveOccurred(), "Setup script failed: %s", string(output))

		_, err = clientset.CoreV1().ServiceAccounts(rbacTestNamespace).Get(context.TODO(), "netinspect", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		_, err = clientset.RbacV1().ClusterRoles().Get(context.TODO(), "k8s-netinspect-cluster", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		binding, err := clientset.RbacV1().RoleBindings(rbacTestNamespace).Get(context.TODO(), "k8s-netinspect-namespace", metav1.GetOptions{})
		Expect(err).NotTo(HaveOccurred())
		Expect(binding.Subjects).To(ContainElement(HaveField("Name", "netinspect")))
	})
})
