package dnsprobe

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/onsi/gomega"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes/fake"
	ktesting "k8s.io/client-go/testing"

	"github.com/netinspect/k8s-netinspect/pkg/config"
	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/types"
)

type fakeQuerier struct {
	reply  Reply
	err    error
	called []string
}

func (f *fakeQuerier) Query(_ context.Context, server, domain string, _ time.Duration) (Reply, error) {
	f.called = append(f.called, server+" "+domain)
	return f.reply, f.err
}

func createKubeDNSService(clusterIP string) *corev1.Service {
	return &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Name: "kube-dns", Namespace: "kube-system"},
		Spec:       corev1.ServiceSpec{ClusterIP: clusterIP},
	}
}

func TestCheckerRun(t *testing.T) {
	tests := []struct {
		name           string
		service        *corev1.Service
		queryErr       error
		setupReactors  func(*fake.Clientset)
		expectedStatus types.Status
		expectedCode   string
		expectedKind   *errkind.Kind
		expectedMsg    string
		expectQuery    bool
	}{
		{
			name:           "dns answers",
			service:        createKubeDNSService("10.0.0.10"),
			expectedStatus: types.StatusHealthy,
			expectedMsg:    "cluster DNS 10.0.0.10 answered (NXDOMAIN, 0 answers, 2ms)",
			expectQuery:    true,
		},
		{
			name:           "dns does not answer",
			service:        createKubeDNSService("10.0.0.10"),
			queryErr:       errors.New("i/o timeout"),
			expectedStatus: types.StatusUnhealthy,
			expectedCode:   ErrorCodeQueryFailed,
			expectedMsg:    "cluster DNS 10.0.0.10 did not answer: i/o timeout",
			expectQuery:    true,
		},
		{
			name:           "service missing",
			expectedStatus: types.StatusUnhealthy,
			expectedCode:   ErrorCodeServiceNotFound,
		},
		{
			name:           "headless service",
			service:        createKubeDNSService(corev1.ClusterIPNone),
			expectedStatus: types.StatusUnhealthy,
			expectedCode:   ErrorCodeServiceNoClusterIP,
		},
		{
			name:    "service lookup forbidden",
			service: createKubeDNSService("10.0.0.10"),
			setupReactors: func(c *fake.Clientset) {
				c.PrependReactor("get", "services", func(action ktesting.Action) (bool, runtime.Object, error) {
					return true, nil, apierrors.NewForbidden(schema.GroupResource{Resource: "services"}, "kube-dns", errors.New("denied"))
				})
			},
			expectedKind: func() *errkind.Kind { k := errkind.PermissionDenied; return &k }(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			var objects []runtime.Object
			if tt.service != nil {
				objects = append(objects, tt.service)
			}
			clientset := fake.NewSimpleClientset(objects...)
			if tt.setupReactors != nil {
				tt.setupReactors(clientset)
			}
			querier := &fakeQuerier{err: tt.queryErr, reply: Reply{Rcode: "NXDOMAIN", RTT: 2 * time.Millisecond}}

			result, err := NewChecker(clientset, config.Default().DNS, querier).Run(context.Background())
			if tt.expectedKind != nil {
				g.Expect(errkind.KindOf(err)).To(Equal(*tt.expectedKind))
				g.Expect(result).To(BeNil())
				return
			}
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(result.Status).To(Equal(tt.expectedStatus))
			g.Expect(result.Detail.Code).To(Equal(tt.expectedCode))
			if tt.expectedMsg != "" {
				g.Expect(result.Detail.Message).To(Equal(tt.expectedMsg))
			}
			if tt.expectQuery {
				g.Expect(querier.called).To(Equal([]string{"10.0.0.10 kubernetes.default.svc.cluster.local"}))
			} else {
				g.Expect(querier.called).To(BeEmpty())
			}
		})
	}
}
