// Package dnsprobe checks that the cluster DNS service answers queries.
package dnsprobe

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	"github.com/netinspect/k8s-netinspect/pkg/config"
	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/types"
)

// Checker queries the cluster DNS service through its ClusterIP.
type Checker struct {
	client kubernetes.Interface
	cfg    config.DNSConfig
	querier Querier
}

// NewChecker creates a Checker. A nil querier uses NewQuerier.
func NewChecker(client kubernetes.Interface, cfg config.DNSConfig, querier Querier) *Checker {
	if querier == nil {
		querier = NewQuerier()
	}
	return &Checker{client: client, cfg: cfg, querier: querier}
}

// Run looks up the DNS service and sends it one query. API failures other than a missing service
// are returned as errors; DNS failures are reported in the result.
func (c *Checker) Run(ctx context.Context) (*types.Result, error) {
	svc, err := c.client.CoreV1().Services(c.cfg.Namespace).Get(ctx, c.cfg.ServiceName, metav1.GetOptions{})
	if err != nil {
		if errkind.Is(errkind.ClassifyAPIError(err), errkind.NotFound) {
			return types.Unhealthy(ErrorCodeServiceNotFound,
				fmt.Sprintf("DNS service %s/%s not found", c.cfg.Namespace, c.cfg.ServiceName)), nil
		}
		return nil, errkind.ClassifyAPIError(err)
	}

	ip := svc.Spec.ClusterIP
	if ip == "" || ip == corev1.ClusterIPNone {
		return types.Unhealthy(ErrorCodeServiceNoClusterIP,
			fmt.Sprintf("DNS service %s/%s has no ClusterIP", c.cfg.Namespace, c.cfg.ServiceName)), nil
	}

	klog.V(2).InfoS("Querying cluster DNS", "service", c.cfg.ServiceName, "ip", ip, "domain", c.cfg.Domain)
	reply, err := c.querier.Query(ctx, ip, c.cfg.Domain, c.cfg.QueryTimeout)
	if err != nil {
		klog.V(1).InfoS("Cluster DNS query failed", "ip", ip, "err", err)
		return types.Unhealthy(ErrorCodeQueryFailed, fmt.Sprintf("cluster DNS %s did not answer: %v", ip, err)), nil
	}
	klog.V(2).InfoS("Cluster DNS answered", "ip", ip, "rcode", reply.Rcode, "answers", reply.Answers, "rtt", reply.RTT)
	return types.Healthy(fmt.Sprintf("cluster DNS %s answered (%s)", ip, reply)), nil
}
