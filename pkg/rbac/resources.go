package rbac

import (
	"context"

	"github.com/samber/lo"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// Resources that can be probed.
const (
	ResourceNodes      = "nodes"
	ResourcePods       = "pods"
	ResourceServices   = "services"
	ResourceEndpoints  = "endpoints"
	ResourceNamespaces = "namespaces"
)

// Verbs that can be probed.
const (
	VerbList = "list"
	VerbGet  = "get"
)

var (
	supportedResources = []string{ResourceNodes, ResourcePods, ResourceServices, ResourceEndpoints, ResourceNamespaces}
	supportedVerbs     = []string{VerbList, VerbGet}

	clusterScopedResources = []string{ResourceNodes, ResourceNamespaces}
)

func isClusterScoped(resource string) bool {
	return lo.Contains(clusterScopedResources, resource)
}

// resourceAPI exposes the two operations the prober needs for one resource kind.
type resourceAPI struct {
	clusterScoped bool
	// list returns the names of at most limit objects.
	list func(ctx context.Context, limit int64) ([]string, error)
	get  func(ctx context.Context, name string) error
}

// apiFor returns the list/get operations for resource. Namespaced resources are scoped to namespace.
func apiFor(client kubernetes.Interface, resource, namespace string) (resourceAPI, bool) {
	core := client.CoreV1()
	switch resource {
	case ResourceNodes:
		return resourceAPI{
			clusterScoped: true,
			list: func(ctx context.Context, limit int64) ([]string, error) {
				l, err := core.Nodes().List(ctx, metav1.ListOptions{Limit: limit})
				if err != nil {
					return nil, err
				}
				return lo.Map(l.Items, func(n corev1.Node, _ int) string { return n.Name }), nil
			},
			get: func(ctx context.Context, name string) error {
				_, err := core.Nodes().Get(ctx, name, metav1.GetOptions{})
				return err
			},
		}, true
	case ResourcePods:
		return resourceAPI{
			list: func(ctx context.Context, limit int64) ([]string, error) {
				l, err := core.Pods(namespace).List(ctx, metav1.ListOptions{Limit: limit})
				if err != nil {
					return nil, err
				}
				return lo.Map(l.Items, func(p corev1.Pod, _ int) string { return p.Name }), nil
			},
			get: func(ctx context.Context, name string) error {
				_, err := core.Pods(namespace).Get(ctx, name, metav1.GetOptions{})
				return err
			},
		}, true
	case ResourceServices:
		return resourceAPI{
			list: func(ctx context.Context, limit int64) ([]string, error) {
				l, err := core.Services(namespace).List(ctx, metav1.ListOptions{Limit: limit})
				if err != nil {
					return nil, err
				}
				return lo.Map(l.Items, func(s corev1.Service, _ int) string { return s.Name }), nil
			},
			get: func(ctx context.Context, name string) error {
				_, err := core.Services(namespace).Get(ctx, name, metav1.GetOptions{})
				return err
			},
		}, true
	case ResourceEndpoints:
		return resourceAPI{
			list: func(ctx context.Context, limit int64) ([]string, error) {
				l, err := core.Endpoints(namespace).List(ctx, metav1.ListOptions{Limit: limit})
				if err != nil {
					return nil, err
				}
				return lo.Map(l.Items, func(e corev1.Endpoints, _ int) string { return e.Name }), nil
			},
			get: func(ctx context.Context, name string) error {
				_, err := core.Endpoints(namespace).Get(ctx, name, metav1.GetOptions{})
				return err
			},
		}, true
	case ResourceNamespaces:
		return resourceAPI{
			clusterScoped: true,
			list: func(ctx context.Context, limit int64) ([]string, error) {
				l, err := core.Namespaces().List(ctx, metav1.ListOptions{Limit: limit})
				if err != nil {
					return nil, err
				}
				return lo.Map(l.Items, func(n corev1.Namespace, _ int) string { return n.Name }), nil
			},
			get: func(ctx context.Context, name string) error {
				_, err := core.Namespaces().Get(ctx, name, metav1.GetOptions{})
				return err
			},
		}, true
	default:
		return resourceAPI{}, false
	}
}
