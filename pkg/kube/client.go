// Package kube builds the Kubernetes API client shared by every step of a run.
package kube

import (
	"fmt"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/klog/v2"

	"github.com/netinspect/k8s-netinspect/pkg/errkind"
)

const userAgent = "k8s-netinspect"

// Options selects the kubeconfig and context used to reach the cluster.
type Options struct {
	// KubeconfigPath overrides the default loading rules when set.
	KubeconfigPath string
	// Context overrides the kubeconfig's current context when set.
	Context string
}

// RESTConfig loads a rest.Config from the kubeconfig.
func RESTConfig(opts Options) (*rest.Config, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if opts.KubeconfigPath != "" {
		loadingRules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: opts.KubeconfigPath}
	}
	kubeconfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{
			CurrentContext: opts.Context,
		},
	)
	restConfig, err := kubeconfig.ClientConfig()
	if err != nil {
		return nil, errkind.Wrap(errkind.ConfigurationError, err,
			fmt.Sprintf("Failed to load kubeconfig: %v", err))
	}
	restConfig.UserAgent = userAgent
	return restConfig, nil
}

// NewClientset creates the clientset for the cluster selected by opts.
func NewClientset(opts Options) (kubernetes.Interface, error) {
	restConfig, err := RESTConfig(opts)
	if err != nil {
		return nil, err
	}
	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, errkind.Wrap(errkind.ConnectionFailure, err,
			fmt.Sprintf("Failed to create Kubernetes client. Check kubeconfig and cluster connectivity: %v", err))
	}
	klog.V(2).InfoS("Created Kubernetes client", "host", restConfig.Host, "context", opts.Context)
	return clientset, nil
}
