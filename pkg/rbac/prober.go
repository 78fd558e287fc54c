// Package rbac probes the RBAC permissions k8s-netinspect needs by issuing minimal read requests
// against the Kubernetes API.
package rbac

import (
	"context"
	"fmt"
	"net/http"

	"github.com/samber/lo"
	"k8s.io/client-go/kubernetes"
	"k8s.io/klog/v2"

	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/metrics"
	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

// ProbeResult records one permission probe.
type ProbeResult struct {
	Resource  string
	Verb      string
	Namespace string
	Allowed   bool
}

type mandatoryProbe struct {
	resource string
	// checkGet also probes get on the first listed object.
	checkGet bool
}

// mandatoryProbes run in this order. The first forbidden probe stops the validation.
var mandatoryProbes = []mandatoryProbe{
	{resource: ResourceNodes},
	{resource: ResourcePods, checkGet: true},
	{resource: ResourceServices},
	{resource: ResourceEndpoints},
	{resource: ResourceNamespaces},
}

// Prober checks RBAC permissions against the cluster.
type Prober struct {
	client kubernetes.Interface
	// namespace scopes the namespaced probes of ValidateAccess.
	namespace string
	results   []ProbeResult
}

// NewProber creates a Prober. Namespaced mandatory probes are issued in namespace.
func NewProber(client kubernetes.Interface, namespace string) *Prober {
	return &Prober{client: client, namespace: namespace}
}

// Results returns every probe issued so far, in order.
func (p *Prober) Results() []ProbeResult {
	return p.results
}

// ValidateAccess checks the permissions every command depends on. It stops at the first
// forbidden probe and returns a PermissionDenied error with remediation steps for that resource.
func (p *Prober) ValidateAccess(ctx context.Context) error {
	klog.V(1).InfoS("Validating RBAC permissions", "namespace", p.namespace)
	for _, probe := range mandatoryProbes {
		api, _ := apiFor(p.client, probe.resource, p.namespace)
		names, err := api.list(ctx, 1)
		p.record(probe.resource, VerbList, p.namespace, err)
		if err != nil {
			if isForbidden(err) {
				return errkind.Wrap(errkind.PermissionDenied, err, remediations[probe.resource])
			}
			return errkind.ClassifyAPIError(err)
		}

		if !probe.checkGet || len(names) == 0 {
			continue
		}
		err = api.get(ctx, names[0])
		if isNotFound(err) {
			// The object vanished between list and get; the get itself was authorized.
			err = nil
		}
		p.record(probe.resource, VerbGet, p.namespace, err)
		if err != nil {
			if isForbidden(err) {
				return errkind.Wrap(errkind.PermissionDenied, err, podsGetRemediation)
			}
			return errkind.ClassifyAPIError(err)
		}
	}
	klog.V(1).InfoS("RBAC permissions validated", "probes", len(p.results))
	return nil
}

// ValidateSpecificPermission probes each verb on resource in namespace. Input is checked before any
// request is made. A get probe lists first to find a live object; an empty list counts as success.
func (p *Prober) ValidateSpecificPermission(ctx context.Context, resource string, verbs []string, namespace string) error {
	api, ok := apiFor(p.client, resource, namespace)
	if !ok {
		return errkind.Newf(errkind.InvalidInput,
			"Unsupported resource '%s' for permission validation. Supported: %v", resource, supportedResources)
	}
	if len(verbs) == 0 {
		return errkind.New(errkind.InvalidInput, "At least one verb is required for permission validation")
	}
	if unsupported, found := lo.Find(verbs, func(v string) bool { return !lo.Contains(supportedVerbs, v) }); found {
		return errkind.Newf(errkind.InvalidInput,
			"Unsupported verb '%s' for resource validation. Supported: %v", unsupported, supportedVerbs)
	}
	if !api.clusterScoped {
		if err := validation.ValidateNamespace(namespace); err != nil {
			return err
		}
	}

	for _, verb := range verbs {
		if err := p.probeVerb(ctx, api, resource, verb, namespace); err != nil {
			return err
		}
	}
	return nil
}

func (p *Prober) probeVerb(ctx context.Context, api resourceAPI, resource, verb, namespace string) error {
	denied := func(deniedVerb string, err error) error {
		return errkind.Wrap(errkind.PermissionDenied, err,
			missingPermission(resource, deniedVerb, namespace, api.clusterScoped))
	}

	names, err := api.list(ctx, 1)
	if verb == VerbList || err != nil {
		// A get probe needs a listed object, so a failed list fails it too.
		p.record(resource, VerbList, namespace, err)
	}
	if err != nil {
		if isForbidden(err) {
			return denied(VerbList, err)
		}
		return errkind.ClassifyAPIError(err)
	}
	if verb == VerbList {
		return nil
	}

	if len(names) == 0 {
		klog.V(2).InfoS("No object to probe get against, assuming allowed", "resource", resource, "namespace", namespace)
		p.record(resource, VerbGet, namespace, nil)
		return nil
	}
	err = api.get(ctx, names[0])
	if isNotFound(err) {
		err = nil
	}
	p.record(resource, VerbGet, namespace, err)
	if err != nil {
		if isForbidden(err) {
			return denied(VerbGet, err)
		}
		return errkind.ClassifyAPIError(err)
	}
	return nil
}

// ValidateNamespaceExists checks that namespace exists and can be read.
func (p *Prober) ValidateNamespaceExists(ctx context.Context, namespace string) error {
	if err := validation.ValidateNamespace(namespace); err != nil {
		return err
	}
	api, _ := apiFor(p.client, ResourceNamespaces, "")
	err := api.get(ctx, namespace)
	p.record(ResourceNamespaces, VerbGet, "", err)
	switch {
	case err == nil:
		return nil
	case isNotFound(err):
		return errkind.Wrap(errkind.NotFound, err, fmt.Sprintf(
			"Namespace '%s' does not exist in the cluster. Use 'kubectl get namespaces' to list available namespaces", namespace))
	case isForbidden(err):
		return errkind.Wrap(errkind.PermissionDenied, err,
			"Missing RBAC permission: 'namespaces/get'. Cannot validate namespace existence")
	default:
		return errkind.ClassifyAPIError(err)
	}
}

func (p *Prober) record(resource, verb, namespace string, err error) {
	allowed := err == nil
	p.results = append(p.results, ProbeResult{
		Resource:  resource,
		Verb:      verb,
		Namespace: namespace,
		Allowed:   allowed,
	})
	// A forbidden response is a definite denial; anything else is an error.
	var probeErr error
	if err != nil && !isForbidden(err) {
		probeErr = err
	}
	metrics.ObserveProbe(resource, verb, allowed, probeErr)
	if err != nil {
		klog.V(1).InfoS("Permission probe failed", "resource", resource, "verb", verb, "err", err)
		return
	}
	klog.V(3).InfoS("Permission probe allowed", "resource", resource, "verb", verb)
}

func isForbidden(err error) bool {
	code, ok := errkind.StatusCode(err)
	return ok && code == http.StatusForbidden
}

func isNotFound(err error) bool {
	code, ok := errkind.StatusCode(err)
	return ok && code == http.StatusNotFound
}
