package rbac

import "fmt"

const remediationBindingSubject = "--serviceaccount=<namespace>:<serviceaccount>"

// remediations holds the message returned when the list probe of a mandatory resource is forbidden.
var remediations = map[string]string{
	ResourceNodes: "Missing RBAC permission: 'nodes/list'. This permission is required to:\n" +
		"  • Analyze cluster network topology\n" +
		"  • Identify node-level network configurations\n" +
		"  • Debug cross-node pod communication\n" +
		"\nSolution: Grant cluster-level nodes access with:\n" +
		"  kubectl create clusterrole netinspect-nodes --verb=get,list --resource=nodes\n" +
		"  kubectl create clusterrolebinding netinspect-nodes --clusterrole=netinspect-nodes " + remediationBindingSubject,
	ResourcePods: "Missing RBAC permission: 'pods/list' and 'pods/get'. These permissions are required to:\n" +
		"  • List pods in namespaces for network analysis\n" +
		"  • Retrieve pod network configurations and IP addresses\n" +
		"  • Analyze pod-to-pod connectivity\n" +
		"\nSolution: Grant pod access with:\n" +
		"  kubectl create role netinspect-pods --verb=get,list --resource=pods\n" +
		"  kubectl create rolebinding netinspect-pods --role=netinspect-pods " + remediationBindingSubject + "\n" +
		"\nNote: Apply this in each namespace where you need to debug network issues.",
	ResourceServices: "Missing RBAC permission: 'services/list' and 'services/get'. These permissions are required to:\n" +
		"  • Analyze service network configurations\n" +
		"  • Debug service-to-pod connectivity\n" +
		"  • Inspect service endpoints and load balancing\n" +
		"\nSolution: Grant service access with:\n" +
		"  kubectl create role netinspect-services --verb=get,list --resource=services\n" +
		"  kubectl create rolebinding netinspect-services --role=netinspect-services " + remediationBindingSubject,
	ResourceEndpoints: "Missing RBAC permission: 'endpoints/list' and 'endpoints/get'. These permissions are required to:\n" +
		"  • Analyze service endpoint configurations\n" +
		"  • Debug service discovery issues\n" +
		"  • Inspect backend pod connectivity for services\n" +
		"\nSolution: Grant endpoints access with:\n" +
		"  kubectl create role netinspect-endpoints --verb=get,list --resource=endpoints\n" +
		"  kubectl create rolebinding netinspect-endpoints --role=netinspect-endpoints " + remediationBindingSubject,
	ResourceNamespaces: "Missing RBAC permission: 'namespaces/list' and 'namespaces/get'. These permissions are required to:\n" +
		"  • List available namespaces for network debugging\n" +
		"  • Validate namespace existence before operations\n" +
		"  • Support cross-namespace network analysis\n" +
		"\nSolution: Grant namespace access with:\n" +
		"  kubectl create clusterrole netinspect-namespaces --verb=get,list --resource=namespaces\n" +
		"  kubectl create clusterrolebinding netinspect-namespaces --clusterrole=netinspect-namespaces " + remediationBindingSubject,
}

const podsGetRemediation = "Missing RBAC permission: 'pods/get'. Required for detailed pod network analysis."

func missingPermission(resource, verb, namespace string, clusterScoped bool) string {
	if clusterScoped {
		return fmt.Sprintf("Missing RBAC permission: '%s/%s' (cluster-level)", resource, verb)
	}
	return fmt.Sprintf("Missing RBAC permission: '%s/%s' in namespace '%s'", resource, verb, namespace)
}
