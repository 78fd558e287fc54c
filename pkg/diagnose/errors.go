package diagnose

// Step names
const (
	StepPermissions  = "permissions"
	StepNamespace    = "namespace"
	StepCNI          = "cni"
	StepNodes        = "nodes"
	StepPods         = "pods"
	StepDNS          = "dns"
	StepPodLookup    = "pod-lookup"
	StepPodStatus    = "pod-status"
	StepConnectivity = "connectivity"
)

// Error codes for step results
const (
	// ErrorCodePermissionDenied indicates a required RBAC permission is missing
	ErrorCodePermissionDenied = "PermissionDenied"

	// ErrorCodeNamespaceUnavailable indicates the requested namespace cannot be used
	ErrorCodeNamespaceUnavailable = "NamespaceUnavailable"

	// ErrorCodeNodeListFailed indicates nodes could not be listed for CNI detection
	ErrorCodeNodeListFailed = "NodeListFailed"

	// ErrorCodeNodeCountFailed indicates nodes could not be counted
	ErrorCodeNodeCountFailed = "NodeCountFailed"

	// ErrorCodeNoNodes indicates the cluster reported no nodes
	ErrorCodeNoNodes = "NoNodes"

	// ErrorCodePodCountFailed indicates pods could not be counted
	ErrorCodePodCountFailed = "PodCountFailed"

	// ErrorCodeDNSCheckFailed indicates the cluster DNS service could not be checked or did not answer
	ErrorCodeDNSCheckFailed = "DNSCheckFailed"

	// ErrorCodePodLookupFailed indicates the pod could not be fetched
	ErrorCodePodLookupFailed = "PodLookupFailed"

	// ErrorCodePodNotTestable indicates the pod is not in a phase or state that can be tested
	ErrorCodePodNotTestable = "PodNotTestable"

	// ErrorCodePodUnreachable indicates the pod did not answer HTTP
	ErrorCodePodUnreachable = "PodUnreachable"
)
