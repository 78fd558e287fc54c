package dnsprobe

// Error codes for DNS probe results
const (
	// ErrorCodeServiceNotFound indicates the cluster DNS service does not exist
	ErrorCodeServiceNotFound = "ClusterDNSServiceNotFound"

	// ErrorCodeServiceNoClusterIP indicates the cluster DNS service has no usable ClusterIP
	ErrorCodeServiceNoClusterIP = "ClusterDNSServiceNoClusterIP"

	// ErrorCodeQueryFailed indicates the cluster DNS service did not answer
	ErrorCodeQueryFailed = "ClusterDNSQueryFailed"
)
