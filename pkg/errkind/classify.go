package errkind

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// ClassifyStatus builds the error for a Kubernetes API response with the given status code and
// message.
func ClassifyStatus(code int32, message string) *Error {
	switch code {
	case 401, 403:
		return New(PermissionDenied, fmt.Sprintf("Kubernetes API access denied: %s", message))
	case 404:
		return New(NotFound, fmt.Sprintf("Resource not found: %s", message))
	default:
		return New(ConnectionFailure, fmt.Sprintf("Kubernetes API error: %s", message))
	}
}

// StatusCode returns the HTTP status code carried by a Kubernetes API error.
func StatusCode(err error) (int32, bool) {
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		return status.Status().Code, true
	}
	return 0, false
}

// ClassifyAPIError classifies an error returned by the Kubernetes API client.
// Errors that are already classified are returned unchanged.
func ClassifyAPIError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(Timeout, err, fmt.Sprintf("Kubernetes API request timed out: %v", err))
	}

	var status apierrors.APIStatus
	if errors.As(err, &status) {
		s := status.Status()
		classified := ClassifyStatus(s.Code, s.Message)
		return Wrap(classified.kind, err, classified.message)
	}
	return Wrap(ConnectionFailure, err, fmt.Sprintf("Kubernetes client error: %v", err))
}

// ClassifyTransportError classifies an error from the HTTP transport used to reach pods.
func ClassifyTransportError(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	if isTimeoutError(err) {
		return Wrap(Timeout, err, "HTTP request timed out - pod may be unreachable")
	}
	if isConnectError(err) {
		return Wrap(NetworkUnreachable, err, fmt.Sprintf("Failed to connect to pod: %v", err))
	}
	return Wrap(NetworkUnreachable, err, fmt.Sprintf("HTTP request failed: %v", err))
}

func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return false
}

func isConnectError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	msg := err.Error()
	for _, keyword := range []string{"connection refused", "no route to host", "network is unreachable"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
