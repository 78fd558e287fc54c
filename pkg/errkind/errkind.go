// Package errkind defines the closed set of failure kinds surfaced by k8s-netinspect,
// their process exit codes and remediation hints.
package errkind

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure. Every error that reaches the CLI carries exactly one Kind.
type Kind int

const (
	// InternalError is an unexpected runtime failure.
	InternalError Kind = iota
	// ConnectionFailure means the Kubernetes API could not be reached or returned an unexpected error.
	ConnectionFailure
	// PermissionDenied means the credentials lack a required RBAC permission.
	PermissionDenied
	// ConfigurationError means the kubeconfig or tool configuration is missing or invalid.
	ConfigurationError
	// NetworkUnreachable means a pod could not be reached over the network.
	NetworkUnreachable
	// InvalidInput means a user supplied argument failed validation.
	InvalidInput
	// NotFound means a requested resource does not exist or is not in a testable state.
	NotFound
	// Timeout means an operation exceeded its deadline.
	Timeout
)

var kindNames = map[Kind]string{
	InternalError:      "InternalError",
	ConnectionFailure:  "ConnectionFailure",
	PermissionDenied:   "PermissionDenied",
	ConfigurationError: "ConfigurationError",
	NetworkUnreachable: "NetworkUnreachable",
	InvalidInput:       "InvalidInput",
	NotFound:           "NotFound",
	Timeout:            "Timeout",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Title is the short label printed in front of an error message.
func (k Kind) Title() string {
	switch k {
	case ConnectionFailure:
		return "Kubernetes Connection Error"
	case PermissionDenied:
		return "Permission Denied"
	case ConfigurationError:
		return "Configuration Error"
	case NetworkUnreachable:
		return "Network Error"
	case InvalidInput:
		return "Invalid Input"
	case NotFound:
		return "Resource Not Found"
	case Timeout:
		return "Timeout"
	default:
		return "Runtime Error"
	}
}

// ExitCode maps a kind to the process exit code.
func ExitCode(k Kind) int {
	switch k {
	case ConnectionFailure:
		return 3
	case PermissionDenied:
		return 5
	case ConfigurationError, InvalidInput:
		return 2
	case NetworkUnreachable, NotFound, Timeout:
		return 4
	default:
		return 1
	}
}

// Hint returns the static remediation lines for a kind.
func Hint(k Kind) []string {
	switch k {
	case ConnectionFailure:
		return []string{
			"Ensure kubeconfig is valid and cluster is accessible",
			"Check: kubectl cluster-info",
		}
	case PermissionDenied:
		return []string{
			"Check RBAC permissions for your service account",
			"Required: pods/get, nodes/list",
		}
	case ConfigurationError:
		return []string{
			"Verify kubeconfig file and context",
			"Check: kubectl config current-context",
		}
	case NetworkUnreachable:
		return []string{
			"Network connectivity issue detected",
			"Pod may not be running or port may be closed",
		}
	case InvalidInput:
		return []string{
			"Check command syntax and arguments",
			"Use --help for usage information",
		}
	case NotFound:
		return []string{
			"Verify resource exists in the specified namespace",
			"Check: kubectl get pods -n <namespace>",
		}
	case Timeout:
		return []string{
			"Operation timed out - cluster may be slow or unreachable",
			"Try again or use kubectl directly to test connectivity",
		}
	default:
		return []string{
			"Unexpected error occurred",
			"Please check logs and try again",
		}
	}
}

// Error is a classified failure.
type Error struct {
	kind    Kind
	message string
	cause   error
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{kind: kind, message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{kind: kind, message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error of the given kind that keeps err as its cause.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{kind: kind, message: message, cause: err}
}

// Kind returns the failure kind.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message without the kind title.
func (e *Error) Message() string { return e.message }

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.kind.Title(), e.message)
}

func (e *Error) Unwrap() error { return e.cause }

// ExitCode returns the exit code of the error's kind.
func (e *Error) ExitCode() int { return ExitCode(e.kind) }

// DetailedMessage returns the error followed by its troubleshooting hints.
func (e *Error) DetailedMessage() string {
	var sb strings.Builder
	sb.WriteString(e.Error())
	sb.WriteString("\nTroubleshooting:")
	for _, line := range Hint(e.kind) {
		sb.WriteString("\n  • ")
		sb.WriteString(line)
	}
	return sb.String()
}

// As returns the classified error inside err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors that were never classified are InternalError.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return InternalError
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.kind == kind
}

// From returns err as a classified error, wrapping unclassified errors as InternalError.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Wrap(InternalError, err, err.Error())
}
