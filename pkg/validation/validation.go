// Package validation checks user input and the local environment before any cluster call is made.
package validation

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/netinspect/k8s-netinspect/pkg/errkind"
)

const (
	maxPodNameLength   = 253
	maxNamespaceLength = 63

	// KubeconfigEnv names the environment variable holding the kubeconfig path.
	KubeconfigEnv = "KUBECONFIG"
)

var (
	podNameRegexp   = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)
	namespaceRegexp = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
	ipv4Regexp      = regexp.MustCompile(`^((25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)$`)
	// Only the full eight-group form is accepted; "::" compression is rejected.
	ipv6Regexp = regexp.MustCompile(`^([0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}$`)
)

// ValidatePodName checks a pod name against the Kubernetes DNS subdomain rules.
func ValidatePodName(name string) error {
	if name == "" {
		return errkind.New(errkind.InvalidInput, "Pod name cannot be empty")
	}
	if len(name) > maxPodNameLength {
		return errkind.Newf(errkind.InvalidInput, "Pod name cannot exceed %d characters", maxPodNameLength)
	}
	if !podNameRegexp.MatchString(name) {
		return errkind.Newf(errkind.InvalidInput,
			"Invalid pod name '%s'. Must be lowercase alphanumeric with hyphens and dots only", name)
	}
	return nil
}

// ValidateServiceAccountName checks a service account name against the Kubernetes DNS subdomain rules.
func ValidateServiceAccountName(name string) error {
	if name == "" {
		return errkind.New(errkind.InvalidInput, "Service account name cannot be empty")
	}
	if len(name) > maxPodNameLength || !podNameRegexp.MatchString(name) {
		return errkind.Newf(errkind.InvalidInput,
			"Invalid service account name '%s'. Must be lowercase alphanumeric with hyphens and dots only", name)
	}
	return nil
}

// ValidateNamespace checks a namespace name against the Kubernetes DNS label rules.
func ValidateNamespace(namespace string) error {
	if namespace == "" {
		return errkind.New(errkind.InvalidInput, "Namespace cannot be empty")
	}
	if len(namespace) > maxNamespaceLength {
		return errkind.Newf(errkind.InvalidInput, "Namespace cannot exceed %d characters", maxNamespaceLength)
	}
	if !namespaceRegexp.MatchString(namespace) {
		return errkind.Newf(errkind.InvalidInput,
			"Invalid namespace '%s'. Must be lowercase alphanumeric with hyphens only", namespace)
	}
	return nil
}

// ValidatePodIP checks that ip is an IPv4 dotted quad or a fully expanded IPv6 address.
func ValidatePodIP(ip string) error {
	if ip == "" {
		return errkind.New(errkind.InvalidInput, "Pod IP cannot be empty")
	}
	if !ipv4Regexp.MatchString(ip) && !ipv6Regexp.MatchString(ip) {
		return errkind.Newf(errkind.InvalidInput, "Invalid IP address format: %s", ip)
	}
	return nil
}

// IsIPv6 reports whether ip matches the accepted IPv6 form.
func IsIPv6(ip string) bool {
	return ipv6Regexp.MatchString(ip)
}

// Environment abstracts the process environment so the kubeconfig check can be tested.
type Environment struct {
	LookupEnv func(string) (string, bool)
	HomeDir   func() (string, error)
	Stat      func(string) (os.FileInfo, error)
}

// OSEnvironment returns an Environment backed by the real process environment.
func OSEnvironment() Environment {
	return Environment{
		LookupEnv: os.LookupEnv,
		HomeDir:   os.UserHomeDir,
		Stat:      os.Stat,
	}
}

// ValidateEnvironment checks that a kubeconfig file is available. When KUBECONFIG is set it must
// name an existing file; otherwise ~/.kube/config must exist. It returns the resolved path.
func ValidateEnvironment(env Environment) (string, error) {
	if path, ok := env.LookupEnv(KubeconfigEnv); ok && path != "" {
		// KUBECONFIG may hold a list; the first entry must exist.
		first := filepath.SplitList(path)[0]
		if _, err := env.Stat(first); err != nil {
			return "", errkind.Wrap(errkind.ConfigurationError, err,
				fmt.Sprintf("KUBECONFIG file not found: %s", first))
		}
		return path, nil
	}

	home, err := env.HomeDir()
	if err != nil {
		return "", errkind.Wrap(errkind.ConfigurationError, err,
			"No kubeconfig found. Set KUBECONFIG environment variable or place config at ~/.kube/config")
	}
	defaultPath := filepath.Join(home, ".kube", "config")
	if _, err := env.Stat(defaultPath); err != nil {
		return "", errkind.Wrap(errkind.ConfigurationError, err,
			"No kubeconfig found. Set KUBECONFIG environment variable or place config at ~/.kube/config")
	}
	return defaultPath, nil
}
