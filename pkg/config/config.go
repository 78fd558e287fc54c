// Package config holds the tunable settings of k8s-netinspect.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/netinspect/k8s-netinspect/pkg/validation"
)

// Config is the root of the configuration file. Every field is optional; missing fields keep
// the values returned by Default.
type Config struct {
	Diagnose     DiagnoseConfig     `yaml:"diagnose"`
	Connectivity ConnectivityConfig `yaml:"connectivity"`
	Permissions  PermissionsConfig  `yaml:"permissions"`
	DNS          DNSConfig          `yaml:"dns"`
}

// DiagnoseConfig sets the per-step budgets of a diagnosis.
type DiagnoseConfig struct {
	NodeListTimeout  time.Duration `yaml:"nodeListTimeout"`
	NodeCountTimeout time.Duration `yaml:"nodeCountTimeout"`
	PodCountTimeout  time.Duration `yaml:"podCountTimeout"`
	PodGetTimeout    time.Duration `yaml:"podGetTimeout"`
	DNSTimeout       time.Duration `yaml:"dnsTimeout"`
	// CheckDNS enables the cluster DNS step.
	CheckDNS bool `yaml:"checkDNS"`
}

// ConnectivityConfig tunes the pod reachability probe.
type ConnectivityConfig struct {
	Port           int           `yaml:"port"`
	Attempts       int           `yaml:"attempts"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	// BackoffBase is multiplied by the attempt number to get the wait before the next attempt.
	BackoffBase time.Duration `yaml:"backoffBase"`
}

// PermissionsConfig tunes the RBAC pre-flight probes.
type PermissionsConfig struct {
	// ProbeNamespace is where namespaced resources are probed.
	ProbeNamespace string `yaml:"probeNamespace"`
}

// DNSConfig tunes the cluster DNS step.
type DNSConfig struct {
	Namespace    string        `yaml:"namespace"`
	ServiceName  string        `yaml:"serviceName"`
	Domain       string        `yaml:"domain"`
	QueryTimeout time.Duration `yaml:"queryTimeout"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Diagnose: DiagnoseConfig{
			NodeListTimeout:  30 * time.Second,
			NodeCountTimeout: 15 * time.Second,
			PodCountTimeout:  15 * time.Second,
			PodGetTimeout:    10 * time.Second,
			DNSTimeout:       10 * time.Second,
		},
		Connectivity: ConnectivityConfig{
			Port:           80,
			Attempts:       3,
			ConnectTimeout: 5 * time.Second,
			RequestTimeout: 10 * time.Second,
			BackoffBase:    time.Second,
		},
		Permissions: PermissionsConfig{
			ProbeNamespace: "default",
		},
		DNS: DNSConfig{
			Namespace:    "kube-system",
			ServiceName:  "kube-dns",
			Domain:       "kubernetes.default.svc.cluster.local",
			QueryTimeout: 5 * time.Second,
		},
	}
}

func (c *Config) validate() error {
	var errs []error
	if err := c.Diagnose.validate(); err != nil {
		errs = append(errs, fmt.Errorf("diagnose: %w", err))
	}
	if err := c.Connectivity.validate(); err != nil {
		errs = append(errs, fmt.Errorf("connectivity: %w", err))
	}
	if err := namespaceField("probeNamespace", c.Permissions.ProbeNamespace); err != nil {
		errs = append(errs, fmt.Errorf("permissions: %w", err))
	}
	if err := c.DNS.validate(); err != nil {
		errs = append(errs, fmt.Errorf("dns: %w", err))
	}
	return errors.Join(errs...)
}

func (c DiagnoseConfig) validate() error {
	var errs []error
	for _, t := range []struct {
		name string
		d    time.Duration
	}{
		{"nodeListTimeout", c.NodeListTimeout},
		{"nodeCountTimeout", c.NodeCountTimeout},
		{"podCountTimeout", c.PodCountTimeout},
		{"podGetTimeout", c.PodGetTimeout},
		{"dnsTimeout", c.DNSTimeout},
	} {
		if t.d <= 0 {
			errs = append(errs, fmt.Errorf("'%s' must be greater than zero", t.name))
		}
	}
	return errors.Join(errs...)
}

func (c ConnectivityConfig) validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid 'port' %d", c.Port))
	}
	if c.Attempts < 1 {
		errs = append(errs, fmt.Errorf("'attempts' must be at least 1, got %d", c.Attempts))
	}
	if c.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("'connectTimeout' must be greater than zero"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("'requestTimeout' must be greater than zero"))
	}
	if c.BackoffBase < 0 {
		errs = append(errs, errors.New("'backoffBase' must not be negative"))
	}
	return errors.Join(errs...)
}

func (c DNSConfig) validate() error {
	var errs []error
	if err := namespaceField("namespace", c.Namespace); err != nil {
		errs = append(errs, err)
	}
	if c.ServiceName == "" {
		errs = append(errs, errors.New("missing 'serviceName'"))
	}
	if c.Domain == "" {
		errs = append(errs, errors.New("missing 'domain'"))
	}
	if c.QueryTimeout <= 0 {
		errs = append(errs, errors.New("'queryTimeout' must be greater than zero"))
	}
	return errors.Join(errs...)
}

// namespaceField checks that a namespace setting is present and well formed.
func namespaceField(name, value string) error {
	if value == "" {
		return fmt.Errorf("missing '%s'", name)
	}
	if err := validation.ValidateNamespace(value); err != nil {
		return fmt.Errorf("invalid '%s': %w", name, err)
	}
	return nil
}
