// Package connectivity checks that a pod answers HTTP on its IP address.
package connectivity

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"k8s.io/klog/v2"

	"github.com/netinspect/k8s-netinspect/pkg/config"
	"github.com/netinspect/k8s-netinspect/pkg/errkind"
	"github.com/netinspect/k8s-netinspect/pkg/metrics"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Tester probes pods over HTTP with linear backoff between attempts.
type Tester struct {
	port        int
	backoffBase time.Duration
	client      Doer
	timer       retry.Timer
}

// Option customizes a Tester.
type Option func(*Tester)

// WithHTTPClient replaces the HTTP client used for probes.
func WithHTTPClient(client Doer) Option {
	return func(t *Tester) {
		t.client = client
	}
}

// WithTimer replaces the timer used to wait between attempts.
func WithTimer(timer retry.Timer) Option {
	return func(t *Tester) {
		t.timer = timer
	}
}

// NewTester creates a Tester from cfg.
func NewTester(cfg config.ConnectivityConfig, opts ...Option) *Tester {
	t := &Tester{
		port:        cfg.Port,
		backoffBase: cfg.BackoffBase,
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
			},
			// The probe checks the pod itself, not where it redirects to.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timer: realTimer{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// URL returns the address probed for ip. IPv6 addresses are bracketed.
func (t *Tester) URL(ip string) string {
	return fmt.Sprintf("http://%s/", net.JoinHostPort(ip, strconv.Itoa(t.port)))
}

// Test issues up to maxAttempts GET requests to address. Attempt n failing waits n times the
// backoff base before the next one. A 2xx response succeeds. After the last attempt the error of
// that attempt is returned.
func (t *Tester) Test(ctx context.Context, address string, maxAttempts int) error {
	if address == "" {
		return errkind.New(errkind.InvalidInput, "Pod address cannot be empty")
	}
	if maxAttempts < 1 {
		return errkind.Newf(errkind.InvalidInput, "Connectivity attempts must be at least 1, got %d", maxAttempts)
	}

	url := t.URL(address)
	attempt := 0
	err := retry.Do(
		func() error {
			attempt++
			attemptErr := t.probe(ctx, url)
			metrics.ObserveAttempt(attempt, attemptErr)
			return attemptErr
		},
		retry.Context(ctx),
		retry.Attempts(uint(maxAttempts)),
		retry.LastErrorOnly(true),
		retry.WithTimer(t.timer),
		retry.DelayType(func(_ uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(attempt) * t.backoffBase
		}),
		retry.OnRetry(func(_ uint, err error) {
			klog.V(1).InfoS("Connectivity attempt failed", "url", url, "attempt", attempt, "maxAttempts", maxAttempts, "err", err)
		}),
	)
	if err != nil {
		klog.V(1).InfoS("Pod unreachable", "url", url, "attempts", attempt, "err", err)
		return errkind.ClassifyTransportError(err)
	}
	klog.V(1).InfoS("Pod reachable", "url", url, "attempts", attempt)
	return nil
}

func (t *Tester) probe(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errkind.Wrap(errkind.InternalError, err, fmt.Sprintf("Failed to build request for %s: %v", url, err))
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return errkind.ClassifyTransportError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errkind.Newf(errkind.NetworkUnreachable, "HTTP %d - %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

type realTimer struct{}

func (realTimer) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
