package dnsprobe

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const dnsPort = "53"

// Reply summarizes the answer of a DNS server.
type Reply struct {
	Rcode   string
	Answers int
	RTT     time.Duration
}

func (r Reply) String() string {
	return fmt.Sprintf("%s, %d answers, %s", r.Rcode, r.Answers, r.RTT.Round(time.Millisecond))
}

// Querier sends one A query to a DNS server.
type Querier interface {
	// Query returns the reply of server, which is an IP with an optional port. Any rcode is a
	// reply; only a missing answer is an error.
	Query(ctx context.Context, server, domain string, timeout time.Duration) (Reply, error)
}

type udpQuerier struct {
	client *dns.Client
}

// NewQuerier returns a Querier that sends a single UDP packet without TCP fallback.
func NewQuerier() Querier {
	return &udpQuerier{client: &dns.Client{Net: "udp"}}
}

func (q *udpQuerier) Query(ctx context.Context, server, domain string, timeout time.Duration) (Reply, error) {
	addr := serverAddress(server)
	msg := new(dns.Msg).SetQuestion(dns.Fqdn(domain), dns.TypeA)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	resp, rtt, err := q.client.ExchangeContext(ctx, msg, addr)
	switch {
	case err != nil:
		return Reply{}, fmt.Errorf("query %s for %s: %w", addr, domain, err)
	case resp == nil:
		return Reply{}, fmt.Errorf("query %s for %s: empty reply", addr, domain)
	}
	return Reply{
		Rcode:   dns.RcodeToString[resp.Rcode],
		Answers: len(resp.Answer),
		RTT:     rtt,
	}, nil
}

// serverAddress appends the DNS port unless server already carries one.
func serverAddress(server string) string {
	if _, _, err := net.SplitHostPort(server); err == nil {
		return server
	}
	return net.JoinHostPort(server, dnsPort)
}
