package dnsprobe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	. "github.com/onsi/gomega"
)

// startDNSServer answers every query with rcode, adding one A record on success, and returns the
// server address and the questions it received.
func startDNSServer(t *testing.T, rcode int) (string, <-chan dns.Question) {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}

	questions := make(chan dns.Question, 1)
	started := make(chan struct{})
	server := &dns.Server{
		PacketConn:        pc,
		NotifyStartedFunc: func() { close(started) },
		Handler: dns.HandlerFunc(func(w dns.ResponseWriter, r *dns.Msg) {
			questions <- r.Question[0]
			m := new(dns.Msg)
			m.SetRcode(r, rcode)
			if rcode == dns.RcodeSuccess {
				m.Answer = append(m.Answer, &dns.A{
					Hdr: dns.RR_Header{Name: r.Question[0].Name, Rrtype: dns.TypeA, Class: dns.ClassINET, Ttl: 5},
					A:   net.ParseIP("10.96.0.1"),
				})
			}
			_ = w.WriteMsg(m)
		}),
	}
	go func() {
		_ = server.ActivateAndServe()
	}()
	t.Cleanup(func() {
		_ = server.Shutdown()
	})

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("DNS server did not start")
	}
	return pc.LocalAddr().String(), questions
}

func TestUDPQuerierQuery(t *testing.T) {
	tests := []struct {
		name            string
		rcode           int
		expectedRcode   string
		expectedAnswers int
	}{
		{name: "answered query", rcode: dns.RcodeSuccess, expectedRcode: "NOERROR", expectedAnswers: 1},
		{name: "nxdomain is still a reply", rcode: dns.RcodeNameError, expectedRcode: "NXDOMAIN"},
		{name: "servfail is still a reply", rcode: dns.RcodeServerFailure, expectedRcode: "SERVFAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithT(t)
			addr, questions := startDNSServer(t, tt.rcode)

			reply, err := NewQuerier().Query(context.Background(), addr, "kubernetes.default.svc.cluster.local", 2*time.Second)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(reply.Rcode).To(Equal(tt.expectedRcode))
			g.Expect(reply.Answers).To(Equal(tt.expectedAnswers))

			var q dns.Question
			g.Eventually(questions).Should(Receive(&q))
			g.Expect(q.Name).To(Equal("kubernetes.default.svc.cluster.local."))
			g.Expect(q.Qtype).To(Equal(dns.TypeA))
		})
	}
}

func TestUDPQuerierNoServer(t *testing.T) {
	g := NewWithT(t)

	// Reserve a port and release it so nothing answers there.
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	g.Expect(err).NotTo(HaveOccurred())
	addr := pc.LocalAddr().String()
	g.Expect(pc.Close()).To(Succeed())

	_, err = NewQuerier().Query(context.Background(), addr, "example.com", 200*time.Millisecond)
	g.Expect(err).To(MatchError(ContainSubstring("query " + addr + " for example.com")))
}

func TestServerAddress(t *testing.T) {
	g := NewWithT(t)
	g.Expect(serverAddress("10.0.0.10:5353")).To(Equal("10.0.0.10:5353"))
	g.Expect(serverAddress("[fd00::a]:53")).To(Equal("[fd00::a]:53"))
	g.Expect(serverAddress("10.0.0.10")).To(Equal("10.0.0.10:53"))
	g.Expect(serverAddress("fd00::a")).To(Equal("[fd00::a]:53"))
}

func TestReplyString(t *testing.T) {
	g := NewWithT(t)
	reply := Reply{Rcode: "NOERROR", Answers: 1, RTT: 3400 * time.Microsecond}
	g.Expect(reply.String()).To(Equal("NOERROR, 1 answers, 3ms"))
}
