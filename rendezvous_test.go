package postsocket

import (
	"context"
	"testing"
	"time"
)

func TestRendezvousSimultaneousOpenYieldsOneConnectionPerSide(t *testing.T) {
	portA := freeLoopbackPort(t)
	portB := freeLoopbackPort(t)
	cert := generateSelfSignedCert(t)
	sec := quicSecurityParams(cert)

	pcA := NewPreconnection()
	pcA.Locals = []Endpoint{NewIPEndpoint(loopbackIP()).WithPort(portA)}
	pcA.Remotes = []Endpoint{NewIPEndpoint(loopbackIP()).WithPort(portB)}
	pcA.Sec = sec
	pcA.Config.RendezvousGracePeriod = 10 * time.Millisecond

	pcB := NewPreconnection()
	pcB.Locals = []Endpoint{NewIPEndpoint(loopbackIP()).WithPort(portB)}
	pcB.Remotes = []Endpoint{NewIPEndpoint(loopbackIP()).WithPort(portA)}
	pcB.Sec = sec
	pcB.Config.RendezvousGracePeriod = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type outcome struct {
		conn *Connection
		err  error
	}
	resA := make(chan outcome, 1)
	resB := make(chan outcome, 1)
	go func() { c, err := pcA.Rendezvous(ctx); resA <- outcome{c, err} }()
	go func() { c, err := pcB.Rendezvous(ctx); resB <- outcome{c, err} }()

	oa := <-resA
	ob := <-resB
	if oa.err != nil {
		t.Fatalf("A's Rendezvous failed: %v", oa.err)
	}
	if ob.err != nil {
		t.Fatalf("B's Rendezvous failed: %v", ob.err)
	}
	defer oa.conn.Close()
	defer ob.conn.Close()

	if oa.conn == nil || ob.conn == nil {
		t.Fatal("expected both sides to return a non-nil Connection")
	}
}
