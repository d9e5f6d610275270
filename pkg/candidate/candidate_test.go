package candidate

import (
	"context"
	"net"
	"testing"

	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

func noInterfaces() ([]net.Interface, error) { return nil, nil }

// tlsSec returns SecurityParameters that request TLS, keeping TLS-mandatory
// stacks (quic) in the surviving set.
func tlsSec() types.SecurityParameters {
	return types.SecurityParameters{AllowedProtocols: []string{"TLS1.3"}}
}

func TestGatherRequiresAtLeastOneRemote(t *testing.T) {
	_, err := Gather(nil, nil, types.NewTransportProperties(), types.SecurityParameters{}, noInterfaces)
	if err == nil {
		t.Fatal("expected error for empty remotes")
	}
}

func TestGatherBasicHostRemote(t *testing.T) {
	remote := types.NewHostEndpoint("example.com").WithPort(443)
	cands, err := Gather([]types.Endpoint{remote}, nil, types.NewTransportProperties(), types.SecurityParameters{}, noInterfaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected at least one candidate")
	}
	seen := map[int]bool{}
	for _, c := range cands {
		if seen[c.Order()] {
			t.Errorf("duplicate insertion order %d across candidates", c.Order())
		}
		seen[c.Order()] = true
	}
}

func TestGatherZeroRTTPrefersQUIC(t *testing.T) {
	remote := types.NewHostEndpoint("example.com").WithPort(443)
	props := types.NewTransportProperties()
	props.ZeroRTT = types.Require
	cands, err := Gather([]types.Endpoint{remote}, nil, props, tlsSec(), noInterfaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cands) == 0 {
		t.Fatal("expected candidates")
	}
	if cands[0].Stack.Name() != "quic" {
		t.Errorf("top-ranked candidate stack = %s, want quic when ZeroRTT is required", cands[0].Stack.Name())
	}
}

func TestGatherDatagramRequirementEliminatesQUIC(t *testing.T) {
	remote := types.NewHostEndpoint("example.com").WithPort(443)
	// Leave Reliability at NoPreference: requiring message boundaries alone
	// routes the ip stack onto its UDP sub-mode without contradiction.
	props := types.TransportProperties{PreserveMsgBoundaries: types.Require}
	cands, err := Gather([]types.Endpoint{remote}, nil, props, types.SecurityParameters{}, noInterfaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range cands {
		if c.Stack.Name() == "quic" {
			t.Errorf("quic should be eliminated when message boundaries are required (quic maps to streams)")
		}
	}
}

func TestGatherNoTLSEliminatesTLSMandatoryStacks(t *testing.T) {
	remote := types.NewHostEndpoint("example.com").WithPort(443)
	cands, err := Gather([]types.Endpoint{remote}, nil, types.NewTransportProperties(), types.SecurityParameters{}, noInterfaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, c := range cands {
		if c.Stack.Capabilities().MandatoryTLS {
			t.Errorf("stack %s mandates TLS and must be eliminated when no TLS is requested", c.Stack.Name())
		}
	}

	cands, err = Gather([]types.Endpoint{remote}, nil, types.NewTransportProperties(), tlsSec(), noInterfaces)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawQUIC bool
	for _, c := range cands {
		if c.Stack.Name() == "quic" {
			sawQUIC = true
		}
	}
	if !sawQUIC {
		t.Error("expected quic to survive gathering when TLS is requested")
	}
}

func TestGatherContradictoryRequirementsFail(t *testing.T) {
	remote := types.NewHostEndpoint("example.com").WithPort(443)
	props := types.NewTransportProperties() // Reliability: Require
	props.PreserveMsgBoundaries = types.Require
	_, err := Gather([]types.Endpoint{remote}, nil, props, tlsSec(), noInterfaces)
	if err == nil {
		t.Fatal("expected establishment failure: no built-in stack can satisfy both reliable streams and message boundaries against a host endpoint")
	}
}

func TestRankOrdersIPv6BeforeIPv4OnTie(t *testing.T) {
	v4 := Candidate{Remote: types.NewIPEndpoint(net.ParseIP("192.0.2.1")), Stack: fixedPriorityStack{name: "s", p: 10}, order: 0}
	v6 := Candidate{Remote: types.NewIPEndpoint(net.ParseIP("2001:db8::1")), Stack: fixedPriorityStack{name: "s", p: 10}, order: 1}
	cands := []Candidate{v4, v6}
	rank(cands, types.TransportProperties{})
	if !isIPv6(cands[0].Remote) {
		t.Errorf("expected the IPv6 candidate to rank first on a priority tie, got %v first", cands[0].Remote)
	}
}

func TestRankOrdersByScoreThenInsertion(t *testing.T) {
	low := Candidate{Remote: types.NewIPEndpoint(net.ParseIP("192.0.2.1")), Stack: fixedPriorityStack{name: "low", p: 1}, order: 0}
	high := Candidate{Remote: types.NewIPEndpoint(net.ParseIP("192.0.2.2")), Stack: fixedPriorityStack{name: "high", p: 20}, order: 1}
	tie1 := Candidate{Remote: types.NewIPEndpoint(net.ParseIP("192.0.2.3")), Stack: fixedPriorityStack{name: "tie", p: 5}, order: 2}
	tie2 := Candidate{Remote: types.NewIPEndpoint(net.ParseIP("192.0.2.4")), Stack: fixedPriorityStack{name: "tie", p: 5}, order: 3}

	cands := []Candidate{low, high, tie1, tie2}
	rank(cands, types.TransportProperties{})

	if cands[0].Stack.Name() != "high" {
		t.Fatalf("expected highest-scoring candidate first, got %s", cands[0].Stack.Name())
	}
	if cands[len(cands)-1].Stack.Name() != "low" {
		t.Fatalf("expected lowest-scoring candidate last, got %s", cands[len(cands)-1].Stack.Name())
	}
	// the two tied candidates must keep their relative insertion order
	var sawTie1, sawTie2 bool
	for _, c := range cands {
		if c.Remote.IP.Equal(tie1.Remote.IP) {
			sawTie1 = true
		}
		if c.Remote.IP.Equal(tie2.Remote.IP) {
			if !sawTie1 {
				t.Fatal("tie2 ranked before tie1, violating the insertion-order tie-break")
			}
			sawTie2 = true
		}
	}
	if !sawTie1 || !sawTie2 {
		t.Fatal("expected both tied candidates present in the ranked output")
	}
}

func TestSameFamily(t *testing.T) {
	v4 := types.NewIPEndpoint(net.ParseIP("192.0.2.1"))
	v6 := types.NewIPEndpoint(net.ParseIP("2001:db8::1"))
	host := types.NewHostEndpoint("example.com")

	if sameFamily(v4, v6) {
		t.Error("v4 and v6 should not be the same family")
	}
	if !sameFamily(v4, v4) {
		t.Error("v4 and v4 should be the same family")
	}
	if !sameFamily(host, v4) {
		t.Error("an unresolved host local should be treated as compatible with any remote family")
	}
}

// fixedPriorityStack is a test double returning a fixed priority, so ranking
// tests can control ordering directly rather than depending on the built-in
// stacks' scoring heuristics.
type fixedPriorityStack struct {
	name string
	p    int
}

func (s fixedPriorityStack) Name() string                          { return s.name }
func (s fixedPriorityStack) Capabilities() stack.Capabilities       { return stack.Capabilities{} }
func (s fixedPriorityStack) CanHandle(types.Endpoint) bool          { return true }
func (s fixedPriorityStack) Priority(types.TransportProperties) int { return s.p }
func (s fixedPriorityStack) Connect(context.Context, types.Endpoint, *types.Endpoint, types.TransportProperties, types.SecurityParameters) (stack.Channel, error) {
	return nil, types.NotSupported("test double")
}
func (s fixedPriorityStack) Listen(context.Context, types.Endpoint, types.TransportProperties, types.SecurityParameters) (stack.ServerChannel, error) {
	return nil, types.NotSupported("test double")
}
