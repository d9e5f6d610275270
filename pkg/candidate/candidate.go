// Package candidate implements the candidate gatherer: expanding resolved
// endpoints across interfaces and protocol stacks into a ranked list of
// establishment attempts.
package candidate

import (
	"net"
	"sort"

	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Candidate is a concrete (interface, stack, remote address) tuple eligible
// for an establishment attempt.
type Candidate struct {
	Interface string
	Local     *types.Endpoint
	Remote    types.Endpoint
	Stack     stack.Stack

	order int // insertion order, the final deterministic tie-break
}

// Order returns the candidate's insertion order, exposed so callers and
// tests can see the gatherer's tie-break without re-deriving it.
func (c Candidate) Order() int { return c.order }

// InterfaceLister abstracts net.Interfaces for testability.
type InterfaceLister func() ([]net.Interface, error)

// Gather discards stacks whose capability set violates a require/prohibit
// (including TLS-mandatory stacks when sec requests no TLS), builds one
// candidate per (surviving stack, usable interface, remote address), then
// ranks by stack priority (requirements satisfied plus preference score),
// address-family preference, and finally insertion order. Interface cost
// is not considered in the ranking.
func Gather(remotes []types.Endpoint, locals []types.Endpoint, props types.TransportProperties, sec types.SecurityParameters, listInterfaces InterfaceLister) ([]Candidate, error) {
	if len(remotes) == 0 {
		return nil, types.Newf(types.KindInvalidConfiguration, "no remote endpoints to gather candidates for")
	}
	if listInterfaces == nil {
		listInterfaces = net.Interfaces
	}

	stacks := survivingStacks(props, sec)
	if len(stacks) == 0 {
		return nil, types.Newf(types.KindEstablishmentFailure, "no protocol stack satisfies the requested transport properties")
	}

	ifaces, _ := listInterfaces() // best-effort; an error just means no interface-specific candidates

	var out []Candidate
	for _, st := range stacks {
		for _, remote := range remotes {
			if !st.CanHandle(remote) {
				continue
			}
			locs := matchingLocals(locals, remote)
			if len(locs) == 0 {
				out = append(out, Candidate{Remote: remote, Stack: st, order: len(out)})
				continue
			}
			for _, loc := range locs {
				l := loc
				out = append(out, Candidate{
					Interface: ifaceNameFor(l, ifaces),
					Local:     &l,
					Remote:    remote,
					Stack:     st,
					order:     len(out),
				})
			}
		}
	}

	if len(out) == 0 {
		return nil, types.Newf(types.KindEstablishmentFailure, "no candidate (interface, stack, remote) combination available")
	}

	rank(out, props)
	return out, nil
}

// survivingStacks discards any registered stack whose Priority is negative
// for props (a stack reports negative priority when its capability set
// violates a require or prohibit preference), plus any TLS-mandatory stack
// when the security parameters request no TLS.
func survivingStacks(props types.TransportProperties, sec types.SecurityParameters) []stack.Stack {
	var out []stack.Stack
	for _, st := range stack.All() {
		if st.Priority(props) < 0 {
			continue
		}
		if st.Capabilities().MandatoryTLS && !sec.Enabled() {
			continue
		}
		out = append(out, st)
	}
	return out
}

// matchingLocals returns the locals usable with remote (same endpoint kind
// family), or nil if locals is empty (meaning "system default", handled by
// the stack itself).
func matchingLocals(locals []types.Endpoint, remote types.Endpoint) []types.Endpoint {
	if len(locals) == 0 {
		return nil
	}
	var out []types.Endpoint
	for _, l := range locals {
		if sameFamily(l, remote) {
			out = append(out, l)
		}
	}
	return out
}

func sameFamily(a, b types.Endpoint) bool {
	ipFamily := func(e types.Endpoint) int {
		switch e.Kind {
		case types.EndpointIP:
			if e.IP.To4() != nil {
				return 4
			}
			return 6
		case types.EndpointBluetoothService, types.EndpointBluetoothPeripheral:
			return -1
		default:
			return 0 // host: unresolved, assumed compatible
		}
	}
	af, bf := ipFamily(a), ipFamily(b)
	return af == 0 || bf == 0 || af == bf
}

func ifaceNameFor(local types.Endpoint, ifaces []net.Interface) string {
	if local.Interface != "" {
		return local.Interface
	}
	if local.Kind != types.EndpointIP || local.IP == nil {
		return ""
	}
	for _, ifc := range ifaces {
		addrs, err := ifc.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipNet, ok := a.(*net.IPNet); ok && ipNet.IP.Equal(local.IP) {
				return ifc.Name
			}
		}
	}
	return ""
}

// rank orders cands in place by: (a) requirements satisfied descending
// (folded into Stack.Priority, higher already means "more requirements
// satisfied plus preference score"), (b) IPv6-before-IPv4 when both are
// present, (c) insertion order as the final tie-break.
func rank(cands []Candidate, props types.TransportProperties) {
	type scored struct {
		cand  Candidate
		score int
	}
	s := make([]scored, len(cands))
	for i, c := range cands {
		s[i] = scored{cand: c, score: c.Stack.Priority(props)}
	}
	sort.SliceStable(s, func(i, j int) bool {
		if s[i].score != s[j].score {
			return s[i].score > s[j].score
		}
		iv6 := isIPv6(s[i].cand.Remote)
		jv6 := isIPv6(s[j].cand.Remote)
		if iv6 != jv6 {
			return iv6
		}
		return s[i].cand.order < s[j].cand.order
	})
	for i := range cands {
		cands[i] = s[i].cand
	}
}

func isIPv6(e types.Endpoint) bool {
	return e.Kind == types.EndpointIP && e.IP != nil && e.IP.To4() == nil
}
