// Package multicast implements the group-membership and datagram-routing
// layer backing MulticastSender/MulticastReceiver: socket option handling
// and per-source virtual connection demultiplexing over a single bound
// UDP socket.
package multicast

import (
	"net"

	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Socket wraps one UDP socket bound for multicast send or receive, hiding
// the IPv4/IPv6 packet-conn split behind a single type.
type Socket struct {
	conn *net.UDPConn
	p4   *ipv4.PacketConn
	p6   *ipv6.PacketConn
	v6   bool
	ep   types.MulticastEndpoint
}

// NewSenderSocket binds an ephemeral UDP port and configures TTL, loopback
// and outgoing interface for the given multicast endpoint.
func NewSenderSocket(ep types.MulticastEndpoint) (*Socket, error) {
	s, err := bind(ep, 0)
	if err != nil {
		return nil, err
	}
	if err := s.setTTL(ep.TTL); err != nil {
		s.Close()
		return nil, types.New(types.KindInvalidConfiguration, "setting multicast TTL", err)
	}
	if err := s.setLoopback(ep.Loopback); err != nil {
		s.Close()
		return nil, types.New(types.KindInvalidConfiguration, "setting multicast loopback", err)
	}
	if ep.Interface != "" {
		ifc, err := net.InterfaceByName(ep.Interface)
		if err != nil {
			s.Close()
			return nil, types.New(types.KindInvalidConfiguration, "resolving outgoing multicast interface "+ep.Interface, err)
		}
		if err := s.setOutgoingInterface(ifc); err != nil {
			s.Close()
			return nil, types.New(types.KindInvalidConfiguration, "setting multicast outgoing interface", err)
		}
	}
	return s, nil
}

// NewReceiverSocket binds (any, port) and joins the multicast group
// described by ep, either any-source or source-specific.
func NewReceiverSocket(ep types.MulticastEndpoint) (*Socket, error) {
	s, err := bind(ep, ep.Port)
	if err != nil {
		return nil, err
	}
	var ifc *net.Interface
	if ep.Interface != "" {
		ifc, err = net.InterfaceByName(ep.Interface)
		if err != nil {
			s.Close()
			return nil, types.New(types.KindInvalidConfiguration, "resolving multicast join interface "+ep.Interface, err)
		}
	}
	group := &net.UDPAddr{IP: ep.GroupAddress}
	switch ep.Type {
	case types.MulticastAnySource:
		if err := s.joinGroup(ifc, group); err != nil {
			s.Close()
			return nil, types.New(types.KindEstablishmentFailure, "joining multicast group", err)
		}
	case types.MulticastSourceSpecific:
		if len(ep.Sources) == 0 {
			s.Close()
			return nil, types.Newf(types.KindInvalidConfiguration, "sourceSpecific multicast endpoint requires at least one source")
		}
		for _, src := range ep.Sources {
			if err := s.joinSourceGroup(ifc, group, &net.UDPAddr{IP: src}); err != nil {
				s.Close()
				return nil, types.New(types.KindEstablishmentFailure, "joining source-specific multicast group", err)
			}
		}
	default:
		s.Close()
		return nil, types.Newf(types.KindInvalidConfiguration, "unknown multicast type %v", ep.Type)
	}
	return s, nil
}

func bind(ep types.MulticastEndpoint, port uint16) (*Socket, error) {
	if err := ep.Validate(); err != nil {
		return nil, err
	}
	v6 := ep.GroupAddress.To4() == nil
	network := "udp4"
	if v6 {
		network = "udp6"
	}
	laddr := &net.UDPAddr{Port: int(port)}
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, types.New(types.KindEstablishmentFailure, "binding multicast socket", err)
	}
	s := &Socket{conn: conn, v6: v6, ep: ep}
	if v6 {
		s.p6 = ipv6.NewPacketConn(conn)
	} else {
		s.p4 = ipv4.NewPacketConn(conn)
	}
	return s, nil
}

func (s *Socket) setTTL(ttl int) error {
	if ttl <= 0 {
		ttl = 1
	}
	if s.v6 {
		return s.p6.SetMulticastHopLimit(ttl)
	}
	return s.p4.SetMulticastTTL(ttl)
}

func (s *Socket) setLoopback(on bool) error {
	if s.v6 {
		return s.p6.SetMulticastLoopback(on)
	}
	return s.p4.SetMulticastLoopback(on)
}

func (s *Socket) setOutgoingInterface(ifc *net.Interface) error {
	if s.v6 {
		return s.p6.SetMulticastInterface(ifc)
	}
	return s.p4.SetMulticastInterface(ifc)
}

func (s *Socket) joinGroup(ifc *net.Interface, group net.Addr) error {
	if s.v6 {
		return s.p6.JoinGroup(ifc, group)
	}
	return s.p4.JoinGroup(ifc, group)
}

func (s *Socket) joinSourceGroup(ifc *net.Interface, group, source *net.UDPAddr) error {
	if s.v6 {
		return s.p6.JoinSourceSpecificGroup(ifc, group, source)
	}
	return s.p4.JoinSourceSpecificGroup(ifc, group, source)
}

// LeaveSource leaves one source within a source-specific join. Per-source
// leave of an any-source join is not a meaningful operation and returns
// notSupported.
func (s *Socket) LeaveSource(ifc *net.Interface, source net.IP) error {
	if s.ep.Type != types.MulticastSourceSpecific {
		return types.NotSupported("per-source leave is only defined for source-specific multicast joins")
	}
	group := &net.UDPAddr{IP: s.ep.GroupAddress}
	src := &net.UDPAddr{IP: source}
	if s.v6 {
		return s.p6.LeaveSourceSpecificGroup(ifc, group, src)
	}
	return s.p4.LeaveSourceSpecificGroup(ifc, group, src)
}

// LeaveAll leaves every joined group/source on this socket.
func (s *Socket) LeaveAll(ifc *net.Interface) error {
	group := &net.UDPAddr{IP: s.ep.GroupAddress}
	if s.ep.Type == types.MulticastSourceSpecific {
		var firstErr error
		for _, src := range s.ep.Sources {
			var err error
			if s.v6 {
				err = s.p6.LeaveSourceSpecificGroup(ifc, group, &net.UDPAddr{IP: src})
			} else {
				err = s.p4.LeaveSourceSpecificGroup(ifc, group, &net.UDPAddr{IP: src})
			}
			if err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}
	if s.v6 {
		return s.p6.LeaveGroup(ifc, group)
	}
	return s.p4.LeaveGroup(ifc, group)
}

// WriteTo sends data to the multicast group address/port.
func (s *Socket) WriteTo(data []byte) (int, error) {
	dst := &net.UDPAddr{IP: s.ep.GroupAddress, Port: int(s.ep.Port)}
	return s.conn.WriteToUDP(data, dst)
}

// ReadFrom reads one datagram, returning its source address.
func (s *Socket) ReadFrom(buf []byte) (int, *net.UDPAddr, error) {
	n, addr, err := s.conn.ReadFromUDP(buf)
	return n, addr, err
}

// LocalAddr returns the socket's bound local address.
func (s *Socket) LocalAddr() net.Addr { return s.conn.LocalAddr() }

// Close closes the underlying socket.
func (s *Socket) Close() error { return s.conn.Close() }
