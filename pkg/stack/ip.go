package stack

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// ipStack implements Stack over TCP and UDP, with optional TLS-over-TCP.
type ipStack struct{}

// NewIPStack returns the built-in TCP/UDP(+TLS) Stack.
func NewIPStack() Stack { return ipStack{} }

func (ipStack) Name() string { return "ip" }

func (ipStack) Capabilities() Capabilities {
	return Capabilities{
		Reliability:       true, // TCP path; UDP path trades this off, see Priority
		Ordering:          true,
		MessageBoundaries: true, // UDP path
		Security:          true,
		Multicast:         true,
		ZeroRTT:           false,
	}
}

func (ipStack) CanHandle(e types.Endpoint) bool {
	return e.Kind == types.EndpointHost || e.Kind == types.EndpointIP
}

// Priority scores the ip stack for props. UDP is chosen when message
// boundaries are required or reliability is prohibited; TCP otherwise.
// Returns -1 when neither sub-mode can satisfy a requirement.
func (ipStack) Priority(props types.TransportProperties) int {
	wantsDatagram := props.PreserveMsgBoundaries == types.Require || props.Reliability == types.Prohibit
	wantsStream := props.Reliability == types.Require

	if wantsDatagram && wantsStream {
		return -1 // contradictory requirements; no ip sub-mode satisfies both
	}
	if props.ZeroRTT == types.Require {
		return -1 // plain TCP/UDP has no 0-RTT; quic stack covers that
	}

	score := 10
	if props.CongestionControl == types.Require && wantsDatagram {
		return -1 // UDP has no built-in congestion control
	}
	if !wantsDatagram && props.Reliability == types.Prefer {
		score += 5
	}
	if wantsDatagram && props.PreserveMsgBoundaries == types.Prefer {
		score += 5
	}
	if props.PreferLowPower == types.Prefer || props.PreferLowPower == types.Require {
		score -= 2 // IP stacks aren't the low-power option; BLE is
	}
	return score
}

func (s ipStack) useDatagram(props types.TransportProperties) bool {
	return props.PreserveMsgBoundaries == types.Require || props.Reliability == types.Prohibit
}

func (s ipStack) Connect(ctx context.Context, remote types.Endpoint, local *types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (Channel, error) {
	if !s.CanHandle(remote) {
		return nil, unsupportedEndpoint(s.Name(), remote)
	}
	if err := remote.RequirePort(); err != nil {
		return nil, err
	}

	network := "tcp"
	if s.useDatagram(props) {
		network = "udp"
	}

	host := remote.Name
	if remote.Kind == types.EndpointIP {
		host = remote.IP.String()
	}
	addr := net.JoinHostPort(host, strconv.Itoa(int(remote.Port)))

	var dialer net.Dialer
	if local != nil {
		if lh := localHost(*local); lh != "" {
			dialer.LocalAddr = localAddrFor(network, lh, local.Port)
		}
	}

	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, fmt.Errorf("ip stack dial %s %s: %w", network, addr, err)
	}

	if network == "tcp" && sec.Enabled() {
		cfg, err := sec.TLSConfig(false)
		if err != nil {
			conn.Close()
			return nil, err
		}
		cfg.ServerName = host
		tconn := tls.Client(conn, cfg)
		if err := tconn.HandshakeContext(ctx); err != nil {
			tconn.Close()
			return nil, fmt.Errorf("tls handshake: %w", err)
		}
		return &netChannel{conn: tconn, datagram: false}, nil
	}

	return &netChannel{conn: conn, datagram: network == "udp"}, nil
}

func (s ipStack) Listen(ctx context.Context, local types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (ServerChannel, error) {
	network := "tcp"
	if s.useDatagram(props) {
		network = "udp"
	}

	host := localHost(local)
	addr := net.JoinHostPort(host, strconv.Itoa(int(local.Port)))

	var lc net.ListenConfig
	if network == "udp" {
		pc, err := lc.ListenPacket(ctx, "udp", addr)
		if err != nil {
			return nil, fmt.Errorf("ip stack listen udp %s: %w", addr, err)
		}
		return &udpServerChannel{pc: pc.(*net.UDPConn)}, nil
	}

	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ip stack listen tcp %s: %w", addr, err)
	}

	var tlsCfg *tls.Config
	if sec.Enabled() {
		tlsCfg, err = sec.TLSConfig(true)
		if err != nil {
			ln.Close()
			return nil, err
		}
	}
	return &tcpServerChannel{ln: ln, tlsCfg: tlsCfg}, nil
}

func localHost(e types.Endpoint) string {
	switch e.Kind {
	case types.EndpointIP:
		if e.IP != nil {
			return e.IP.String()
		}
	case types.EndpointHost:
		return e.Name
	}
	return ""
}

func localAddrFor(network, host string, port uint16) net.Addr {
	switch network {
	case "udp":
		return &net.UDPAddr{IP: net.ParseIP(host), Port: int(port)}
	default:
		return &net.TCPAddr{IP: net.ParseIP(host), Port: int(port)}
	}
}

// netChannel adapts a net.Conn (possibly *tls.Conn) to Channel.
type netChannel struct {
	conn     net.Conn
	datagram bool
}

func (c *netChannel) Write(ctx context.Context, b []byte) (int, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetWriteDeadline(dl)
		defer c.conn.SetWriteDeadline(time.Time{})
	}
	return c.conn.Write(b)
}

func (c *netChannel) Read(ctx context.Context) ([]byte, error) {
	if dl, ok := ctx.Deadline(); ok {
		c.conn.SetReadDeadline(dl)
		defer c.conn.SetReadDeadline(time.Time{})
	}
	buf := make([]byte, 65536)
	n, err := c.conn.Read(buf)
	if n > 0 {
		return buf[:n], err
	}
	return nil, err
}

func (c *netChannel) Close(mode CloseMode) error {
	if mode == CloseAbortive {
		if tc, ok := c.conn.(interface{ SetLinger(int) error }); ok {
			tc.SetLinger(0)
		}
	}
	return c.conn.Close()
}

func (c *netChannel) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *netChannel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *netChannel) SetOption(opt string, value interface{}) error {
	switch opt {
	case "disableNagle":
		if tc, ok := c.conn.(*net.TCPConn); ok {
			if v, ok := value.(bool); ok {
				return tc.SetNoDelay(v)
			}
		}
	case "keepAlive":
		if tc, ok := c.conn.(*net.TCPConn); ok {
			if v, ok := value.(bool); ok {
				return tc.SetKeepAlive(v)
			}
		}
	}
	return nil
}

// tcpServerChannel wraps a net.Listener, optionally upgrading each accepted
// conn with TLS.
type tcpServerChannel struct {
	ln     net.Listener
	tlsCfg *tls.Config
}

func (s *tcpServerChannel) Accept(ctx context.Context) (Channel, error) {
	type result struct {
		c   net.Conn
		err error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := s.ln.Accept()
		ch <- result{c, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		if s.tlsCfg != nil {
			tconn := tls.Server(r.c, s.tlsCfg)
			if err := tconn.HandshakeContext(ctx); err != nil {
				tconn.Close()
				return nil, fmt.Errorf("tls handshake: %w", err)
			}
			return &netChannel{conn: tconn}, nil
		}
		return &netChannel{conn: r.c}, nil
	}
}

func (s *tcpServerChannel) Close() error   { return s.ln.Close() }
func (s *tcpServerChannel) Addr() net.Addr { return s.ln.Addr() }

// udpServerChannel treats each distinct remote address on a bound UDP
// socket as a would-be accepted Channel, consistent with how the multicast
// receiver (pkg/multicast) and listener core expect connectionless
// transports to behave.
type udpServerChannel struct {
	pc *net.UDPConn
}

func (s *udpServerChannel) Accept(ctx context.Context) (Channel, error) {
	buf := make([]byte, 65536)
	type result struct {
		n    int
		addr *net.UDPAddr
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		n, addr, err := s.pc.ReadFromUDP(buf)
		ch <- result{n, addr, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, r.err
		}
		data := make([]byte, r.n)
		copy(data, buf[:r.n])
		return &udpAssociationChannel{pc: s.pc, remote: r.addr, pending: data}, nil
	}
}

func (s *udpServerChannel) Close() error   { return s.pc.Close() }
func (s *udpServerChannel) Addr() net.Addr { return s.pc.LocalAddr() }

// udpAssociationChannel is a logical Channel for one peer address on a
// shared UDP socket; it delivers its first datagram (already read during
// accept) before reading more.
type udpAssociationChannel struct {
	pc      *net.UDPConn
	remote  *net.UDPAddr
	pending []byte
}

func (c *udpAssociationChannel) Write(ctx context.Context, b []byte) (int, error) {
	return c.pc.WriteToUDP(b, c.remote)
}

func (c *udpAssociationChannel) Read(ctx context.Context) ([]byte, error) {
	if c.pending != nil {
		b := c.pending
		c.pending = nil
		return b, nil
	}
	buf := make([]byte, 65536)
	for {
		n, addr, err := c.pc.ReadFromUDP(buf)
		if err != nil {
			return nil, err
		}
		if addr.String() == c.remote.String() {
			data := make([]byte, n)
			copy(data, buf[:n])
			return data, nil
		}
		// belongs to a different association sharing this socket; drop.
	}
}

func (c *udpAssociationChannel) Close(CloseMode) error { return nil } // socket owned by listener
func (c *udpAssociationChannel) LocalAddr() net.Addr                 { return c.pc.LocalAddr() }
func (c *udpAssociationChannel) RemoteAddr() net.Addr                { return c.remote }
func (c *udpAssociationChannel) SetOption(string, interface{}) error { return nil }
