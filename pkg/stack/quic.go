package stack

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
	"github.com/quic-go/quic-go"
)

// quicStack implements Stack over QUIC using github.com/quic-go/quic-go.
// It always satisfies reliability, ordering, and congestion control, and
// maps TransportProperties.ZeroRTT onto quic-go's 0-RTT session resumption.
// MultipathMode only raises its Priority score; no connection-migration
// setting is configured.
type quicStack struct{}

// NewQUICStack returns the built-in QUIC Stack.
func NewQUICStack() Stack { return quicStack{} }

func (quicStack) Name() string { return "quic" }

func (quicStack) Capabilities() Capabilities {
	return Capabilities{
		Reliability:  true,
		Ordering:     true,
		Security:     true, // QUIC mandates TLS 1.3
		Multipath:    true, // connection migration
		ZeroRTT:      true,
		MandatoryTLS: true,
	}
}

func (quicStack) CanHandle(e types.Endpoint) bool {
	return e.Kind == types.EndpointHost || e.Kind == types.EndpointIP
}

func (quicStack) Priority(props types.TransportProperties) int {
	if props.PreserveMsgBoundaries == types.Require {
		return -1 // streams, not datagrams, in our mapping
	}
	if props.Reliability == types.Prohibit {
		return -1
	}
	score := 12 // outranks the ip stack's base 10 (though not its 15 under Reliability=Prefer): it carries TLS + 0-RTT + multipath for free
	if props.ZeroRTT == types.Require || props.ZeroRTT == types.Prefer {
		score += 10
	}
	if props.MultipathMode != types.MultipathDisabled {
		score += 5
	}
	return score
}

func quicAddr(e types.Endpoint) (string, string, error) {
	if err := e.RequirePort(); err != nil {
		return "", "", err
	}
	host := e.Name
	if e.Kind == types.EndpointIP {
		host = e.IP.String()
	}
	return host, net.JoinHostPort(host, strconv.Itoa(int(e.Port))), nil
}

func (s quicStack) Connect(ctx context.Context, remote types.Endpoint, local *types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (Channel, error) {
	if !s.CanHandle(remote) {
		return nil, unsupportedEndpoint(s.Name(), remote)
	}
	host, addr, err := quicAddr(remote)
	if err != nil {
		return nil, err
	}

	tlsCfg, err := sec.TLSConfig(false)
	if err != nil {
		return nil, err
	}
	if tlsCfg == nil {
		// QUIC mandates TLS; the gatherer filters this stack out when the
		// SecurityParameters request none, so only direct callers land here.
		return nil, types.NotSupported("quic requires TLS, but the security parameters request none")
	}
	tlsCfg.ServerName = host
	if len(tlsCfg.NextProtos) == 0 {
		tlsCfg.NextProtos = []string{"postsocket"}
	}

	qcfg := &quic.Config{}
	if props.ZeroRTT == types.Require || props.ZeroRTT == types.Prefer {
		qcfg.Allow0RTT = true
	}

	conn, err := quic.DialAddr(ctx, addr, tlsCfg, qcfg)
	if err != nil {
		return nil, fmt.Errorf("quic stack dial %s: %w", addr, err)
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		conn.CloseWithError(0, "open stream failed")
		return nil, fmt.Errorf("quic stack open stream: %w", err)
	}
	return &quicChannel{conn: conn, stream: stream}, nil
}

func (s quicStack) Listen(ctx context.Context, local types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (ServerChannel, error) {
	host := localHost(local)
	addr := net.JoinHostPort(host, strconv.Itoa(int(local.Port)))

	tlsCfg, err := sec.TLSConfig(true)
	if err != nil {
		return nil, err
	}
	if tlsCfg == nil {
		return nil, types.NotSupported("quic listener requires a TLS server certificate")
	}
	if len(tlsCfg.NextProtos) == 0 {
		tlsCfg.NextProtos = []string{"postsocket"}
	}

	qcfg := &quic.Config{}
	if props.ZeroRTT == types.Require || props.ZeroRTT == types.Prefer {
		qcfg.Allow0RTT = true
	}

	ln, err := quic.ListenAddr(addr, tlsCfg, qcfg)
	if err != nil {
		return nil, fmt.Errorf("quic stack listen %s: %w", addr, err)
	}
	return &quicServerChannel{ln: ln}, nil
}

func deadlineOf(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		return dl
	}
	return time.Time{}
}

type quicChannel struct {
	conn   *quic.Conn
	stream *quic.Stream
}

func (c *quicChannel) Write(ctx context.Context, b []byte) (int, error) {
	c.stream.SetWriteDeadline(deadlineOf(ctx))
	return c.stream.Write(b)
}

func (c *quicChannel) Read(ctx context.Context) ([]byte, error) {
	c.stream.SetReadDeadline(deadlineOf(ctx))
	buf := make([]byte, 65536)
	n, err := c.stream.Read(buf)
	if n > 0 {
		return buf[:n], err
	}
	return nil, err
}

func (c *quicChannel) Close(mode CloseMode) error {
	if mode == CloseAbortive {
		c.conn.CloseWithError(1, "abort")
		return nil
	}
	c.stream.Close()
	return c.conn.CloseWithError(0, "graceful")
}

func (c *quicChannel) LocalAddr() net.Addr  { return c.conn.LocalAddr() }
func (c *quicChannel) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *quicChannel) SetOption(opt string, value interface{}) error {
	return nil // quic-go manages congestion control and coalescing itself
}

type quicServerChannel struct {
	ln *quic.Listener
}

func (s *quicServerChannel) Accept(ctx context.Context) (Channel, error) {
	conn, err := s.ln.Accept(ctx)
	if err != nil {
		return nil, err
	}
	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		conn.CloseWithError(0, "accept stream failed")
		return nil, err
	}
	return &quicChannel{conn: conn, stream: stream}, nil
}

func (s *quicServerChannel) Close() error   { return s.ln.Close() }
func (s *quicServerChannel) Addr() net.Addr { return s.ln.Addr() }
