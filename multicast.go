package postsocket

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/edgeengineer/transport-services-sub001/pkg/framer"
	"github.com/edgeengineer/transport-services-sub001/pkg/multicast"
	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// MulticastSender binds an ephemeral port and sends datagrams to a
// multicast group.
type MulticastSender struct {
	sock *multicast.Socket
	ep   MulticastEndpoint
}

// NewMulticastSender binds a sender socket for ep, configuring TTL,
// loopback, and outgoing interface.
func NewMulticastSender(ep MulticastEndpoint) (*MulticastSender, error) {
	sock, err := multicast.NewSenderSocket(ep)
	if err != nil {
		return nil, err
	}
	return &MulticastSender{sock: sock, ep: ep}, nil
}

// Send writes data to (groupAddress, port).
func (s *MulticastSender) Send(data []byte) error {
	if _, err := s.sock.WriteTo(data); err != nil {
		return types.New(types.KindSendFailure, "multicast send failed", err)
	}
	return nil
}

// Close releases the sender's socket.
func (s *MulticastSender) Close() error { return s.sock.Close() }

// MulticastReceiver binds (any, port), joins the group, and materializes a
// virtual Connection the first time a datagram from a given source
// arrives. All virtual connections share the underlying socket and one
// ConnectionGroup; closing the receiver leaves the group and closes every
// virtual connection.
type MulticastReceiver struct {
	sock  *multicast.Socket
	dmx   *multicast.Demuxer
	ep    MulticastEndpoint
	group *ConnectionGroup
	props TransportProperties
	sec   SecurityParameters
	cfg   RuntimeConfig

	newConns chan *Connection
}

// NewMulticastReceiver binds and joins ep's group, returning a receiver
// whose Connections() channel yields one Connection per unique source
// address.
func NewMulticastReceiver(ep MulticastEndpoint, props TransportProperties, sec SecurityParameters) (*MulticastReceiver, error) {
	sock, err := multicast.NewReceiverSocket(ep)
	if err != nil {
		return nil, err
	}
	r := &MulticastReceiver{
		sock:     sock,
		ep:       ep,
		props:    props,
		sec:      sec,
		cfg:      DefaultRuntimeConfig(),
		group:    newConnectionGroup(props, sec, nil),
		newConns: make(chan *Connection, 8),
	}
	r.dmx = multicast.NewDemuxer(sock)
	r.dmx.OnNewSource = r.onNewSource
	go r.dmx.Run()
	return r, nil
}

func (r *MulticastReceiver) onNewSource(stream *multicast.SourceStream) {
	metricMulticastSources.Inc()
	ch := &sourceStreamChannel{stream: stream, local: r.sock.LocalAddr(), remote: &net.UDPAddr{IP: stream.Source}}
	remote := types.NewIPEndpoint(stream.Source)
	conn := newConnection(newConnectionID(), ch, remote, []Endpoint{remote}, r.props, r.sec, framer.NewChain(), nil, nil, r.group, NopLogger(), r.cfg)
	r.group.add(conn)
	conn.start()
	// give a slow consumer ConsumeTimeout to pick the new source up before
	// dropping it; its datagrams still flow into the shared group
	t := time.NewTimer(r.cfg.ConsumeTimeout)
	defer t.Stop()
	select {
	case r.newConns <- conn:
	case <-t.C:
	}
}

// Connections returns the channel of per-source virtual Connections. The
// channel is never closed; call Close to stop receiving.
func (r *MulticastReceiver) Connections() <-chan *Connection { return r.newConns }

// Group returns the shared ConnectionGroup every virtual connection
// belongs to.
func (r *MulticastReceiver) Group() *ConnectionGroup { return r.group }

// LeaveSource leaves one source within a source-specific join. Per-source
// leave of an any-source join is implementation-defined here and returns
// notSupported.
func (r *MulticastReceiver) LeaveSource(source net.IP) error {
	return r.sock.LeaveSource(nil, source)
}

// Close leaves the multicast group, stops the demultiplexer, and closes
// every virtual connection.
func (r *MulticastReceiver) Close() error {
	r.dmx.Stop()
	_ = r.sock.LeaveAll(nil)
	r.group.CloseAll(context.Background())
	return r.sock.Close()
}

// sourceStreamChannel adapts one multicast.SourceStream to the stack.Channel
// contract so it can be wrapped in a regular Connection.
type sourceStreamChannel struct {
	stream *multicast.SourceStream
	local  net.Addr
	remote net.Addr
}

func (c *sourceStreamChannel) Write(ctx context.Context, b []byte) (int, error) {
	return 0, types.NotSupported("multicast receiver virtual connections are receive-only")
}

func (c *sourceStreamChannel) Read(ctx context.Context) ([]byte, error) {
	type result struct {
		data []byte
		ok   bool
	}
	out := make(chan result, 1)
	go func() {
		d, ok := c.stream.Recv()
		out <- result{d, ok}
	}()
	select {
	case r := <-out:
		if !r.ok {
			return nil, io.EOF
		}
		return r.data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *sourceStreamChannel) Close(stack.CloseMode) error { return nil } // lifecycle owned by MulticastReceiver

func (c *sourceStreamChannel) LocalAddr() net.Addr  { return c.local }
func (c *sourceStreamChannel) RemoteAddr() net.Addr { return c.remote }

func (c *sourceStreamChannel) SetOption(opt string, value interface{}) error { return nil }
