package postsocket

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"

	"github.com/edgeengineer/transport-services-sub001/pkg/framer"
	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// ConnState is a Connection's position in the establishing -> established ->
// closing -> closed graph (an establishment failure or abort() jumps
// straight to closed; there is no separate terminal "aborted" state, only a
// non-nil close reason).
type ConnState int

const (
	StateEstablishing ConnState = iota
	StateEstablished
	StateClosing
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateEstablishing:
		return "establishing"
	case StateEstablished:
		return "established"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type receiveWaiter struct {
	ctx context.Context
	out chan<- receiveResult
}

type receiveResult struct {
	msg Message
	err error
}

// Connection is one established transport channel, wrapped in the framer
// chain and the state machine.
type Connection struct {
	id string

	mu                  sync.Mutex
	state               ConnState
	props               TransportProperties
	sec                 SecurityParameters
	channel             stack.Channel
	group               *ConnectionGroup
	handler             EventHandler
	logger              Logger
	cfg                 RuntimeConfig
	chain               *framer.Chain
	resolvedRemotes     []Endpoint
	remoteEndpoint      Endpoint
	finalSent           bool
	closeErr            error
	clonedAsIndependent bool
	framerFactories     []framer.Framer

	inbox   []Message
	waiters []receiveWaiter

	readDone chan struct{}
}

// ID returns this connection's unique identity, satisfying
// pkg/framer.ConnHandle so framers can be given a stable handle without a
// pointer back into this package.
func (c *Connection) ID() string { return c.id }

// State returns the connection's current state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ClonedAsIndependent reports whether this connection resulted from a
// Clone call that fell back to an independent connection rather than true
// multistreaming. Fallback clones are never silently aliased to the
// original's observable state; this flag is the documented way to tell.
func (c *Connection) ClonedAsIndependent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clonedAsIndependent
}

// LocalAddr and RemoteAddr expose the underlying channel's addresses.
func (c *Connection) LocalAddr() net.Addr  { return c.channel.LocalAddr() }
func (c *Connection) RemoteAddr() net.Addr { return c.channel.RemoteAddr() }

func newConnection(id string, channel stack.Channel, remote Endpoint, resolvedRemotes []Endpoint, props TransportProperties, sec SecurityParameters, chain *framer.Chain, framerFactories []framer.Framer, handler EventHandler, group *ConnectionGroup, logger Logger, cfg RuntimeConfig) *Connection {
	if handler == nil {
		handler = NopEventHandler{}
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Connection{
		id:              id,
		state:           StateEstablishing,
		props:           props,
		sec:             sec,
		channel:         channel,
		group:           group,
		handler:         handler,
		logger:          logger,
		cfg:             cfg,
		chain:           chain,
		framerFactories: framerFactories,
		resolvedRemotes: resolvedRemotes,
		remoteEndpoint:  remote,
		readDone:        make(chan struct{}),
	}
}

// start transitions establishing -> established, runs the framer chain's
// open hooks, and launches the read pump. Called once, right after a
// channel wins racing or is accepted by a listener.
func (c *Connection) start() {
	c.mu.Lock()
	c.state = StateEstablished
	c.mu.Unlock()

	metricConnectionsEstablished.Inc()
	for _, err := range c.chain.Open(c) {
		c.logger.Warnf("connection %s: framer open hook error: %v", c.id, err)
		metricFramerErrors.Inc()
	}
	c.handler.Ready(c)

	go c.readLoop()
}

func (c *Connection) readLoop() {
	defer close(c.readDone)
	ctx := context.Background()
	for {
		raw, err := c.channel.Read(ctx)
		if len(raw) > 0 {
			msgs, perr := c.chain.Inbound(raw)
			if perr != nil {
				metricFramerErrors.Inc()
				c.channel.Close(stack.CloseAbortive)
				c.failAndClose(types.New(types.KindReceiveFailure, "framer rejected inbound data", perr))
				return
			}
			for _, m := range msgs {
				c.deliver(m)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.gracefulPeerClose()
			} else {
				c.failAndClose(types.New(types.KindReceiveFailure, "transport read failed", err))
			}
			return
		}
	}
}

func (c *Connection) deliver(msg Message) {
	c.mu.Lock()
	if len(c.waiters) > 0 {
		w := c.waiters[0]
		c.waiters = c.waiters[1:]
		c.mu.Unlock()
		select {
		case w.out <- receiveResult{msg: msg}:
			c.handler.Received(c, msg)
		case <-w.ctx.Done():
			// waiter cancelled between dequeue and delivery; requeue the
			// message rather than drop it. Received fires once it is
			// actually handed over.
			c.mu.Lock()
			c.inbox = append([]Message{msg}, c.inbox...)
			c.mu.Unlock()
		}
		return
	}
	c.inbox = append(c.inbox, msg)
	c.mu.Unlock()
}

// Send enqueues msg for transmission, returning once the underlying write
// completes.
func (c *Connection) Send(ctx context.Context, msg Message) error {
	c.mu.Lock()
	if c.props.Direction == RecvOnly {
		c.mu.Unlock()
		return types.Newf(types.KindSendNotAllowed, "connection %s is recvOnly", c.id)
	}
	if c.finalSent {
		c.mu.Unlock()
		return types.Newf(types.KindSendAfterFinal, "connection %s already sent a final message", c.id)
	}
	switch c.state {
	case StateClosed:
		c.mu.Unlock()
		return types.Newf(types.KindConnectionClosed, "connection %s is closed", c.id)
	case StateClosing:
		c.mu.Unlock()
		return types.New(types.KindConnectionClosed, "send raced with close", nil)
	}
	if msg.Context.Final {
		c.finalSent = true
	}
	c.mu.Unlock()

	chunks, err := c.chain.Outbound(msg)
	if err != nil {
		return types.New(types.KindSendFailure, "framer rejected outbound message", err)
	}
	for _, chunk := range chunks {
		if _, err := c.channel.Write(ctx, chunk); err != nil {
			werr := types.New(types.KindSendFailure, "transport write failed", err)
			c.failAndClose(werr)
			return werr
		}
	}
	c.handler.Sent(c, msg.Context)
	return nil
}

// Receive returns the next inbound message, suspending until one arrives,
// the connection closes, or ctx is cancelled.
func (c *Connection) Receive(ctx context.Context) (Message, error) {
	c.mu.Lock()
	if c.props.Direction == SendOnly {
		c.mu.Unlock()
		return Message{}, types.Newf(types.KindReceiveNotAllowed, "connection %s is sendOnly", c.id)
	}
	if len(c.inbox) > 0 {
		m := c.inbox[0]
		c.inbox = c.inbox[1:]
		c.mu.Unlock()
		c.handler.Received(c, m)
		return m, nil
	}
	if c.state == StateClosed {
		err := c.closeErr
		c.mu.Unlock()
		if err == nil {
			err = types.Newf(types.KindConnectionClosed, "connection %s is closed", c.id)
		}
		return Message{}, err
	}
	out := make(chan receiveResult, 1)
	c.waiters = append(c.waiters, receiveWaiter{ctx: ctx, out: out})
	c.mu.Unlock()

	select {
	case r := <-out:
		return r.msg, r.err
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Clone forms (or reuses) a connection group and creates a sibling
// connection sharing merged properties. The underlying ip/quic stacks here
// never expose multistreaming, so every clone takes the documented
// independent-connection fallback.
func (c *Connection) Clone(ctx context.Context, alterations TransportProperties) (*Connection, error) {
	c.mu.Lock()
	if c.group == nil {
		c.group = newConnectionGroup(c.props, c.sec, c.logger)
		c.group.add(c)
	}
	group := c.group
	merged := c.props.Merge(alterations)
	remote := c.remoteEndpoint
	sec := c.sec
	factories := c.framerFactories
	logger := c.logger
	cfg := c.cfg
	handler := c.handler
	c.mu.Unlock()

	pc := &Preconnection{
		Remotes: []Endpoint{remote},
		Props:   merged,
		Sec:     sec,
		Framers: factories,
		Group:   group,
		Logger:  logger,
		Config:  cfg,
	}
	clone, err := pc.initiateWithHandler(ctx, handler)
	if err != nil {
		return nil, types.New(types.KindGroupCloneFailed, "clone fell back to a new connection and that connection failed to establish", err)
	}
	clone.mu.Lock()
	clone.clonedAsIndependent = true
	clone.mu.Unlock()
	return clone, nil
}

// Close gracefully shuts the connection down: establishing -> closed or
// established/closing -> closed. Idempotent.
func (c *Connection) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosing
	c.mu.Unlock()

	err := c.channel.Close(stack.CloseGraceful)
	c.finish(nil)
	metricConnectionsClosed.Inc()
	if c.group != nil {
		c.group.remove(c.id)
	}
	return err
}

// Abort terminates the connection immediately: every pending operation
// completes with aborted, and the state jumps straight to closed.
// Idempotent.
func (c *Connection) Abort() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	abortErr := types.Newf(types.KindConnectionClosed, "connection %s aborted", c.id)
	err := c.channel.Close(stack.CloseAbortive)
	c.finish(abortErr)
	metricConnectionsAborted.Inc()
	if c.group != nil {
		c.group.remove(c.id)
	}
	return err
}

// finish moves the connection to closed exactly once, resolving every
// pending receive waiter with closeErr (or connectionClosed when the close
// was clean) before the framer close hooks and Closed event run.
func (c *Connection) finish(closeErr error) {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.closeErr = closeErr
	waiters := c.waiters
	c.waiters = nil
	c.mu.Unlock()

	werr := closeErr
	if werr == nil {
		werr = types.Newf(types.KindConnectionClosed, "connection %s closed while a receive was pending", c.id)
	}
	for _, w := range waiters {
		select {
		case w.out <- receiveResult{err: werr}:
		default:
		}
	}

	c.chain.CloseHooks(c)
	c.handler.Closed(c, closeErr)
}

func (c *Connection) gracefulPeerClose() {
	c.finish(nil)
	c.mu.Lock()
	if c.group != nil {
		g := c.group
		c.mu.Unlock()
		g.remove(c.id)
	} else {
		c.mu.Unlock()
	}
}

func (c *Connection) failAndClose(err error) {
	c.mu.Lock()
	alreadyClosed := c.state == StateClosed
	c.mu.Unlock()
	if alreadyClosed {
		// a read racing our own Close/Abort is not a new error
		return
	}
	c.finish(err)
	c.handler.ConnectionError(c, nil, err)
	if c.group != nil {
		c.group.remove(c.id)
	}
}

func newConnectionID() string {
	return uuid.NewString()
}
