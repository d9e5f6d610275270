package postsocket

import (
	"context"
	"sync"

	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Listener binds a Preconnection's local endpoints and exposes a lazy,
// finite sequence of accepted Connections.
type Listener struct {
	pc *Preconnection

	mu        sync.Mutex
	servers   []stack.ServerChannel
	active    bool
	accepted  int64
	limit     int64
	conns     chan *Connection
	stopCtx   context.Context
	stopFn    context.CancelFunc
	loops     sync.WaitGroup
	closeOnce sync.Once
}

// Listen binds to each of p's local endpoints, failing the whole call if
// any single bind fails.
func (p *Preconnection) Listen(ctx context.Context) (*Listener, error) {
	if len(p.Locals) == 0 {
		return nil, types.Newf(types.KindInvalidConfiguration, "preconnection has no local endpoints to listen on")
	}
	locals, err := resolveLocals(p.Locals)
	if err != nil {
		return nil, err
	}

	var servers []stack.ServerChannel
	for _, local := range locals {
		st := bestStackFor(local, p.Props, p.Sec)
		if st == nil {
			for _, s := range servers {
				s.Close()
			}
			return nil, types.Newf(types.KindInvalidConfiguration, "no protocol stack can bind local endpoint %s", local)
		}
		sc, err := st.Listen(ctx, local, p.Props, p.Sec)
		if err != nil {
			for _, s := range servers {
				s.Close()
			}
			return nil, types.New(types.KindEstablishmentFailure, "binding listener on "+local.String(), err)
		}
		servers = append(servers, sc)
	}

	stopCtx, stopFn := context.WithCancel(context.Background())
	l := &Listener{
		pc:      p,
		servers: servers,
		active:  true,
		conns:   make(chan *Connection, 16),
		stopCtx: stopCtx,
		stopFn:  stopFn,
	}
	for _, sc := range servers {
		l.loops.Add(1)
		go l.acceptLoop(sc)
	}
	return l, nil
}

// SetConnectionLimit bounds the number of connections this listener will
// accept; once reached, further accepted channels are closed immediately.
func (l *Listener) SetConnectionLimit(n int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limit = n
}

func (l *Listener) acceptLoop(sc stack.ServerChannel) {
	defer l.loops.Done()
	for {
		ch, err := sc.Accept(l.stopCtx)
		if err != nil {
			select {
			case <-l.stopCtx.Done():
				return
			default:
				l.pc.logger().Warnf("listener: accept error on %s: %v", sc.Addr(), err)
				return
			}
		}

		l.mu.Lock()
		limit := l.limit
		count := l.accepted
		l.mu.Unlock()
		if limit > 0 && count >= limit {
			ch.Close(stack.CloseGraceful)
			continue
		}

		conn := newConnection(newConnectionID(), ch, Endpoint{}, nil, l.pc.Props, l.pc.Sec, l.pc.chain(), l.pc.Framers, l.pc.Handler, l.pc.Group, l.pc.logger(), l.pc.Config)
		if l.pc.Group != nil {
			l.pc.Group.add(conn)
		}
		conn.start()

		l.mu.Lock()
		l.accepted++
		l.mu.Unlock()

		select {
		case l.conns <- conn:
		case <-l.stopCtx.Done():
			conn.Abort()
			return
		}
	}
}

// Accept returns the next accepted Connection, or an error once the
// listener has stopped and its backlog is drained.
func (l *Listener) Accept(ctx context.Context) (*Connection, error) {
	select {
	case c, ok := <-l.conns:
		if !ok {
			return nil, types.Newf(types.KindConnectionClosed, "listener stopped")
		}
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-l.stopCtx.Done():
		select {
		case c, ok := <-l.conns:
			if ok {
				return c, nil
			}
		default:
		}
		return nil, types.Newf(types.KindConnectionClosed, "listener stopped")
	}
}

// Stop finishes the accepted-connection sequence, cancels any in-flight
// handshake attempts, and aborts accepted connections still sitting in the
// backlog that no Accept call ever claimed.
func (l *Listener) Stop() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.active = false
		l.mu.Unlock()
		l.stopFn()
		for _, sc := range l.servers {
			sc.Close()
		}
		// every acceptLoop observes the cancelled stopCtx (or its server's
		// close) and returns; only then is closing l.conns safe, since no
		// sender remains to race the close.
		l.loops.Wait()
		close(l.conns)
		for c := range l.conns {
			c.Abort()
		}
	})
	return nil
}

// Active reports whether the listener is still accepting.
func (l *Listener) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// AcceptedCount returns how many connections this listener has accepted.
func (l *Listener) AcceptedCount() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.accepted
}

func bestStackFor(local Endpoint, props TransportProperties, sec SecurityParameters) stack.Stack {
	var best stack.Stack
	bestScore := -1
	for _, st := range stack.All() {
		if !st.CanHandle(local) {
			continue
		}
		if st.Capabilities().MandatoryTLS && !sec.Enabled() {
			continue
		}
		if score := st.Priority(props); score > bestScore {
			bestScore = score
			best = st
		}
	}
	return best
}
