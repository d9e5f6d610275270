package postsocket

import (
	"context"
	"net"
	"time"

	"github.com/edgeengineer/transport-services-sub001/pkg/candidate"
	"github.com/edgeengineer/transport-services-sub001/pkg/framer"
	"github.com/edgeengineer/transport-services-sub001/pkg/racer"
	"github.com/edgeengineer/transport-services-sub001/pkg/stack"
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Preconnection carries everything needed to produce a Connection or
// Listener: endpoints, properties, security, and framers.
type Preconnection struct {
	Locals  []Endpoint
	Remotes []Endpoint
	Props   TransportProperties
	Sec     SecurityParameters
	Framers []framer.Framer
	Group   *ConnectionGroup
	Handler EventHandler
	Logger  Logger
	Config  RuntimeConfig
}

// NewPreconnection builds a Preconnection with default TransportProperties
// and RuntimeConfig, ready for its fields to be filled in.
func NewPreconnection() *Preconnection {
	return &Preconnection{
		Props:  NewTransportProperties(),
		Config: DefaultRuntimeConfig(),
	}
}

func (p *Preconnection) logger() Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return NopLogger()
}

// chain builds this preconnection's framer chain, applying the runtime's
// configured frame-size bound to any length-prefix framer the caller left
// at its zero value.
func (p *Preconnection) chain() *framer.Chain {
	for _, f := range p.Framers {
		if lp, ok := f.(*framer.LengthPrefix); ok && lp.MaxFrameSize == 0 {
			if p.Config.MaxFrameSize > 0 {
				lp.MaxFrameSize = p.Config.MaxFrameSize
			}
		}
	}
	return framer.NewChain(p.Framers...)
}

// Resolve expands hostnames via DNS (A+AAAA), leaves literal IPs as-is,
// and expands a local wildcard address into one endpoint per available
// interface. resolutionFailure is per-host; the call fails overall only
// if every remote fails to resolve.
func (p *Preconnection) Resolve(ctx context.Context) (locals []Endpoint, remotes []Endpoint, err error) {
	locals, err = resolveLocals(p.Locals)
	if err != nil {
		return nil, nil, err
	}

	var lastErr error
	for _, r := range p.Remotes {
		rs, rerr := resolveRemote(ctx, r)
		if rerr != nil {
			lastErr = rerr
			p.logger().Warnf("resolve: %v", rerr)
			continue
		}
		remotes = append(remotes, rs...)
	}
	if len(remotes) == 0 {
		if lastErr == nil {
			lastErr = types.Newf(types.KindInvalidConfiguration, "preconnection has no remote endpoints")
		}
		return nil, nil, lastErr
	}
	return locals, remotes, nil
}

func resolveRemote(ctx context.Context, e Endpoint) ([]Endpoint, error) {
	if e.Kind != types.EndpointHost {
		return []Endpoint{e}, nil
	}
	addrs, err := net.DefaultResolver.LookupIPAddr(ctx, e.Name)
	if err != nil {
		return nil, types.New(types.KindResolutionFailure, "resolving "+e.Name, err)
	}
	out := make([]Endpoint, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, e.WithAddress(a.IP))
	}
	return out, nil
}

func resolveLocals(locals []Endpoint) ([]Endpoint, error) {
	var out []Endpoint
	for _, l := range locals {
		if l.Kind == types.EndpointIP && (l.IP.Equal(net.IPv4zero) || l.IP.Equal(net.IPv6unspecified)) {
			ifaceLocals, err := expandWildcard(l)
			if err != nil {
				return nil, err
			}
			out = append(out, ifaceLocals...)
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func expandWildcard(l Endpoint) ([]Endpoint, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return []Endpoint{l}, nil // best-effort: fall back to the wildcard itself
	}
	wantV4 := l.IP.To4() != nil
	var out []Endpoint
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		isV4 := ipNet.IP.To4() != nil
		if isV4 != wantV4 {
			continue
		}
		out = append(out, l.WithAddress(ipNet.IP))
	}
	if len(out) == 0 {
		return []Endpoint{l}, nil
	}
	return out, nil
}

// Initiate resolves endpoints, gathers and races candidates, and returns
// the winning channel wrapped in a Connection. The whole operation is
// bounded by Props.ConnTimeout (default 30s) unless ctx already carries a
// tighter deadline.
func (p *Preconnection) Initiate(ctx context.Context) (*Connection, error) {
	return p.initiateWithHandler(ctx, p.Handler)
}

// InitiateWithSend is Initiate followed by an immediate Send of msg. When
// Props.ZeroRTT is Require or Prefer and TLS is requested, the candidate
// gatherer favors the quic stack (the only built-in stack advertising
// ZeroRTT). msg is sent with an ordinary Send once establishment has
// completed; it is not carried in the handshake's first flight.
func (p *Preconnection) InitiateWithSend(ctx context.Context, msg Message) (*Connection, error) {
	conn, err := p.Initiate(ctx)
	if err != nil {
		return nil, err
	}
	if err := conn.Send(ctx, msg); err != nil {
		conn.Abort()
		return nil, err
	}
	return conn, nil
}

func (p *Preconnection) initiateWithHandler(ctx context.Context, handler EventHandler) (*Connection, error) {
	cfg := p.Config
	if cfg == (RuntimeConfig{}) {
		cfg = DefaultRuntimeConfig()
	}
	timeout := cfg.DefaultConnTimeout
	if p.Props.ConnTimeout > 0 {
		timeout = time.Duration(p.Props.ConnTimeout * float64(time.Second))
	}
	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	locals, remotes, err := p.Resolve(ictx)
	if err != nil {
		if handler != nil {
			handler.EstablishmentError(err)
		}
		return nil, err
	}

	cands, err := candidate.Gather(remotes, locals, p.Props, p.Sec, nil)
	if err != nil {
		if handler != nil {
			handler.EstablishmentError(err)
		}
		return nil, err
	}
	metricCandidatesGathered.Add(len(cands))

	sec := p.Sec
	props := p.Props
	dial := func(actx context.Context, c candidate.Candidate) (stack.Channel, error) {
		metricAttemptsStarted.Inc()
		ch, err := c.Stack.Connect(actx, c.Remote, c.Local, props, sec)
		if err != nil {
			metricAttemptsFailed.Inc()
			return nil, err
		}
		metricAttemptsSucceeded.Inc()
		return ch, nil
	}
	obs := racer.Observer{
		AttemptCancelled: func(candidate.Candidate) { metricAttemptsCancelled.Inc() },
	}

	stagger := cfg.RaceStagger
	result, err := racer.Race(ictx, cands, stagger, dial, obs)
	if err != nil {
		if handler != nil {
			handler.EstablishmentError(err)
		}
		return nil, err
	}

	conn := newConnection(newConnectionID(), result.Channel, result.Candidate.Remote, remotes, p.Props, p.Sec, p.chain(), p.Framers, handler, p.Group, p.logger(), cfg)
	if p.Group != nil {
		p.Group.add(conn)
	}
	conn.start()
	return conn, nil
}
