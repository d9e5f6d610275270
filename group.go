package postsocket

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Scheduler is advisory metadata consulted when routing a send across a
// multistream-capable protocol; the built-in ip/quic stacks have no
// multistream path, so SchedulerDefault is the only one exercised today.
type Scheduler int

const (
	SchedulerDefault Scheduler = iota
	SchedulerWeighted
	SchedulerFIFO
	SchedulerLRU
)

// ConnectionGroup is a non-owning registry of sibling Connections sharing
// properties and security parameters. It holds no framer set: each member
// keeps the framer chain it was created with. The group does not
// own connections; connections hold an optional back-reference to the
// group; closing a connection removes it; closing the group closes all
// members.
type ConnectionGroup struct {
	mu        sync.RWMutex
	props     TransportProperties
	sec       SecurityParameters
	scheduler Scheduler
	members   map[string]*Connection
	logger    Logger
}

func newConnectionGroup(props TransportProperties, sec SecurityParameters, logger Logger) *ConnectionGroup {
	if logger == nil {
		logger = NopLogger()
	}
	return &ConnectionGroup{
		props:   props,
		sec:     sec,
		members: make(map[string]*Connection),
		logger:  logger,
	}
}

// NewConnectionGroup creates a standalone group, for callers that want to
// pre-form a group before any connection exists (e.g. to share it across
// several Preconnection.Initiate calls).
func NewConnectionGroup(props TransportProperties, sec SecurityParameters) *ConnectionGroup {
	return newConnectionGroup(props, sec, nil)
}

func (g *ConnectionGroup) add(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.members[c.id] = c // idempotent: re-adding just overwrites
}

func (g *ConnectionGroup) remove(id string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.members, id) // idempotent: removing an absent id is a no-op
}

// Members returns a snapshot of this group's current connections.
func (g *ConnectionGroup) Members() []*Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Connection, 0, len(g.members))
	for _, c := range g.members {
		out = append(out, c)
	}
	return out
}

// Properties returns the group's current shared TransportProperties.
func (g *ConnectionGroup) Properties() TransportProperties {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.props
}

// UpdateSharedProperties applies updater to the group's shared properties
// and notifies every current member; members may re-read before their next
// I/O.
func (g *ConnectionGroup) UpdateSharedProperties(updater func(TransportProperties) TransportProperties) {
	g.mu.Lock()
	g.props = updater(g.props)
	members := make([]*Connection, 0, len(g.members))
	for _, c := range g.members {
		members = append(members, c)
	}
	g.mu.Unlock()

	for _, c := range members {
		c.mu.Lock()
		c.props = g.props
		c.mu.Unlock()
	}
}

// SetScheduler changes the group's advisory scheduling policy.
func (g *ConnectionGroup) SetScheduler(s Scheduler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scheduler = s
}

// CloseAll gracefully closes every member concurrently and waits for all to
// complete: after CloseAll returns, every member is in StateClosed.
func (g *ConnectionGroup) CloseAll(ctx context.Context) error {
	members := g.Members()
	eg, _ := errgroup.WithContext(ctx)
	for _, c := range members {
		c := c
		eg.Go(func() error {
			return c.Close()
		})
	}
	return eg.Wait()
}

// AbortAll aborts every member concurrently and waits for all to complete.
func (g *ConnectionGroup) AbortAll(ctx context.Context) error {
	members := g.Members()
	eg, _ := errgroup.WithContext(ctx)
	for _, c := range members {
		c := c
		eg.Go(func() error {
			return c.Abort()
		})
	}
	return eg.Wait()
}
