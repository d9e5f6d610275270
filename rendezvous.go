package postsocket

import (
	"context"
	"sync"
	"time"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Rendezvous implements simultaneous listen+connect peer-to-peer
// establishment: listeners start on every local endpoint, and after a
// brief readiness grace period outbound attempts race over the
// cross-product of locals and remotes; the first channel to reach
// established — inbound or outbound — wins under a single critical
// section, guaranteeing at most one connection is ever returned.
func (p *Preconnection) Rendezvous(ctx context.Context) (*Connection, error) {
	cfg := p.Config
	if cfg == (RuntimeConfig{}) {
		cfg = DefaultRuntimeConfig()
	}

	listenPC := &Preconnection{
		Locals:  p.Locals,
		Props:   p.Props,
		Sec:     p.Sec,
		Framers: p.Framers,
		Group:   p.Group,
		Handler: p.Handler,
		Logger:  p.Logger,
		Config:  cfg,
	}

	var listener *Listener
	if len(p.Locals) > 0 {
		var err error
		listener, err = listenPC.Listen(ctx)
		if err != nil {
			return nil, types.New(types.KindEstablishmentFailure, "rendezvous: binding local listeners failed", err)
		}
		select {
		case <-time.After(cfg.RendezvousGracePeriod):
		case <-ctx.Done():
			listener.Stop()
			return nil, ctx.Err()
		}
	}

	var (
		once     sync.Once
		winner   *Connection
		winnerMu sync.Mutex
	)
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	result := make(chan *Connection, 2)
	errs := make(chan error, 2)

	selectWinner := func(c *Connection) {
		won := false
		once.Do(func() {
			winnerMu.Lock()
			winner = c
			winnerMu.Unlock()
			won = true
			cancel()
			select {
			case result <- c:
			default:
			}
		})
		if !won {
			// simultaneous open: both directions established, but at most
			// one connection may ever be returned, so the duplicate is torn
			// down rather than leaked.
			c.Abort()
		}
	}

	if listener != nil {
		go func() {
			c, err := listener.Accept(raceCtx)
			if err != nil {
				errs <- err
				return
			}
			selectWinner(c)
		}()
	}

	go func() {
		c, err := p.Initiate(raceCtx)
		if err != nil {
			errs <- err
			return
		}
		selectWinner(c)
	}()

	var firstErr error
	failures := 0
	maxFailures := 1
	if listener != nil {
		maxFailures = 2
	}
	for {
		select {
		case c := <-result:
			if listener != nil {
				listener.Stop()
			}
			metricRendezvousWinners.Inc()
			return c, nil
		case err := <-errs:
			failures++
			if firstErr == nil {
				firstErr = err
			}
			winnerMu.Lock()
			haveWinner := winner != nil
			winnerMu.Unlock()
			if haveWinner {
				continue
			}
			if failures >= maxFailures {
				if listener != nil {
					listener.Stop()
				}
				return nil, types.New(types.KindEstablishmentFailure, "rendezvous: all candidates exhausted and no inbound arrived", firstErr)
			}
		case <-ctx.Done():
			if listener != nil {
				listener.Stop()
			}
			return nil, ctx.Err()
		}
	}
}
