// Package framer implements the bidirectional framer pipeline: an ordered
// chain converting byte chunks to/from Messages, with per-message context
// flags preserved across the chain.
package framer

import (
	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// ConnHandle is the minimal view of a connection a Framer's lifecycle hooks
// need, passed as a parameter (not captured) to avoid retain cycles between
// a framer and the connection it is attached to.
type ConnHandle interface {
	ID() string
}

// Framer is the capability set a codec implements to join a Chain.
type Framer interface {
	// FrameOutbound converts one outbound Message into one or more byte
	// chunks to hand to the next framer (or the transport, if last).
	FrameOutbound(msg types.Message) ([][]byte, error)
	// ParseInbound consumes some or all of in, returning any complete
	// messages and the unconsumed remainder to be prepended to the next
	// read.
	ParseInbound(in []byte) (msgs []types.Message, remainder []byte, err error)
	// ConnectionDidOpen runs once after the channel is established and
	// before the first inbound delivery.
	ConnectionDidOpen(conn ConnHandle) error
	// ConnectionDidClose runs once the connection has reached closed.
	ConnectionDidClose(conn ConnHandle)
}

// Chain composes an ordered list of Framers: outbound traverses
// first->last, inbound traverses last->first. An empty Chain behaves as
// the default framer: raw bytes are one message per read.
type Chain struct {
	framers   []Framer
	remainder []byte
}

// NewChain builds a Chain from framers in outbound order (the order
// FrameOutbound is applied; ParseInbound applies the reverse).
func NewChain(framers ...Framer) *Chain {
	return &Chain{framers: framers}
}

// Empty reports whether this chain has no framers (the default passthrough).
func (c *Chain) Empty() bool { return len(c.framers) == 0 }

// Open runs every framer's ConnectionDidOpen hook in chain order. A hook
// error is logged by the caller (via the returned per-framer errors) and
// does not skip the remaining hooks.
func (c *Chain) Open(conn ConnHandle) []error {
	var errs []error
	for _, f := range c.framers {
		if err := f.ConnectionDidOpen(conn); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// CloseHooks runs every framer's ConnectionDidClose hook in chain order.
func (c *Chain) CloseHooks(conn ConnHandle) {
	for _, f := range c.framers {
		f.ConnectionDidClose(conn)
	}
}

// Outbound applies the chain to msg, first framer to last, treating each
// intermediate byte chunk as its own message with the original context.
// With an empty chain, it returns msg.Data unmodified.
func (c *Chain) Outbound(msg types.Message) ([][]byte, error) {
	if c.Empty() {
		return [][]byte{msg.Data}, nil
	}
	chunks := [][]byte{msg.Data}
	for _, f := range c.framers {
		var next [][]byte
		for _, chunk := range chunks {
			out, err := f.FrameOutbound(types.Message{Data: chunk, Context: msg.Context})
			if err != nil {
				return nil, err
			}
			next = append(next, out...)
		}
		chunks = next
	}
	return chunks, nil
}

// Inbound feeds newly-read bytes through the last framer, producing
// messages that are then passed to preceding framers in reverse order.
// Remainders are tracked per-chain across calls.
func (c *Chain) Inbound(data []byte) ([]types.Message, error) {
	buf := append(c.remainder, data...)
	c.remainder = nil

	if c.Empty() {
		if len(buf) == 0 {
			return nil, nil
		}
		return []types.Message{types.NewMessage(buf)}, nil
	}

	last := c.framers[len(c.framers)-1]
	msgs, rem, err := last.ParseInbound(buf)
	if err != nil {
		return nil, err
	}
	c.remainder = rem

	for i := len(c.framers) - 2; i >= 0; i-- {
		f := c.framers[i]
		var next []types.Message
		for _, m := range msgs {
			sub, subRem, err := f.ParseInbound(m.Data)
			if err != nil {
				return nil, err
			}
			if len(subRem) != 0 {
				return nil, types.Newf(types.KindInvalidMessageSize, "framer %T left an unconsumed remainder mid-chain", f)
			}
			next = append(next, sub...)
		}
		msgs = next
	}
	return msgs, nil
}
