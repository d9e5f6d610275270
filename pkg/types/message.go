package types

import "time"

// MessageContext carries per-message flags.
type MessageContext struct {
	// SafelyReplayable marks a message as safe to send more than once,
	// required for 0-RTT sends.
	SafelyReplayable bool
	// Final marks the last message a caller intends to send on this
	// connection's send side.
	Final bool
	// Lifetime is how long the message remains relevant; zero means no
	// expiry (fully reliable transports ignore it).
	Lifetime time.Duration
	// Priority is the inverse of niceness: lower values are sent first
	// when a scheduler orders across buffered messages.
	Priority int
}

// Message is the unit of application data exchanged over a Connection.
type Message struct {
	Data    []byte
	Context MessageContext
}

// NewMessage wraps data with a zero-value MessageContext.
func NewMessage(data []byte) Message {
	return Message{Data: data}
}

// WithFinal returns a copy of m with Context.Final set.
func (m Message) WithFinal(final bool) Message {
	m.Context.Final = final
	return m
}

// WithSafelyReplayable returns a copy of m with Context.SafelyReplayable set.
func (m Message) WithSafelyReplayable(v bool) Message {
	m.Context.SafelyReplayable = v
	return m
}
