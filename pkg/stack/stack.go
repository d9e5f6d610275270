// Package stack implements the polymorphic protocol-stack abstraction: a
// small, closed set of concrete stacks (ip, quic, bluetoothL2CAP) plus a
// registration table so platform adapters can add more, rather than a deep
// class hierarchy.
package stack

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// Capabilities describes what a Stack can do. The gatherer and the
// listener consult only MandatoryTLS; require/prohibit filtering goes
// through Stack.Priority.
type Capabilities struct {
	Reliability       bool
	Ordering          bool
	MessageBoundaries bool
	Security          bool
	Multipath         bool
	LowPower          bool
	Multicast         bool
	ZeroRTT           bool

	// MandatoryTLS marks stacks that cannot run without a TLS handshake
	// (QUIC). Such stacks are infeasible when the SecurityParameters request
	// no TLS at all.
	MandatoryTLS bool
}

// Channel is the established-connection contract.
type Channel interface {
	Write(ctx context.Context, b []byte) (int, error)
	Read(ctx context.Context) ([]byte, error) // returns io.EOF-wrapped error when peer closes
	Close(mode CloseMode) error
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	SetOption(opt string, value interface{}) error
}

// CloseMode distinguishes a graceful shutdown from an abortive one.
type CloseMode int

const (
	CloseGraceful CloseMode = iota
	CloseAbortive
)

// ServerChannel is returned by Stack.Listen; each call to Accept yields one
// inbound Channel.
type ServerChannel interface {
	Accept(ctx context.Context) (Channel, error)
	Close() error
	Addr() net.Addr
}

// Stack is the polymorphic protocol-stack interface. Each implementation is
// independent: the candidate gatherer and racer never branch on stack
// identity, only on the results of CanHandle/Priority and the Capabilities
// returned by Capabilities().
type Stack interface {
	Name() string
	Capabilities() Capabilities
	CanHandle(e types.Endpoint) bool
	// Priority scores how well this stack fits props; higher is better.
	// A negative value means this stack is infeasible for props.
	Priority(props types.TransportProperties) int
	Connect(ctx context.Context, remote types.Endpoint, local *types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (Channel, error)
	Listen(ctx context.Context, local types.Endpoint, props types.TransportProperties, sec types.SecurityParameters) (ServerChannel, error)
}

// registry is the table platform adapters register additional stacks into.
type registry struct {
	mu     sync.RWMutex
	stacks map[string]Stack
	order  []string
}

var reg = &registry{stacks: map[string]Stack{}}

// Register adds or replaces a Stack under its Name(). Platform adapters
// call this to add BLE, SCTP, or other stacks.
func Register(s Stack) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if _, exists := reg.stacks[s.Name()]; !exists {
		reg.order = append(reg.order, s.Name())
	}
	reg.stacks[s.Name()] = s
}

// All returns every registered stack, in registration order (stable for the
// gatherer's insertion-order tie-break).
func All() []Stack {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]Stack, 0, len(reg.order))
	for _, name := range reg.order {
		out = append(out, reg.stacks[name])
	}
	return out
}

// Get looks up a registered stack by name.
func Get(name string) (Stack, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	s, ok := reg.stacks[name]
	return s, ok
}

func init() {
	Register(NewIPStack())
	Register(NewQUICStack())
	Register(NewL2CAPStack())
}

// unsupportedEndpoint builds the error a Stack's Connect returns when given
// an endpoint kind it fundamentally cannot address.
func unsupportedEndpoint(stackName string, e types.Endpoint) error {
	return fmt.Errorf("stack %s: cannot handle endpoint kind %s", stackName, e.Kind)
}
