// Package postsocket implements a transport-agnostic connection API loosely
// inspired by RFC 9622 (TAPS). An application describes the transport
// service it wants — reliability, ordering, message boundaries, security,
// multipath, zero-RTT — through a Preconnection, and the runtime selects
// and drives a concrete transport (TCP, UDP, TLS-over-TCP, QUIC, with
// further stacks pluggable through pkg/stack) that satisfies those
// preferences.
//
// The core pipeline is: build a Preconnection (endpoints, properties,
// security, framers) -> Resolve endpoints and gather ranked Candidates ->
// race candidate establishment attempts -> wrap the winning channel in a
// Connection whose read/write path terminates in a Framer chain -> exchange
// Messages -> close or abort.
//
// A Note on Error Handling
//
// Asynchronous errors (anything that can happen after establishment) are
// delivered to the Connection's EventHandler. Synchronously detectable
// errors (bad arguments, policy violations such as sending after a final
// message) are returned directly from the call that triggered them. See
// errors.go for the full error taxonomy.
package postsocket
