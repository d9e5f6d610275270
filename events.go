package postsocket

// EventHandler receives asynchronous Connection events. Message data itself
// is obtained through Connection.Receive; Received only reports the hand-over.
// Implementations must not block; handlers run on the goroutine that
// triggered the event (the connection's read loop, or the caller of Send,
// Receive, Close or Abort), and a slow handler delays that goroutine.
type EventHandler interface {
	// Ready fires on establishing -> established.
	Ready(conn *Connection)
	// Sent fires once a message submitted with the given context reference
	// has been written to the transport.
	Sent(conn *Connection, msgref interface{})
	// Received fires once per inbound message, after framing, at the point
	// the message is handed to a Receive caller.
	Received(conn *Connection, msg Message)
	// Closed fires when the connection reaches the closed state. err is
	// nil for a fully graceful close.
	Closed(conn *Connection, err error)
	// ConnectionError fires for a post-establishment transport or framing
	// error; the connection has already been moved to closed with that
	// error (and Closed has fired) when it runs. msgref is non-nil if the
	// error pertains to a specific Send.
	ConnectionError(conn *Connection, msgref interface{}, err error)
	// EstablishmentError fires when establishment (initiate/rendezvous)
	// fails outright.
	EstablishmentError(err error)
	// PathChange fires when the underlying multipath-capable stack adds or
	// removes a path.
	PathChange(conn *Connection)
}

// NopEventHandler implements EventHandler with no-op methods, suitable for
// embedding to override only the events an application cares about.
type NopEventHandler struct{}

func (NopEventHandler) Ready(*Connection)                              {}
func (NopEventHandler) Sent(*Connection, interface{})                   {}
func (NopEventHandler) Received(*Connection, Message)                  {}
func (NopEventHandler) Closed(*Connection, error)                      {}
func (NopEventHandler) ConnectionError(*Connection, interface{}, error) {}
func (NopEventHandler) EstablishmentError(error)                       {}
func (NopEventHandler) PathChange(*Connection)                         {}
