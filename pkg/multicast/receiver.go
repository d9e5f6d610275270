package multicast

import (
	"net"
	"sync"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

// SourceStream is the per-source datagram stream delivered to whatever
// materializes a virtual connection the first time a source is seen.
type SourceStream struct {
	Source net.IP
	data   chan []byte
	once   sync.Once
	closed chan struct{}
}

func newSourceStream(source net.IP) *SourceStream {
	return &SourceStream{
		Source: source,
		data:   make(chan []byte, 32),
		closed: make(chan struct{}),
	}
}

// Recv blocks for the next datagram from this source, or returns ok=false
// once the stream has been closed. Close wins over buffered data: datagrams
// still queued when the stream closes are dropped, not drained.
func (s *SourceStream) Recv() ([]byte, bool) {
	select {
	case <-s.closed:
		return nil, false
	default:
	}
	select {
	case d, ok := <-s.data:
		return d, ok
	case <-s.closed:
		return nil, false
	}
}

func (s *SourceStream) deliver(d []byte) {
	select {
	case s.data <- d:
	case <-s.closed:
	}
}

func (s *SourceStream) close() {
	s.once.Do(func() { close(s.closed) })
}

// Demuxer reads datagrams off a receiver Socket and materializes one
// SourceStream per unique source address, the first time a datagram from
// it arrives.
type Demuxer struct {
	sock *Socket

	mu      sync.Mutex
	streams map[string]*SourceStream

	// OnNewSource is invoked (outside the lock) the first time a source
	// is observed, so the caller can wrap the SourceStream into a
	// connection-group member.
	OnNewSource func(*SourceStream)

	stopOnce sync.Once
	stopped  chan struct{}
}

// NewDemuxer wraps sock for per-source demultiplexing.
func NewDemuxer(sock *Socket) *Demuxer {
	return &Demuxer{
		sock:    sock,
		streams: make(map[string]*SourceStream),
		stopped: make(chan struct{}),
	}
}

// Run reads datagrams until the socket is closed or Stop is called. It is
// meant to be launched in its own goroutine by the receiver's owner.
func (d *Demuxer) Run() error {
	buf := make([]byte, 64*1024)
	for {
		select {
		case <-d.stopped:
			return nil
		default:
		}
		n, addr, err := d.sock.ReadFrom(buf)
		if err != nil {
			select {
			case <-d.stopped:
				return nil
			default:
				return types.New(types.KindReceiveFailure, "reading multicast datagram", err)
			}
		}
		payload := make([]byte, n)
		copy(payload, buf[:n])
		d.routeTo(addr.IP, payload)
	}
}

func (d *Demuxer) routeTo(source net.IP, payload []byte) {
	key := source.String()
	d.mu.Lock()
	stream, ok := d.streams[key]
	if !ok {
		stream = newSourceStream(source)
		d.streams[key] = stream
	}
	d.mu.Unlock()

	if !ok && d.OnNewSource != nil {
		d.OnNewSource(stream)
	}
	stream.deliver(payload)
}

// Stop closes every materialized SourceStream and halts Run.
func (d *Demuxer) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopped)
		d.mu.Lock()
		defer d.mu.Unlock()
		for _, s := range d.streams {
			s.close()
		}
	})
}
