package framer

import (
	"bytes"
	"testing"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

func TestLengthPrefixRoundTrip(t *testing.T) {
	lp := NewLengthPrefix()
	msg := types.NewMessage([]byte("hello, world")).WithFinal(true).WithSafelyReplayable(true)

	chunks, err := lp.FrameOutbound(msg)
	if err != nil {
		t.Fatalf("FrameOutbound: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}

	parsed, rem, err := lp.ParseInbound(chunks[0])
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if len(rem) != 0 {
		t.Fatalf("expected no remainder, got %d bytes", len(rem))
	}
	if len(parsed) != 1 {
		t.Fatalf("expected one parsed message, got %d", len(parsed))
	}
	if !bytes.Equal(parsed[0].Data, msg.Data) {
		t.Fatalf("payload mismatch: got %q, want %q", parsed[0].Data, msg.Data)
	}
	if !parsed[0].Context.Final {
		t.Error("expected the Final flag to survive the wire round trip")
	}
	if !parsed[0].Context.SafelyReplayable {
		t.Error("expected the SafelyReplayable flag to survive the wire round trip")
	}
}

func TestLengthPrefixWireLayout(t *testing.T) {
	lp := NewLengthPrefix()
	chunks, err := lp.FrameOutbound(types.NewMessage([]byte("ping")))
	if err != nil {
		t.Fatalf("FrameOutbound: %v", err)
	}
	// length counts flags + payload, so "ping" frames as length 5, flags 0.
	want := []byte{0x00, 0x00, 0x00, 0x05, 0x00, 'p', 'i', 'n', 'g'}
	if !bytes.Equal(chunks[0], want) {
		t.Fatalf("wire layout = % x, want % x", chunks[0], want)
	}

	chunks, err = lp.FrameOutbound(types.NewMessage([]byte("bye")).WithFinal(true).WithSafelyReplayable(true))
	if err != nil {
		t.Fatalf("FrameOutbound: %v", err)
	}
	if chunks[0][4] != 0x03 {
		t.Fatalf("flags byte = %#x, want 0x03 (safelyReplayable|final)", chunks[0][4])
	}
}

func TestLengthPrefixParsesMultipleFramesInOneBuffer(t *testing.T) {
	lp := NewLengthPrefix()
	m1, _ := lp.FrameOutbound(types.NewMessage([]byte("one")))
	m2, _ := lp.FrameOutbound(types.NewMessage([]byte("two")))
	buf := append(append([]byte{}, m1[0]...), m2[0]...)

	parsed, rem, err := lp.ParseInbound(buf)
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if len(rem) != 0 {
		t.Fatalf("expected no remainder, got %d bytes", len(rem))
	}
	if len(parsed) != 2 || string(parsed[0].Data) != "one" || string(parsed[1].Data) != "two" {
		t.Fatalf("unexpected parsed messages: %+v", parsed)
	}
}

func TestLengthPrefixHoldsPartialFrame(t *testing.T) {
	lp := NewLengthPrefix()
	framed, _ := lp.FrameOutbound(types.NewMessage([]byte("partial")))

	parsed, rem, err := lp.ParseInbound(framed[0][:4])
	if err != nil {
		t.Fatalf("ParseInbound: %v", err)
	}
	if len(parsed) != 0 {
		t.Fatalf("expected no complete messages from a truncated frame, got %v", parsed)
	}
	if len(rem) != 4 {
		t.Fatalf("expected the 4 partial bytes returned as remainder, got %d", len(rem))
	}
}

func TestLengthPrefixRejectsOversizeMessage(t *testing.T) {
	lp := &LengthPrefix{MaxFrameSize: 4}
	_, err := lp.FrameOutbound(types.NewMessage([]byte("toobig")))
	if err == nil {
		t.Fatal("expected an error for a message exceeding MaxFrameSize")
	}
	if e, ok := err.(*types.Error); !ok || e.Kind != types.KindInvalidMessageSize {
		t.Fatalf("expected KindInvalidMessageSize, got %v", err)
	}
}

func TestLengthPrefixRejectsOversizeAnnouncedFrame(t *testing.T) {
	lp := &LengthPrefix{MaxFrameSize: 4}
	oversized := []byte{0, 0, 0, 100, 0} // announces a 100-byte frame
	_, _, err := lp.ParseInbound(oversized)
	if err == nil {
		t.Fatal("expected an error for a peer-announced frame exceeding MaxFrameSize")
	}
}

func TestLengthPrefixDefaultMaxFrameSize(t *testing.T) {
	lp := NewLengthPrefix()
	if lp.MaxFrameSize != DefaultMaxFrameSize {
		t.Errorf("NewLengthPrefix MaxFrameSize = %d, want %d", lp.MaxFrameSize, DefaultMaxFrameSize)
	}
}
