package framer

import (
	"testing"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

type fakeConnHandle struct{ id string }

func (h fakeConnHandle) ID() string { return h.id }

type countingFramer struct {
	opened, closed int
	openErr        error
}

func (f *countingFramer) FrameOutbound(msg types.Message) ([][]byte, error) {
	return [][]byte{msg.Data}, nil
}
func (f *countingFramer) ParseInbound(in []byte) ([]types.Message, []byte, error) {
	if len(in) == 0 {
		return nil, nil, nil
	}
	return []types.Message{types.NewMessage(in)}, nil, nil
}
func (f *countingFramer) ConnectionDidOpen(ConnHandle) error { f.opened++; return f.openErr }
func (f *countingFramer) ConnectionDidClose(ConnHandle)      { f.closed++ }

func TestEmptyChainPassesDataThrough(t *testing.T) {
	c := NewChain()
	if !c.Empty() {
		t.Fatal("expected a chain with no framers to report Empty")
	}
	chunks, err := c.Outbound(types.NewMessage([]byte("hello")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 || string(chunks[0]) != "hello" {
		t.Fatalf("expected passthrough, got %v", chunks)
	}
	msgs, err := c.Inbound([]byte("world"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || string(msgs[0].Data) != "world" {
		t.Fatalf("expected one passthrough message, got %v", msgs)
	}
}

func TestChainOpenRunsAllHooksAndCollectsErrors(t *testing.T) {
	f1 := &countingFramer{}
	f2 := &countingFramer{openErr: types.NotSupported("boom")}
	c := NewChain(f1, f2)
	handle := fakeConnHandle{id: "conn-1"}

	errs := c.Open(handle)
	if len(errs) != 1 {
		t.Fatalf("expected exactly one hook error, got %d", len(errs))
	}
	if f1.opened != 1 || f2.opened != 1 {
		t.Fatalf("expected both hooks to run once, got f1=%d f2=%d", f1.opened, f2.opened)
	}

	c.CloseHooks(handle)
	if f1.closed != 1 || f2.closed != 1 {
		t.Fatalf("expected both close hooks to run once, got f1=%d f2=%d", f1.closed, f2.closed)
	}
}

func TestChainInboundTraversesLastToFirst(t *testing.T) {
	lp := NewLengthPrefix()
	c := NewChain(lp)

	outbound, err := c.Outbound(types.NewMessage([]byte("payload")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(outbound) != 1 {
		t.Fatalf("expected one framed chunk, got %d", len(outbound))
	}

	msgs, err := c.Inbound(outbound[0])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 1 || string(msgs[0].Data) != "payload" {
		t.Fatalf("expected the original payload back, got %v", msgs)
	}
}

func TestChainInboundHoldsPartialDataAcrossCalls(t *testing.T) {
	lp := NewLengthPrefix()
	c := NewChain(lp)

	framed, err := c.Outbound(types.NewMessage([]byte("split-me")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	whole := framed[0]
	first, second := whole[:3], whole[3:]

	msgs, err := c.Inbound(first)
	if err != nil {
		t.Fatalf("unexpected error on partial read: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected no complete messages from a partial header, got %v", msgs)
	}

	msgs, err = c.Inbound(second)
	if err != nil {
		t.Fatalf("unexpected error completing the read: %v", err)
	}
	if len(msgs) != 1 || string(msgs[0].Data) != "split-me" {
		t.Fatalf("expected the reassembled message, got %v", msgs)
	}
}
