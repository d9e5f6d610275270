package framer

import (
	"encoding/binary"

	"github.com/edgeengineer/transport-services-sub001/pkg/types"
)

const (
	lengthPrefixHeaderSize = 5 // 4-byte big-endian length + 1 flags byte

	flagSafelyReplayable = byte(0x01)
	flagFinal            = byte(0x02)

	// DefaultMaxFrameSize bounds the length field, which counts the flags
	// byte plus the payload; the largest payload is therefore one byte
	// smaller. Oversize frames fail with invalidMessageSize rather than
	// silently truncating.
	DefaultMaxFrameSize = 1 << 20
)

// LengthPrefix is the built-in message framer: each frame is a 4-byte
// big-endian length covering the flags byte and the payload, one flags byte
// (0x01 carries Context.SafelyReplayable, 0x02 carries Context.Final),
// followed by the payload.
type LengthPrefix struct {
	MaxFrameSize int
}

// NewLengthPrefix builds a LengthPrefix framer with DefaultMaxFrameSize.
func NewLengthPrefix() *LengthPrefix {
	return &LengthPrefix{MaxFrameSize: DefaultMaxFrameSize}
}

func (f *LengthPrefix) maxSize() int {
	if f.MaxFrameSize <= 0 {
		return DefaultMaxFrameSize
	}
	return f.MaxFrameSize
}

func (f *LengthPrefix) FrameOutbound(msg types.Message) ([][]byte, error) {
	if len(msg.Data) > f.maxSize()-1 {
		return nil, types.Newf(types.KindInvalidMessageSize, "message of %d bytes exceeds max payload size %d", len(msg.Data), f.maxSize()-1)
	}
	buf := make([]byte, lengthPrefixHeaderSize+len(msg.Data))
	binary.BigEndian.PutUint32(buf[0:4], uint32(1+len(msg.Data)))
	if msg.Context.SafelyReplayable {
		buf[4] |= flagSafelyReplayable
	}
	if msg.Context.Final {
		buf[4] |= flagFinal
	}
	copy(buf[lengthPrefixHeaderSize:], msg.Data)
	return [][]byte{buf}, nil
}

func (f *LengthPrefix) ParseInbound(in []byte) ([]types.Message, []byte, error) {
	var msgs []types.Message
	for {
		if len(in) < lengthPrefixHeaderSize {
			return msgs, in, nil
		}
		size := binary.BigEndian.Uint32(in[0:4])
		if size == 0 {
			return nil, nil, types.Newf(types.KindInvalidMessageSize, "peer announced a zero-length frame (length must count the flags byte)")
		}
		if int(size) > f.maxSize() {
			return nil, nil, types.Newf(types.KindInvalidMessageSize, "peer announced frame of %d bytes, exceeds max %d", size, f.maxSize())
		}
		total := 4 + int(size)
		if len(in) < total {
			return msgs, in, nil
		}
		flags := in[4]
		payload := make([]byte, size-1)
		copy(payload, in[lengthPrefixHeaderSize:total])
		msgs = append(msgs, types.Message{
			Data: payload,
			Context: types.MessageContext{
				SafelyReplayable: flags&flagSafelyReplayable != 0,
				Final:            flags&flagFinal != 0,
			},
		})
		in = in[total:]
	}
}

func (f *LengthPrefix) ConnectionDidOpen(ConnHandle) error { return nil }
func (f *LengthPrefix) ConnectionDidClose(ConnHandle)      {}
