package ethernet

import (
	"encoding/binary"
	"fmt"
)

// Message kinds carried in the application header's type byte.
const (
	MsgText          byte = 0x01
	MsgFileStart     byte = 0x02
	MsgFileChunk     byte = 0x03
	MsgFileEnd       byte = 0x04
	MsgAck           byte = 0x05
	MsgDiscover      byte = 0x06
	MsgDiscoverReply byte = 0x07
)

// Logical channels used to demultiplex frames sharing EtherTypeLinkChat.
const (
	ChannelChat      byte = 0x01
	ChannelFile      byte = 0x02
	ChannelDiscovery byte = 0x03
)

// Version is the only application header version this implementation
// speaks. Receivers MUST drop frames with any other version.
const Version byte = 1

// AppHeaderLen is the size in bytes of the application header:
// version(1) + type(1) + channel(1) + seq(4) + id(16) + payload_len(2).
const AppHeaderLen = 1 + 1 + 1 + 4 + 16 + 2

// TransferIDLen is the size in bytes of a transfer identifier.
const TransferIDLen = 16

// MaxPayloadLen is the largest payload a single application header can
// describe (payload_len is a 16-bit field).
const MaxPayloadLen = 0xFFFF

// AppHeader is the 25-byte header carried inside every LinkChat frame's
// payload, ahead of the message payload itself.
type AppHeader struct {
	Version byte
	Type    byte
	Channel byte
	Seq     uint32
	ID      [TransferIDLen]byte
	Payload []byte
}

// EncodeApp builds a header+payload byte slice for a message of the given
// type and channel. A nil id encodes as 16 zero bytes (no transfer
// context); a non-nil id must be exactly TransferIDLen bytes.
func EncodeApp(msgType, channel byte, seq uint32, id []byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, len(payload))
	}
	var idBytes [TransferIDLen]byte
	if id != nil {
		if len(id) != TransferIDLen {
			return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidTransferID, len(id))
		}
		copy(idBytes[:], id)
	}

	b := make([]byte, AppHeaderLen+len(payload))
	b[0] = Version
	b[1] = msgType
	b[2] = channel
	binary.BigEndian.PutUint32(b[3:7], seq)
	copy(b[7:23], idBytes[:])
	binary.BigEndian.PutUint16(b[23:25], uint16(len(payload)))
	copy(b[25:], payload)
	return b, nil
}

// DecodeApp parses data (header + payload) into an AppHeader. It fails
// with ErrMalformedHeader when data is shorter than AppHeaderLen or when
// the declared payload_len exceeds the available remainder.
func DecodeApp(data []byte) (AppHeader, error) {
	var h AppHeader
	if len(data) < AppHeaderLen {
		return h, fmt.Errorf("%w: %d bytes", ErrMalformedHeader, len(data))
	}

	h.Version = data[0]
	h.Type = data[1]
	h.Channel = data[2]
	h.Seq = binary.BigEndian.Uint32(data[3:7])
	copy(h.ID[:], data[7:23])
	payloadLen := int(binary.BigEndian.Uint16(data[23:25]))

	if AppHeaderLen+payloadLen > len(data) {
		return AppHeader{}, fmt.Errorf("%w: payload_len=%d exceeds remainder", ErrMalformedHeader, payloadLen)
	}
	h.Payload = data[AppHeaderLen : AppHeaderLen+payloadLen]
	return h, nil
}

// HasTransferID reports whether h carries a non-zero transfer id.
func (h AppHeader) HasTransferID() bool {
	for _, b := range h.ID {
		if b != 0 {
			return true
		}
	}
	return false
}
