package ethernet

import (
	"encoding/binary"
	"fmt"
)

// In computer networking, an Ethernet frame is a data link layer protocol
// data unit. Each Ethernet frame starts with a header containing the
// destination and source MAC addresses followed by the EtherType; the
// remainder of the frame is payload. A frame handed to an AF_PACKET raw
// socket carries no preamble and no frame check sequence — the NIC driver
// supplies both at the physical layer — so the wire-visible frame here is
// exactly dest(6) ‖ src(6) ‖ ethertype(2) ‖ payload.
type Frame struct {
	dst       HardwareAddr
	src       HardwareAddr
	etherType EtherType
	payload   []byte
}

// HeaderLen is the size in bytes of the Ethernet header: dest + src + ethertype.
const HeaderLen = 6 + 6 + 2

// NewFrame returns a constructed Ethernet frame with the given destination,
// source, EtherType and payload.
func NewFrame(dst, src HardwareAddr, etherType EtherType, payload []byte) *Frame {
	return &Frame{
		dst:       dst,
		src:       src,
		etherType: etherType,
		payload:   payload,
	}
}

// Source returns the frame's source MAC address.
func (f *Frame) Source() HardwareAddr { return f.src }

// Destination returns the frame's destination MAC address.
func (f *Frame) Destination() HardwareAddr { return f.dst }

// EtherType returns the frame's EtherType.
func (f *Frame) EtherType() EtherType { return f.etherType }

// Payload returns the frame's payload bytes.
func (f *Frame) Payload() []byte { return f.payload }

// String renders the frame for debug logging.
func (f *Frame) String() string {
	return fmt.Sprintf("%s -> %s ethertype=0x%04x len=%d", f.src, f.dst, uint16(f.etherType), len(f.payload))
}

// Marshal encodes the frame to its wire form: dest(6) ‖ src(6) ‖ ethertype(2) ‖ payload.
func (f *Frame) Marshal() []byte {
	b := make([]byte, HeaderLen+len(f.payload))
	copy(b[0:6], f.dst[:])
	copy(b[6:12], f.src[:])
	binary.BigEndian.PutUint16(b[12:14], uint16(f.etherType))
	copy(b[14:], f.payload)
	return b
}

// Unmarshal parses a raw Ethernet frame (as returned by a raw socket read)
// into f. Frames shorter than HeaderLen are rejected with ErrShortFrame,
// matching the Link I/O contract that short frames must be discarded by
// the caller.
func Unmarshal(b []byte, f *Frame) error {
	if len(b) < HeaderLen {
		return ErrShortFrame
	}
	copy(f.dst[:], b[0:6])
	copy(f.src[:], b[6:12])
	f.etherType = EtherType(binary.BigEndian.Uint16(b[12:14]))
	f.payload = b[14:]
	return nil
}
