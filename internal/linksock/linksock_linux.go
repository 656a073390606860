//go:build linux

package linksock

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/linkchat/linkchat"
)

// Socket is a raw AF_PACKET/SOCK_RAW socket bound to one network interface.
// It observes all L2 traffic on the interface; EtherType filtering is left
// to the caller (the dispatcher).
type Socket struct {
	fd      int
	ifIndex int
	ifName  string
	mac     ethernet.HardwareAddr

	mu     sync.Mutex
	closed bool
}

// Open binds a new raw socket to iface, observing every EtherType.
func Open(iface string) (*Socket, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInterfaceMissing, iface)
	}

	mac, err := readMAC(iface)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		return nil, fmt.Errorf("linksock: socket: %w", err)
	}

	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifi.Index,
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linksock: bind %s: %w", iface, err)
	}

	return &Socket{fd: fd, ifIndex: ifi.Index, ifName: iface, mac: mac}, nil
}

// LocalMAC returns the hardware address of the bound interface.
func (s *Socket) LocalMAC() ethernet.HardwareAddr { return s.mac }

// SetReadTimeout bounds how long Recv blocks before returning a timeout
// error. A zero duration blocks indefinitely.
func (s *Socket) SetReadTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv)
}

// Send assembles the Ethernet header and writes the whole frame in one
// syscall.
func (s *Socket) Send(dst ethernet.HardwareAddr, payload []byte, etherType ethernet.EtherType) error {
	frame := ethernet.NewFrame(dst, s.mac, etherType, payload).Marshal()
	addr := &unix.SockaddrLinklayer{
		Protocol: htons(uint16(etherType)),
		Ifindex:  s.ifIndex,
		Halen:    6,
	}
	copy(addr.Addr[:6], dst[:])

	if err := unix.Sendto(s.fd, frame, 0, addr); err != nil {
		if errors.Is(err, unix.EPERM) {
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		}
		if errors.Is(err, unix.ENETDOWN) {
			return fmt.Errorf("%w: %v", ErrInterfaceDown, err)
		}
		return fmt.Errorf("linksock: send: %w", err)
	}
	return nil
}

// Recv blocks for one frame (up to the configured read timeout) and
// returns the source MAC, EtherType, and payload. Frames shorter than the
// 14-byte Ethernet header are reported via ethernet.ErrShortFrame; callers
// should discard and retry rather than treat it as fatal.
func (s *Socket) Recv() (Frame, error) {
	buf := make([]byte, maxFrame)
	n, _, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EWOULDBLOCK) {
			return Frame{}, fmt.Errorf("linksock: read timeout: %w", err)
		}
		if errors.Is(err, unix.EBADF) || errors.Is(err, unix.EINVAL) {
			return Frame{}, ErrSocketClosed
		}
		return Frame{}, fmt.Errorf("linksock: recvfrom: %w", err)
	}

	var f ethernet.Frame
	if err := ethernet.Unmarshal(buf[:n], &f); err != nil {
		return Frame{}, err
	}
	return Frame{Src: f.Source(), EtherType: f.EtherType(), Payload: f.Payload()}, nil
}

// Close closes the underlying file descriptor. A Recv blocked in the
// kernel wakes with ErrSocketClosed (via EBADF) once this returns.
func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return unix.Close(s.fd)
}

func htons(v uint16) uint16 {
	return (v<<8)&0xff00 | v>>8
}
