//go:build !linux

package linksock

import (
	"fmt"
	"runtime"
	"time"

	"github.com/linkchat/linkchat"
)

// Socket is a stub on non-Linux platforms: raw AF_PACKET sockets are a
// Linux-specific facility, and the spec scopes interface MAC lookup to
// "/sys/class/net" (Linux only). Open always fails here so that callers
// get a clear error instead of a silent no-op transport.
type Socket struct{}

func Open(iface string) (*Socket, error) {
	return nil, fmt.Errorf("linksock: raw L2 sockets are not supported on %s", runtime.GOOS)
}

func (s *Socket) LocalMAC() ethernet.HardwareAddr { return ethernet.HardwareAddr{} }

func (s *Socket) SetReadTimeout(d time.Duration) error { return nil }

func (s *Socket) Send(dst ethernet.HardwareAddr, payload []byte, etherType ethernet.EtherType) error {
	return fmt.Errorf("linksock: unsupported platform %s", runtime.GOOS)
}

func (s *Socket) Recv() (Frame, error) {
	return Frame{}, fmt.Errorf("linksock: unsupported platform %s", runtime.GOOS)
}

func (s *Socket) Close() error { return nil }
