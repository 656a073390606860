// Package linksock opens a raw L2 socket bound to a single network
// interface: one socket observes all traffic on the wire, with EtherType
// filtering left to user code.
package linksock

import (
	"fmt"
	"os"
	"strings"

	"github.com/linkchat/linkchat"
)

// maxFrame is large enough to hold any single LinkChat frame: 14-byte
// Ethernet header + 25-byte application header + a 65535-byte payload.
const maxFrame = 65535 + ethernet.HeaderLen + ethernet.AppHeaderLen

// readMAC reads the hardware address of iface from sysfs.
func readMAC(iface string) (ethernet.HardwareAddr, error) {
	path := fmt.Sprintf("/sys/class/net/%s/address", iface)
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ethernet.HardwareAddr{}, fmt.Errorf("%w: %s", ErrInterfaceMissing, iface)
		}
		return ethernet.HardwareAddr{}, err
	}
	addr, err := ethernet.ParseHardwareAddr(strings.TrimSpace(string(b)))
	if err != nil {
		return ethernet.HardwareAddr{}, fmt.Errorf("linksock: parsing MAC for %s: %w", iface, err)
	}
	return addr, nil
}

// Frame is a received raw frame paired with its source MAC and EtherType,
// decoded enough for the dispatcher to filter on without a second parse.
type Frame struct {
	Src       ethernet.HardwareAddr
	EtherType ethernet.EtherType
	Payload   []byte
}
