package ethernet

// EtherType is a two-octet field in an Ethernet frame.
// It is used to indicate which protocol is encapsulated in the payload
// of the frame and is used at the receiving end by the data link layer to
// determine how the payload is processed.
//
// http://www.iana.org/assignments/ieee-802-numbers/ieee-802-numbers.xhtml
type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeIPv6 EtherType = 0x86DD
	EtherTypeVlan EtherType = 0x8100

	// EtherTypeLinkChat is the private EtherType this system uses for all
	// of its traffic. Frames carrying any other EtherType are ignored by
	// the dispatcher.
	EtherTypeLinkChat EtherType = 0x1234
)
