package linksock

import "errors"

// Link I/O error kinds.
var (
	// ErrInterfaceMissing is returned when the configured interface does
	// not exist on this host.
	ErrInterfaceMissing = errors.New("linksock: interface not found")

	// ErrPermissionDenied is returned when the process lacks the
	// privilege required to open a raw AF_PACKET socket.
	ErrPermissionDenied = errors.New("linksock: permission denied opening raw socket")

	// ErrInterfaceDown is returned by Send when the bound link is not up.
	ErrInterfaceDown = errors.New("linksock: interface is down")

	// ErrSocketClosed is returned by Recv after Close has been called; the
	// dispatcher's receive loop treats this as a clean exit signal.
	ErrSocketClosed = errors.New("linksock: socket closed")
)
