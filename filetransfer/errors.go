package filetransfer

import "errors"

// Sentinel errors, wrapped with fmt.Errorf("...: %w", ...) at
// call sites so callers can still errors.Is against them.
var (
	// ErrAckTimeout is returned when a chunk exhausts its retry budget
	// without a matching ACK.
	ErrAckTimeout = errors.New("filetransfer: ack timeout, retries exhausted")

	// ErrFileNotFound is returned by SendFile/SendFolder when the local
	// path does not exist or cannot be opened.
	ErrFileNotFound = errors.New("filetransfer: file not found")

	// ErrTransferAborted is returned when a send is aborted mid-transfer
	// (e.g. the underlying send fails).
	ErrTransferAborted = errors.New("filetransfer: transfer aborted")
)
