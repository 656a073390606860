// Package dispatch implements the background receive dispatcher
// a single goroutine that reads raw frames, filters by
// EtherType, decodes the application header, and routes each frame to the
// handlers registered for its channel.
package dispatch

import (
	"errors"
	"sync"
	"time"

	"github.com/linkchat/linkchat"
	"github.com/linkchat/linkchat/internal/applog"
	"github.com/linkchat/linkchat/internal/linksock"
)

var log = applog.Get("dispatch")

// Handler processes one decoded frame on the dispatcher's single receive
// goroutine. Long work must be handed off elsewhere.
type Handler func(src ethernet.HardwareAddr, header ethernet.AppHeader)

// pollInterval bounds each blocking Recv so Stop can observe the stop
// signal promptly without relying solely on the socket being closed out
// from under a blocked read.
const pollInterval = 200 * time.Millisecond

// Dispatcher owns the receive socket and goroutine for one interface. It is
// an explicit value with its own lifetime — not process-global state — per
// its own lifetime.
type Dispatcher struct {
	iface string

	mu       sync.Mutex
	handlers map[byte][]Handler
	anyAll   []Handler

	runMu   sync.Mutex
	sock    *linksock.Socket
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New returns a Dispatcher that will bind to iface once Start is called.
func New(iface string) *Dispatcher {
	return &Dispatcher{
		iface:    iface,
		handlers: make(map[byte][]Handler),
	}
}

// RegisterChannelHandler registers handler for channel. Handlers for the
// same channel run in registration order, sequentially, on the receive
// goroutine. O(1) append under the registry mutex.
func (d *Dispatcher) RegisterChannelHandler(channel byte, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[channel] = append(d.handlers[channel], handler)
}

// RegisterAnyHandler registers a handler invoked for every decoded frame,
// regardless of channel, after any channel-specific handlers have run.
func (d *Dispatcher) RegisterAnyHandler(handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.anyAll = append(d.anyAll, handler)
}

// Start opens the receive socket and launches the background receive
// goroutine. Starting an already-running Dispatcher is a no-op.
func (d *Dispatcher) Start() error {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.running {
		return nil
	}

	sock, err := linksock.Open(d.iface)
	if err != nil {
		return err
	}
	if err := sock.SetReadTimeout(pollInterval); err != nil {
		sock.Close()
		return err
	}

	d.sock = sock
	d.stopCh = make(chan struct{})
	d.doneCh = make(chan struct{})
	d.running = true

	go d.recvLoop(sock, d.stopCh, d.doneCh)
	return nil
}

// Send transmits payload (already including the 25-byte application
// header) as a LinkChat frame to dest, using the dispatcher's own socket.
// Start must have been called first.
func (d *Dispatcher) Send(dest ethernet.HardwareAddr, payload []byte) error {
	d.runMu.Lock()
	sock := d.sock
	d.runMu.Unlock()
	if sock == nil {
		return errors.New("dispatch: Send called before Start")
	}
	return sock.Send(dest, payload, ethernet.EtherTypeLinkChat)
}

// Interface returns the name of the network interface this dispatcher is
// bound to (or will bind to on Start).
func (d *Dispatcher) Interface() string { return d.iface }

// LocalMAC returns the MAC address of the bound interface. Valid only
// after a successful Start.
func (d *Dispatcher) LocalMAC() ethernet.HardwareAddr {
	d.runMu.Lock()
	defer d.runMu.Unlock()
	if d.sock == nil {
		return ethernet.HardwareAddr{}
	}
	return d.sock.LocalMAC()
}

// Stop signals the receive goroutine to exit, closes the receive socket,
// and joins the goroutine with a bounded timeout. After Stop returns, no
// further handler invocation occurs. Stopping an already-stopped
// Dispatcher is a no-op.
func (d *Dispatcher) Stop() {
	d.runMu.Lock()
	if !d.running {
		d.runMu.Unlock()
		return
	}
	d.running = false
	close(d.stopCh)
	sock := d.sock
	done := d.doneCh
	d.runMu.Unlock()

	if sock != nil {
		sock.Close()
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		log.Warningf("dispatcher: receive goroutine did not exit within 1s")
	}
}

func (d *Dispatcher) recvLoop(sock *linksock.Socket, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		frame, err := sock.Recv()
		if err != nil {
			if errors.Is(err, linksock.ErrSocketClosed) {
				return
			}
			// Read timeout (pollInterval) or a transient recv error: loop
			// back around to re-check the stop signal.
			continue
		}

		if frame.EtherType != ethernet.EtherTypeLinkChat {
			continue
		}

		header, err := ethernet.DecodeApp(frame.Payload)
		if err != nil {
			log.Debugf("dropping malformed frame from %s: %v", frame.Src, err)
			continue
		}
		if header.Version != ethernet.Version {
			log.Debugf("dropping frame from %s with version %d", frame.Src, header.Version)
			continue
		}

		d.dispatch(frame.Src, header)
	}
}

func (d *Dispatcher) dispatch(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	d.mu.Lock()
	channelHandlers := append([]Handler(nil), d.handlers[header.Channel]...)
	anyHandlers := append([]Handler(nil), d.anyAll...)
	d.mu.Unlock()

	for _, h := range channelHandlers {
		invoke(h, src, header)
	}
	for _, h := range anyHandlers {
		invoke(h, src, header)
	}
}

func invoke(h Handler, src ethernet.HardwareAddr, header ethernet.AppHeader) {
	applog.RecoverToLog(log, func() {
		h(src, header)
	})
}
