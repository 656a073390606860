// Package messaging implements the chat channel and its peer discovery
// sub-protocol, layered on top of a dispatch.Dispatcher.
package messaging

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/linkchat/linkchat"
	"github.com/linkchat/linkchat/dispatch"
	"github.com/linkchat/linkchat/internal/applog"
	"github.com/linkchat/linkchat/internal/linksock"
)

var log = applog.Get("messaging")

// Discovery magic strings, exact bytes.
const (
	discoverRequest     = "__LINKCHAT_DISCOVER_REQ__"
	discoverReplyPrefix = "__LINKCHAT_DISCOVER_RPLY__|"
)

// discoveryPollInterval bounds each read while collecting discovery
// replies, so DiscoverPeers can honor ctx cancellation promptly.
const discoveryPollInterval = 100 * time.Millisecond

// Handler receives a decoded chat message. The discovery request/reply
// magic strings are never handed to this handler — only ordinary chat
// text is.
type Handler func(src ethernet.HardwareAddr, text string)

// Peer is one discovered host: its MAC address and self-reported display
// name.
type Peer struct {
	MAC  ethernet.HardwareAddr
	Name string
}

// Channel sends and receives chat messages and runs peer discovery over a
// dispatch.Dispatcher.
type Channel struct {
	disp        *dispatch.Dispatcher
	displayName string

	mu      sync.Mutex
	handler Handler
}

// New returns a Channel bound to disp. disp must already be constructed
// (Start need not have been called yet); displayName is what this host
// reports to discovery requests — pass "" to derive "$USER@$(hostname)".
func New(disp *dispatch.Dispatcher, displayName string) *Channel {
	if displayName == "" {
		displayName = defaultDisplayName()
	}
	return &Channel{disp: disp, displayName: displayName}
}

func defaultDisplayName() string {
	user := os.Getenv("USER")
	if user == "" {
		user = "user"
	}
	host, err := os.Hostname()
	if err != nil {
		host = "host"
	}
	return user + "@" + host
}

// SendMessage UTF-8 encodes text and sends it as a CHAT-channel message to
// dest. An empty (zero) dest resolves to the broadcast address, matching
// the common convention for this kind of API.
func (c *Channel) SendMessage(dest ethernet.HardwareAddr, text string, seq uint32) error {
	if dest.IsEmpty() {
		dest = ethernet.BroadcastAddr
	}
	pkt, err := ethernet.EncodeApp(ethernet.MsgText, ethernet.ChannelChat, seq, nil, []byte(text))
	if err != nil {
		return fmt.Errorf("messaging: encode: %w", err)
	}
	return c.disp.Send(dest, pkt)
}

// StartMessageLoop registers handler as the CHAT-channel message handler
// on the underlying dispatcher and installs the discovery auto-responder.
// The dispatcher must already be running (or Start it right after calling
// this).
func (c *Channel) StartMessageLoop(handler Handler) {
	c.mu.Lock()
	c.handler = handler
	c.mu.Unlock()

	c.disp.RegisterChannelHandler(ethernet.ChannelChat, c.onChatFrame)
}

// StopMessageLoop delegates to the dispatcher's Stop.
func (c *Channel) StopMessageLoop() {
	c.disp.Stop()
}

func (c *Channel) onChatFrame(src ethernet.HardwareAddr, header ethernet.AppHeader) {
	if header.Type != ethernet.MsgText {
		return
	}
	text := decodeUTF8Lossy(header.Payload)

	if text == discoverRequest {
		c.autoReply(src)
		return
	}
	if strings.HasPrefix(text, discoverReplyPrefix) {
		// Stray reply outside an active DiscoverPeers window: not user
		// chat text, drop it the same as a request.
		return
	}

	c.mu.Lock()
	h := c.handler
	c.mu.Unlock()
	if h != nil {
		h(src, text)
	}
}

func (c *Channel) autoReply(src ethernet.HardwareAddr) {
	reply := discoverReplyPrefix + c.displayName
	if err := c.SendMessage(src, reply, 0); err != nil {
		log.Debugf("messaging: discovery auto-reply to %s failed: %v", src, err)
	}
}

// DiscoverPeers broadcasts a discovery request and collects replies for
// timeout, returning whatever peers answered in that window regardless of
// how many arrived.
func (c *Channel) DiscoverPeers(ctx context.Context, timeout time.Duration) ([]Peer, error) {
	sock, err := linksock.Open(c.disp.Interface())
	if err != nil {
		return nil, fmt.Errorf("messaging: discovery socket: %w", err)
	}
	defer sock.Close()
	if err := sock.SetReadTimeout(discoveryPollInterval); err != nil {
		return nil, fmt.Errorf("messaging: discovery socket timeout: %w", err)
	}

	reqPkt, err := ethernet.EncodeApp(ethernet.MsgText, ethernet.ChannelChat, 0, nil, []byte(discoverRequest))
	if err != nil {
		return nil, err
	}
	if err := sock.Send(ethernet.BroadcastAddr, reqPkt, ethernet.EtherTypeLinkChat); err != nil {
		return nil, fmt.Errorf("messaging: discovery request: %w", err)
	}

	seen := make(map[ethernet.HardwareAddr]string)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return peerList(seen), ctx.Err()
		default:
		}

		frame, err := sock.Recv()
		if err != nil {
			continue
		}
		if frame.EtherType != ethernet.EtherTypeLinkChat {
			continue
		}
		header, err := ethernet.DecodeApp(frame.Payload)
		if err != nil || header.Type != ethernet.MsgText {
			continue
		}
		text := decodeUTF8Lossy(header.Payload)
		if strings.HasPrefix(text, discoverReplyPrefix) {
			seen[frame.Src] = strings.TrimPrefix(text, discoverReplyPrefix)
		}
	}
	return peerList(seen), nil
}

func peerList(seen map[ethernet.HardwareAddr]string) []Peer {
	peers := make([]Peer, 0, len(seen))
	for mac, name := range seen {
		peers = append(peers, Peer{MAC: mac, Name: name})
	}
	return peers
}

// SendMessageToAll discovers peers within discoverTimeout and unicasts
// text to each, returning the MACs actually reached.
func (c *Channel) SendMessageToAll(ctx context.Context, text string, discoverTimeout time.Duration) ([]ethernet.HardwareAddr, error) {
	peers, err := c.DiscoverPeers(ctx, discoverTimeout)
	if err != nil && len(peers) == 0 {
		return nil, err
	}

	var reached []ethernet.HardwareAddr
	for _, p := range peers {
		if sendErr := c.SendMessage(p.MAC, text, 0); sendErr == nil {
			reached = append(reached, p.MAC)
		}
	}
	return reached, nil
}

func decodeUTF8Lossy(b []byte) string {
	return strings.ToValidUTF8(string(b), "�")
}
