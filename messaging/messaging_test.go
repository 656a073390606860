package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkchat/linkchat"
	"github.com/linkchat/linkchat/dispatch"
)

func newTestChannel() *Channel {
	return New(dispatch.New("eth0"), "tester@host")
}

func TestSendMessageEmptyDestBeforeStartReturnsSendError(t *testing.T) {
	c := newTestChannel()
	err := c.SendMessage(ethernet.HardwareAddr{}, "hello", 0)
	// disp.Send fails here (dispatcher never Started, no socket), so the
	// resolved destination cannot be observed; this checks that an empty
	// dest does not panic and reaches the "Send before Start" error rather
	// than some other failure.
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Send called before Start")
}

func TestOnChatFrameDeliversOrdinaryText(t *testing.T) {
	c := newTestChannel()
	var got []string
	c.StartMessageLoop(func(src ethernet.HardwareAddr, text string) {
		got = append(got, text)
	})

	c.onChatFrame(ethernet.NewHardwareAddr(1, 2, 3, 4, 5, 6), ethernet.AppHeader{
		Version: ethernet.Version,
		Type:    ethernet.MsgText,
		Channel: ethernet.ChannelChat,
		Payload: []byte("hello there"),
	})

	assert.Equal(t, []string{"hello there"}, got)
}

func TestOnChatFrameSwallowsDiscoveryRequest(t *testing.T) {
	c := newTestChannel()
	var got []string
	c.StartMessageLoop(func(src ethernet.HardwareAddr, text string) {
		got = append(got, text)
	})

	c.onChatFrame(ethernet.NewHardwareAddr(9, 9, 9, 9, 9, 9), ethernet.AppHeader{
		Version: ethernet.Version,
		Type:    ethernet.MsgText,
		Channel: ethernet.ChannelChat,
		Payload: []byte(discoverRequest),
	})

	assert.Empty(t, got, "discovery request must never reach the user handler")
}

func TestOnChatFrameSwallowsDiscoveryReply(t *testing.T) {
	c := newTestChannel()
	var got []string
	c.StartMessageLoop(func(src ethernet.HardwareAddr, text string) {
		got = append(got, text)
	})

	c.onChatFrame(ethernet.NewHardwareAddr(9, 9, 9, 9, 9, 9), ethernet.AppHeader{
		Version: ethernet.Version,
		Type:    ethernet.MsgText,
		Channel: ethernet.ChannelChat,
		Payload: []byte(discoverReplyPrefix + "somebody@somewhere"),
	})

	assert.Empty(t, got, "stray discovery reply must never reach the user handler")
}

func TestOnChatFrameIgnoresNonTextMessages(t *testing.T) {
	c := newTestChannel()
	var called bool
	c.StartMessageLoop(func(src ethernet.HardwareAddr, text string) {
		called = true
	})

	c.onChatFrame(ethernet.HardwareAddr{}, ethernet.AppHeader{
		Version: ethernet.Version,
		Type:    ethernet.MsgAck,
		Channel: ethernet.ChannelChat,
		Payload: nil,
	})

	assert.False(t, called)
}

func TestDefaultDisplayNameNeverEmpty(t *testing.T) {
	assert.NotEmpty(t, defaultDisplayName())
}

func TestPeerListFromSeenMap(t *testing.T) {
	seen := map[ethernet.HardwareAddr]string{
		{1, 1, 1, 1, 1, 1}: "alice@host1",
		{2, 2, 2, 2, 2, 2}: "bob@host2",
	}
	peers := peerList(seen)
	assert.Len(t, peers, 2)

	names := make(map[string]bool)
	for _, p := range peers {
		names[p.Name] = true
	}
	assert.True(t, names["alice@host1"])
	assert.True(t, names["bob@host2"])
}
