package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkchat/linkchat"
)

func testHeader(channel byte, payload string) ethernet.AppHeader {
	return ethernet.AppHeader{
		Version: ethernet.Version,
		Type:    ethernet.MsgText,
		Channel: channel,
		Payload: []byte(payload),
	}
}

func TestDispatcherChannelDemultiplexing(t *testing.T) {
	d := New("eth0")

	var h1Calls, h2Calls []string
	d.RegisterChannelHandler(ethernet.ChannelChat, func(src ethernet.HardwareAddr, h ethernet.AppHeader) {
		h1Calls = append(h1Calls, string(h.Payload))
	})
	d.RegisterChannelHandler(ethernet.ChannelFile, func(src ethernet.HardwareAddr, h ethernet.AppHeader) {
		h2Calls = append(h2Calls, string(h.Payload))
	})

	d.dispatch(ethernet.NewHardwareAddr(1, 2, 3, 4, 5, 6), testHeader(ethernet.ChannelChat, "hello"))

	assert.Equal(t, []string{"hello"}, h1Calls)
	assert.Empty(t, h2Calls)
}

func TestDispatcherRegistrationOrder(t *testing.T) {
	d := New("eth0")
	var order []int
	d.RegisterChannelHandler(ethernet.ChannelChat, func(ethernet.HardwareAddr, ethernet.AppHeader) { order = append(order, 1) })
	d.RegisterChannelHandler(ethernet.ChannelChat, func(ethernet.HardwareAddr, ethernet.AppHeader) { order = append(order, 2) })
	d.RegisterChannelHandler(ethernet.ChannelChat, func(ethernet.HardwareAddr, ethernet.AppHeader) { order = append(order, 3) })

	d.dispatch(ethernet.HardwareAddr{}, testHeader(ethernet.ChannelChat, ""))

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDispatcherAnyHandlerRunsAfterChannelHandlers(t *testing.T) {
	d := New("eth0")
	var order []string
	d.RegisterChannelHandler(ethernet.ChannelChat, func(ethernet.HardwareAddr, ethernet.AppHeader) { order = append(order, "channel") })
	d.RegisterAnyHandler(func(ethernet.HardwareAddr, ethernet.AppHeader) { order = append(order, "any") })

	d.dispatch(ethernet.HardwareAddr{}, testHeader(ethernet.ChannelChat, ""))

	assert.Equal(t, []string{"channel", "any"}, order)
}

func TestDispatcherHandlerPanicDoesNotStopDelivery(t *testing.T) {
	d := New("eth0")
	var delivered []string
	d.RegisterChannelHandler(ethernet.ChannelChat, func(ethernet.HardwareAddr, ethernet.AppHeader) {
		panic("boom")
	})
	d.RegisterChannelHandler(ethernet.ChannelChat, func(src ethernet.HardwareAddr, h ethernet.AppHeader) {
		delivered = append(delivered, string(h.Payload))
	})

	require.NotPanics(t, func() {
		d.dispatch(ethernet.HardwareAddr{}, testHeader(ethernet.ChannelChat, "first"))
		d.dispatch(ethernet.HardwareAddr{}, testHeader(ethernet.ChannelChat, "second"))
	})

	assert.Equal(t, []string{"first", "second"}, delivered)
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	d := New("eth0")
	require.NotPanics(t, d.Stop)
}
