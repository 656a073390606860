package ethernet

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppHeaderRoundTrip(t *testing.T) {
	types := []byte{MsgText, MsgFileStart, MsgFileChunk, MsgFileEnd, MsgAck, MsgDiscover, MsgDiscoverReply}
	channels := []byte{ChannelChat, ChannelFile, ChannelDiscovery}

	for _, typ := range types {
		for _, ch := range channels {
			id := make([]byte, TransferIDLen)
			rand.Read(id)
			payload := make([]byte, 37)
			rand.Read(payload)
			seq := rand.Uint32()

			encoded, err := EncodeApp(typ, ch, seq, id, payload)
			require.NoError(t, err)

			decoded, err := DecodeApp(encoded)
			require.NoError(t, err)

			assert.Equal(t, Version, decoded.Version)
			assert.Equal(t, typ, decoded.Type)
			assert.Equal(t, ch, decoded.Channel)
			assert.Equal(t, seq, decoded.Seq)
			assert.Equal(t, id, decoded.ID[:])
			assert.Equal(t, payload, decoded.Payload)
		}
	}
}

func TestAppHeaderZeroTransferID(t *testing.T) {
	encoded, err := EncodeApp(MsgText, ChannelChat, 0, nil, []byte("hi"))
	require.NoError(t, err)

	decoded, err := DecodeApp(encoded)
	require.NoError(t, err)
	assert.False(t, decoded.HasTransferID())
	assert.Equal(t, [TransferIDLen]byte{}, decoded.ID)
}

func TestAppHeaderLayout(t *testing.T) {
	id := make([]byte, TransferIDLen)
	for i := range id {
		id[i] = byte(i + 1)
	}
	payload := []byte("hello")
	encoded, err := EncodeApp(MsgFileChunk, ChannelFile, 0x01020304, id, payload)
	require.NoError(t, err)

	require.Len(t, encoded, AppHeaderLen+len(payload))
	assert.Equal(t, Version, encoded[0])
	assert.Equal(t, MsgFileChunk, encoded[1])
	assert.Equal(t, ChannelFile, encoded[2])
	assert.Equal(t, uint32(0x01020304), binary.BigEndian.Uint32(encoded[3:7]))
	assert.Equal(t, id, encoded[7:23])
	assert.Equal(t, uint16(len(payload)), binary.BigEndian.Uint16(encoded[23:25]))
	assert.Equal(t, payload, encoded[25:])
}

func TestDecodeAppMalformed(t *testing.T) {
	for n := 0; n < AppHeaderLen; n++ {
		_, err := DecodeApp(make([]byte, n))
		assert.ErrorIs(t, err, ErrMalformedHeader, "length %d should fail", n)
	}

	// payload_len larger than the remainder of the buffer.
	h := make([]byte, AppHeaderLen)
	binary.BigEndian.PutUint16(h[23:25], 10)
	_, err := DecodeApp(h)
	assert.ErrorIs(t, err, ErrMalformedHeader)
}

func TestEncodeAppPayloadTooLarge(t *testing.T) {
	_, err := EncodeApp(MsgText, ChannelChat, 0, nil, make([]byte, MaxPayloadLen+1))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
}

func TestEncodeAppInvalidTransferID(t *testing.T) {
	_, err := EncodeApp(MsgText, ChannelChat, 0, make([]byte, 4), nil)
	assert.ErrorIs(t, err, ErrInvalidTransferID)
}

func TestEncodeAppBroadcastTextWireLayout(t *testing.T) {
	// A broadcast text message with seq=0 and no transfer id.
	encoded, err := EncodeApp(MsgText, ChannelChat, 0, nil, []byte("hello"))
	require.NoError(t, err)

	want := []byte{0x01, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00}
	want = append(want, make([]byte, TransferIDLen)...)
	want = append(want, 0x00, 0x05)
	want = append(want, []byte("hello")...)
	assert.Equal(t, want, encoded)
}
