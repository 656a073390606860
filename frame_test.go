package ethernet

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameMarshal(t *testing.T) {
	type suite struct {
		name    string
		src     HardwareAddr
		dst     HardwareAddr
		payload []byte
		wantLen int
	}

	testCases := []suite{
		{
			name:    "positive_short_payload",
			src:     HardwareAddr{127, 127, 127, 50, 50, 50},
			dst:     HardwareAddr{255, 255, 255, 50, 50, 50},
			payload: []byte("HELLO"),
			wantLen: HeaderLen + 5,
		},
		{
			name:    "positive_empty_payload",
			src:     HardwareAddr{127, 127, 127, 50, 50, 50},
			dst:     BroadcastAddr,
			payload: nil,
			wantLen: HeaderLen,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFrame(tc.dst, tc.src, EtherTypeLinkChat, tc.payload)
			b := f.Marshal()
			assert.Len(t, b, tc.wantLen)
			assert.Equal(t, tc.dst, HardwareAddr(b[0:6]))
			assert.Equal(t, tc.src, HardwareAddr(b[6:12]))
		})
	}
}

func generatePayload(n int) []byte {
	s := make([]byte, n)
	rand.Read(s)
	return s
}

func BenchmarkFrameMarshal(b *testing.B) {
	payload := generatePayload(1024)
	b.ResetTimer()
	f := NewFrame(HardwareAddr{127, 127, 127, 50, 50, 50}, HardwareAddr{255, 255, 255, 50, 50, 50}, EtherTypeLinkChat, payload)
	for i := 0; i < b.N; i++ {
		_ = f.Marshal()
	}
}

func TestFrameUnmarshal(t *testing.T) {
	type suite struct {
		name            string
		data            []byte
		wantSource      HardwareAddr
		wantDestination HardwareAddr
		wantErr         bool
	}

	testCases := []suite{
		{
			name:            "positive_min",
			data:            []byte{127, 127, 127, 50, 50, 50, 255, 255, 255, 50, 50, 50, 0x12, 0x34, 72, 69},
			wantSource:      HardwareAddr{255, 255, 255, 50, 50, 50},
			wantDestination: HardwareAddr{127, 127, 127, 50, 50, 50},
		},
		{
			name:    "negative_too_short",
			data:    []byte{1, 2, 3},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var f Frame
			err := Unmarshal(tc.data, &f)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrShortFrame)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.wantSource, f.Source(), "source mismatch")
			assert.Equal(t, tc.wantDestination, f.Destination(), "destination mismatch")
			assert.Equal(t, EtherTypeLinkChat, f.EtherType())
		})
	}
}

func BenchmarkFrameUnmarshal(b *testing.B) {
	payload := generatePayload(1024)
	data := NewFrame(HardwareAddr{127, 127, 127, 50, 50, 50}, HardwareAddr{255, 255, 255, 50, 50, 50}, EtherTypeLinkChat, payload).Marshal()
	for i := 0; i < b.N; i++ {
		var f Frame
		if err := Unmarshal(data, &f); err != nil {
			b.Fatal(err)
		}
	}
}
