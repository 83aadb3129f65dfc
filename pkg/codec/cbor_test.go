package codec

import (
	"testing"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	ID      string                   `cbor:"1,keyasint"`
	Handles []handle.EncryptedHandle `cbor:"2,keyasint"`
	Meta    map[string]int64         `cbor:"3,keyasint,omitempty"`
}

func TestMarshalIsDeterministic(t *testing.T) {
	h := handle.ZeroHandle
	h[0] = 0x42

	payload := samplePayload{
		ID:      "1",
		Handles: []handle.EncryptedHandle{h, handle.ZeroHandle},
		Meta:    map[string]int64{"b": 2, "a": 1, "c": 3},
	}

	first, err := Marshal(payload)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		again, err := Marshal(payload)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	var decoded samplePayload
	require.NoError(t, Unmarshal(first, &decoded))
	assert.Equal(t, payload, decoded)
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	var decoded samplePayload
	assert.Error(t, Unmarshal([]byte{0xff, 0x00, 0x13}, &decoded))
}
