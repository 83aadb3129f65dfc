package confidential

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"gitee.com/czyczk/attested-reveal/pkg/codec"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

func TestSignedPayloadsAreStable(t *testing.T) {
	req := SessionDecryptRequest{
		RequestID: "1",
		VoucherID: "2",
		Handles:   []handle.EncryptedHandle{{1}, {2}},
		IssuedAt:  1700000000,
	}

	first, err := codec.Marshal(&req)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	second, err := codec.Marshal(&req)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, first, second)

	var decoded SessionDecryptRequest
	if isNoError := assert.NoError(t, codec.Unmarshal(first, &decoded)); !isNoError {
		t.FailNow()
	}
	assert.Equal(t, req, decoded)
}

func TestAttestedPlaintextJSONOmitsUnusedValue(t *testing.T) {
	p := AttestedPlaintext{Handle: handle.EncryptedHandle{9}, Sealed: []byte{1, 2}}
	b, err := json.Marshal(&p)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	assert.NotContains(t, string(b), `"value"`)
	assert.Contains(t, string(b), `"sealed":"AQI="`)
}
