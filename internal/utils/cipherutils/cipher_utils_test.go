package cipherutils

import (
	"crypto/rand"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

func TestSealOpenValue(t *testing.T) {
	privKey, err := sm2.GenerateKey(rand.Reader)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	for _, value := range []uint64{0, 1, 42, math.MaxUint64} {
		sealed, err := SealValue(&privKey.PublicKey, value)
		if isNoError := assert.NoError(t, err); !isNoError {
			t.FailNow()
		}

		opened, err := OpenValue(privKey, sealed)
		if isNoError := assert.NoError(t, err); !isNoError {
			t.FailNow()
		}
		assert.Equal(t, value, opened)
	}
}

func TestOpenValueWithWrongKey(t *testing.T) {
	privKey, _ := sm2.GenerateKey(rand.Reader)
	otherKey, _ := sm2.GenerateKey(rand.Reader)

	sealed, err := SealValue(&privKey.PublicKey, 7)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	_, err = OpenValue(otherKey, sealed)
	assert.Error(t, err)
}

func TestDecodeValueLength(t *testing.T) {
	_, err := DecodeValue([]byte{1, 2, 3})
	assert.Error(t, err)

	value, err := DecodeValue(EncodeValue(1 << 40))
	assert.NoError(t, err)
	assert.Equal(t, uint64(1<<40), value)
}

func TestAttestationSignature(t *testing.T) {
	validatorKey, _ := sm2.GenerateKey(rand.Reader)
	h := handle.EncryptedHandle{1, 2, 3}

	digest := AttestationDigest(h, 99)
	assert.Len(t, digest, 32)
	assert.NotEqual(t, digest, AttestationDigest(h, 100))

	sig, err := Sign(validatorKey, digest)
	if isNoError := assert.NoError(t, err); !isNoError {
		t.FailNow()
	}

	assert.True(t, Verify(&validatorKey.PublicKey, digest, sig))
	assert.False(t, Verify(&validatorKey.PublicKey, AttestationDigest(h, 100), sig))
	assert.False(t, Verify(nil, digest, sig))
	assert.False(t, Verify(&validatorKey.PublicKey, digest, nil))
}
