// This package contains helper functions around the SM2 primitives used by the reveal client and the devnet.
// It covers the encoding of plaintext values, sealing values to a public key and the digest that co-validators attest to.
package cipherutils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/zeebo/blake3"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// ValueSize is the length of an encoded plaintext value.
const ValueSize = 8

// EncodeValue encodes a plaintext value as 8 big-endian bytes.
func EncodeValue(value uint64) []byte {
	ret := make([]byte, ValueSize)
	binary.BigEndian.PutUint64(ret, value)
	return ret
}

// DecodeValue decodes 8 big-endian bytes into a plaintext value.
func DecodeValue(valueBytes []byte) (uint64, error) {
	if len(valueBytes) != ValueSize {
		return 0, fmt.Errorf("明文长度不正确，应为 %v 字节，得到 %v 字节", ValueSize, len(valueBytes))
	}

	return binary.BigEndian.Uint64(valueBytes), nil
}

// SealValue encrypts a plaintext value to `publicKey` with SM2 (C1C3C2 layout).
func SealValue(publicKey *sm2.PublicKey, value uint64) ([]byte, error) {
	sealed, err := sm2.Encrypt(publicKey, EncodeValue(value), rand.Reader, sm2.C1C3C2)
	if err != nil {
		return nil, errors.Wrap(err, "无法加密明文")
	}

	return sealed, nil
}

// OpenValue decrypts a value sealed by `SealValue`.
func OpenValue(privateKey *sm2.PrivateKey, sealed []byte) (uint64, error) {
	valueBytes, err := sm2.Decrypt(privateKey, sealed, sm2.C1C3C2)
	if err != nil {
		return 0, errors.Wrap(err, "无法解密密文")
	}

	return DecodeValue(valueBytes)
}

// AttestationDigest is the message a co-validator signs to vouch for the decryption of `h` into `value`:
// BLAKE3(handle || uint64-BE value).
func AttestationDigest(h handle.EncryptedHandle, value uint64) []byte {
	hasher := blake3.New()
	_, _ = hasher.Write(h[:])
	_, _ = hasher.Write(EncodeValue(value))
	return hasher.Sum(nil)
}

// Sign signs `msg` with an SM2 private key.
func Sign(privateKey *sm2.PrivateKey, msg []byte) ([]byte, error) {
	sig, err := privateKey.Sign(rand.Reader, msg, nil)
	if err != nil {
		return nil, errors.Wrap(err, "无法签名")
	}

	return sig, nil
}

// Verify checks an SM2 signature over `msg`.
func Verify(publicKey *sm2.PublicKey, msg, sig []byte) bool {
	if publicKey == nil || len(sig) == 0 {
		return false
	}

	return publicKey.Verify(msg, sig)
}
