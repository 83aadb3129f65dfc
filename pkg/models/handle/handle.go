// Package handle defines the opaque reference to a ciphertext held by the confidential network.
// Values in on-chain or network state are replaced by handles; a handle is turned back into a
// plaintext only through attested decryption.
package handle

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"

	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

// Size is the fixed length of an encrypted handle in bytes.
const Size = 32

// EncryptedHandle 是机密计算网络中一份密文的定长不透明引用
type EncryptedHandle [Size]byte

// ZeroHandle means "no value has been assigned yet". It always decodes to 0 without any network call.
var ZeroHandle EncryptedHandle

// IsZero reports whether the handle is the reserved all-zero handle.
func (h EncryptedHandle) IsZero() bool {
	return h == ZeroHandle
}

// String returns the handle as "0x" followed by 64 lowercase hex digits.
func (h EncryptedHandle) String() string {
	return "0x" + hex.EncodeToString(h[:])
}

// Short returns an abbreviated form for logs.
func (h EncryptedHandle) Short() string {
	s := hex.EncodeToString(h[:])
	return "0x" + s[:8] + "…" + s[len(s)-4:]
}

// MarshalText implements encoding.TextMarshaler.
func (h EncryptedHandle) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *EncryptedHandle) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}

	*h = parsed
	return nil
}

// Parse parses a handle from its hex form. The "0x" prefix is optional.
func Parse(str string) (EncryptedHandle, error) {
	var ret EncryptedHandle

	str = strings.TrimSpace(str)
	str = strings.TrimPrefix(strings.TrimPrefix(str, "0x"), "0X")
	if len(str) != Size*2 {
		return ret, errors.Wrapf(errorcode.ErrorInvalidHandle, "句柄长度不正确，应为 %v 字节，得到 %v 个十六进制字符", Size, len(str))
	}

	decoded, err := hex.DecodeString(str)
	if err != nil {
		return ret, errors.Wrapf(errorcode.ErrorInvalidHandle, "句柄不是合法的十六进制串: %v", err)
	}

	copy(ret[:], decoded)
	return ret, nil
}

// FromBytes copies a handle from a byte slice of exactly `Size` bytes.
func FromBytes(b []byte) (EncryptedHandle, error) {
	var ret EncryptedHandle
	if len(b) != Size {
		return ret, errors.Wrapf(errorcode.ErrorInvalidHandle, "句柄长度不正确，应为 %v 字节，得到 %v 字节", Size, len(b))
	}

	copy(ret[:], b)
	return ret, nil
}

// ParseAll parses a list of handles in order.
func ParseAll(strs []string) ([]EncryptedHandle, error) {
	ret := make([]EncryptedHandle, 0, len(strs))
	for i, str := range strs {
		h, err := Parse(str)
		if err != nil {
			return nil, errors.Wrapf(err, "第 %v 个句柄无效", i+1)
		}
		ret = append(ret, h)
	}

	return ret, nil
}
