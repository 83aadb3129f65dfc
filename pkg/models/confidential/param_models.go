// Package confidential holds the models exchanged with the confidential-compute network.
// Payloads that get signed are CBOR-encoded with integer keys (see `pkg/codec`); everything travels to the
// gateway as JSON.
package confidential

import (
	"time"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// Signed 是一份已签名的载荷。Payload 为确定性 CBOR 编码的请求，Signature 为签名者对 Payload 的 SM2 签名。
type Signed struct {
	Payload   []byte `json:"payload"`   // 载荷（JSON 中为 Base64 编码）
	Signature []byte `json:"signature"` // 签名（JSON 中为 Base64 编码）
}

// EncryptRequest 表示要交给机密计算网络加密的明文
type EncryptRequest struct {
	Value uint64 `json:"value"` // 明文
	Owner string `json:"owner"` // 所有者地址
	Scope string `json:"scope"` // 作用域（通常为使用该密文的合约或业务对象）
}

// GrantAccessRequest 表示对一个句柄的解密授权
type GrantAccessRequest struct {
	Handle  handle.EncryptedHandle `json:"handle"`  // 句柄
	Grantee string                 `json:"grantee"` // 被授权者地址
}

// VoucherRequest 是所有者签名的会话委托请求，将临时会话公钥绑定到所有者地址
type VoucherRequest struct {
	ID               string `cbor:"1,keyasint" json:"id"`               // 凭证 ID（snowflake）
	Owner            string `cbor:"2,keyasint" json:"owner"`            // 所有者地址
	OwnerPublicKey   []byte `cbor:"3,keyasint" json:"ownerPublicKey"`   // 所有者公钥（[64]byte）
	SessionPublicKey []byte `cbor:"4,keyasint" json:"sessionPublicKey"` // 临时会话公钥（[64]byte）
	Verifier         string `cbor:"5,keyasint" json:"verifier"`         // 凭证适用的验证方（作用域）
	IssuedAt         int64  `cbor:"6,keyasint" json:"issuedAt"`         // 签发时间（Unix 秒）
	ExpiresAt        int64  `cbor:"7,keyasint" json:"expiresAt"`        // 过期时间（Unix 秒）
}

// ExpiresAtTime returns the expiry as a time.Time.
func (r *VoucherRequest) ExpiresAtTime() time.Time {
	return time.Unix(r.ExpiresAt, 0)
}

// OwnerDecryptRequest 是所有者交互式签名的解密请求
type OwnerDecryptRequest struct {
	RequestID      string                   `cbor:"1,keyasint" json:"requestId"`      // 请求 ID
	Owner          string                   `cbor:"2,keyasint" json:"owner"`          // 所有者地址
	OwnerPublicKey []byte                   `cbor:"3,keyasint" json:"ownerPublicKey"` // 所有者公钥（[64]byte）
	Handles        []handle.EncryptedHandle `cbor:"4,keyasint" json:"handles"`        // 要解密的句柄
	IssuedAt       int64                    `cbor:"5,keyasint" json:"issuedAt"`       // 签发时间（Unix 秒）
}

// SessionDecryptRequest 是由会话私钥签名的批量解密请求
type SessionDecryptRequest struct {
	RequestID string                   `cbor:"1,keyasint" json:"requestId"` // 请求 ID
	VoucherID string                   `cbor:"2,keyasint" json:"voucherId"` // 会话凭证 ID
	Handles   []handle.EncryptedHandle `cbor:"3,keyasint" json:"handles"`   // 要解密的句柄
	IssuedAt  int64                    `cbor:"4,keyasint" json:"issuedAt"`  // 签发时间（Unix 秒）
}

// NonceBumpRequest 是由会话私钥签名的吊销请求。网络递增所有者的会话 nonce，使此前签发的所有会话凭证失效。
type NonceBumpRequest struct {
	VoucherID string `cbor:"1,keyasint" json:"voucherId"` // 发起吊销的会话凭证 ID
	Owner     string `cbor:"2,keyasint" json:"owner"`     // 所有者地址
	IssuedAt  int64  `cbor:"3,keyasint" json:"issuedAt"`  // 签发时间（Unix 秒）
}

// SessionDecryptCall 是会话解密接口的请求体
type SessionDecryptCall struct {
	Grant   Signed `json:"grant"`   // 所有者签名的 VoucherRequest
	Request Signed `json:"request"` // 会话私钥签名的 SessionDecryptRequest
}

// NonceBumpCall 是吊销接口的请求体
type NonceBumpCall struct {
	Grant   Signed `json:"grant"`   // 所有者签名的 VoucherRequest
	Request Signed `json:"request"` // 会话私钥签名的 NonceBumpRequest
}
