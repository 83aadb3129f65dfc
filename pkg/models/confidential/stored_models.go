package confidential

import (
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// Voucher 表示由网络签发的会话凭证
type Voucher struct {
	Request   VoucherRequest `json:"request"`   // 凭证内容
	Nonce     uint64         `json:"nonce"`     // 签发时所有者的会话 nonce
	GrantedAt int64          `json:"grantedAt"` // 签发时间（Unix 秒）
	Grant     Signed         `json:"grant"`     // 所有者签名的 VoucherRequest，使用凭证时原样出示
}

// Attestation 表示一名协同验证者对解密结果的证明
type Attestation struct {
	Validator string `json:"validator"` // 验证者地址
	Signature []byte `json:"signature"` // 对 blake3(handle || value) 的 SM2 签名
}

// AttestedPlaintext 表示一个句柄的解密结果。所有者路径返回 Value，会话路径返回加密给会话公钥的 Sealed。
type AttestedPlaintext struct {
	Handle       handle.EncryptedHandle `json:"handle"`           // 句柄
	Value        uint64                 `json:"value,omitempty"`  // 明文
	Sealed       []byte                 `json:"sealed,omitempty"` // 加密给会话公钥的明文
	Attestations []Attestation          `json:"attestations"`     // 协同验证者证明
}

// NonceReceipt 表示吊销后的会话 nonce
type NonceReceipt struct {
	Owner    string `json:"owner"`    // 所有者地址
	Nonce    uint64 `json:"nonce"`    // 递增后的 nonce
	BumpedAt int64  `json:"bumpedAt"` // 吊销时间（Unix 秒）
}

// CiphertextInfo 表示网络中一份密文的元数据
type CiphertextInfo struct {
	Handle    handle.EncryptedHandle `json:"handle"`    // 句柄
	Owner     string                 `json:"owner"`     // 所有者地址
	Scope     string                 `json:"scope"`     // 作用域
	CreatedAt int64                  `json:"createdAt"` // 创建时间（Unix 秒）
}
