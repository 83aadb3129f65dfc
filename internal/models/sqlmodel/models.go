package sqlmodel

import (
	"time"

	"github.com/pkg/errors"

	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// Ciphertext 定义了数据库表 ciphertexts，用于读写开发网络中的密文。明文以 SM2 加密给网络主密钥后存放于 Sealed。
type Ciphertext struct {
	Handle    string    `gorm:"type:CHAR(66);primaryKey"`
	Owner     string    `gorm:"type:VARCHAR(42) NOT NULL;index"`
	Scope     string    `gorm:"type:VARCHAR(255) NOT NULL"`
	Sealed    []byte    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// AccessGrant 定义了数据库表 access_grants，记录一个地址对一个句柄的解密授权。授权在 VisibleAt 之后才能被协同验证者观察到。
type AccessGrant struct {
	Handle    string    `gorm:"type:CHAR(66);primaryKey"`
	Grantee   string    `gorm:"type:VARCHAR(42);primaryKey"`
	VisibleAt time.Time `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// SessionNonce 定义了数据库表 session_nonces，记录每个所有者当前的会话 nonce。
type SessionNonce struct {
	Owner     string `gorm:"type:VARCHAR(42);primaryKey"`
	Nonce     uint64 `gorm:"not null"`
	UpdatedAt time.Time
}

// Voucher 定义了数据库表 vouchers，记录网络签发过的会话凭证。
type Voucher struct {
	ID               int64     `gorm:"primaryKey;autoIncrement:false"`
	Owner            string    `gorm:"type:VARCHAR(42) NOT NULL;index"`
	SessionPublicKey []byte    `gorm:"not null"`
	Verifier         string    `gorm:"type:VARCHAR(255) NOT NULL"`
	Nonce            uint64    `gorm:"not null"`
	ExpiresAt        time.Time `gorm:"not null"`
	GrantedAt        time.Time `gorm:"not null"`
}

// Slot 定义了数据库表 slots，即账本中按名称存放句柄的状态槽。
type Slot struct {
	Name      string `gorm:"type:VARCHAR(255);primaryKey"`
	Handle    string `gorm:"type:CHAR(66) NOT NULL"`
	UpdatedAt time.Time
}

// AllModels lists the models that make up the devnet schema, for auto migration.
func AllModels() []interface{} {
	return []interface{}{&Ciphertext{}, &AccessGrant{}, &SessionNonce{}, &Voucher{}, &Slot{}}
}

// ToModel 将一个 `sqlmodel.Ciphertext` 对象转为 `confidential.CiphertextInfo` 对象。
func (c *Ciphertext) ToModel() (*confidential.CiphertextInfo, error) {
	h, err := handle.Parse(c.Handle)
	if err != nil {
		return nil, errors.Wrap(err, "数据库中的句柄无效")
	}

	return &confidential.CiphertextInfo{
		Handle:    h,
		Owner:     c.Owner,
		Scope:     c.Scope,
		CreatedAt: c.CreatedAt.Unix(),
	}, nil
}

// NewVoucherFromModel 从 `confidential.Voucher` 对象构建 `sqlmodel.Voucher` 对象。
func NewVoucherFromModel(voucher *confidential.Voucher) (*Voucher, error) {
	id, err := parseSnowflakeStringToInt64(voucher.Request.ID)
	if err != nil {
		return nil, errors.Wrap(err, "会话凭证 ID 无效")
	}

	return &Voucher{
		ID:               id,
		Owner:            voucher.Request.Owner,
		SessionPublicKey: voucher.Request.SessionPublicKey,
		Verifier:         voucher.Request.Verifier,
		Nonce:            voucher.Nonce,
		ExpiresAt:        time.Unix(voucher.Request.ExpiresAt, 0),
		GrantedAt:        time.Unix(voucher.GrantedAt, 0),
	}, nil
}

// VoucherID returns the snowflake string form of the voucher ID.
func (v *Voucher) VoucherID() string {
	return parseInt64ToSnowflakeString(v.ID)
}

// ParseVoucherID parses a snowflake voucher ID into the primary key of the vouchers table.
func ParseVoucherID(id string) (int64, error) {
	return parseSnowflakeStringToInt64(id)
}
