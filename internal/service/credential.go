package service

import (
	"time"

	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
)

// Credential is what a decryption call is authorized with.
type Credential interface {
	// Owner returns the address the credential decrypts for.
	Owner() string
}

// OwnerCredential decrypts with the owner's live signer. Every decryption costs one interactive signature.
type OwnerCredential struct {
	Signer signer.Signer
}

func (c *OwnerCredential) Owner() string {
	if c == nil || c.Signer == nil {
		return ""
	}

	return c.Signer.Address()
}

// SessionCredential is a delegated ephemeral credential. The voucher binds the session public key to the owner
// and lets the holder of the session private key decrypt in batches without further signatures until ExpiresAt.
type SessionCredential struct {
	PrivateKey *sm2.PrivateKey
	Voucher    *confidential.Voucher
	ExpiresAt  time.Time
}

func (c *SessionCredential) Owner() string {
	if c == nil || c.Voucher == nil {
		return ""
	}

	return c.Voucher.Request.Owner
}

// ValidAt reports whether the credential may be used at `now`. Expiry is exclusive.
func (c *SessionCredential) ValidAt(now time.Time) bool {
	return c != nil && now.Before(c.ExpiresAt)
}

// sessionSigner signs with the session private key.
func (c *SessionCredential) sessionSigner() *signer.SM2Signer {
	return signer.NewSM2Signer(c.PrivateKey)
}
