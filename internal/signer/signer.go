// Package signer models the owner's live signing capability (a connected wallet in a browser setting).
// Every call to `Signer.Sign` is one interactive approval from the owner's point of view.
package signer

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/internal/utils/cipherutils"
	"gitee.com/czyczk/attested-reveal/pkg/codec"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// Signer signs payloads on behalf of an account.
type Signer interface {
	// Address returns the account address of the signer.
	Address() string
	// PublicKey returns the SM2 public key of the signer.
	PublicKey() *sm2.PublicKey
	// Sign signs `payload`. `purpose` is a short description shown to the owner when approval is interactive.
	// A declined request returns an error wrapping `errorcode.ErrorUserRejected`.
	Sign(ctx context.Context, purpose string, payload []byte) ([]byte, error)
}

// SM2Signer signs with an in-memory SM2 private key without asking anyone.
type SM2Signer struct {
	privateKey *sm2.PrivateKey
	address    string
}

// NewSM2Signer wraps an SM2 private key.
func NewSM2Signer(privateKey *sm2.PrivateKey) *SM2Signer {
	return &SM2Signer{
		privateKey: privateKey,
		address:    sm2keyutils.AddressOf(&privateKey.PublicKey),
	}
}

func (s *SM2Signer) Address() string {
	return s.address
}

func (s *SM2Signer) PublicKey() *sm2.PublicKey {
	return &s.privateKey.PublicKey
}

func (s *SM2Signer) Sign(ctx context.Context, purpose string, payload []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log.Tracef("签名者 %v 正在签名: %v", s.address, purpose)
	return cipherutils.Sign(s.privateKey, payload)
}

// SignPayload encodes `v` with the deterministic codec and has `s` sign the encoding.
func SignPayload(ctx context.Context, s Signer, purpose string, v interface{}) (*confidential.Signed, error) {
	if s == nil {
		return nil, errorcode.ErrorSignerUnavailable
	}

	payload, err := codec.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "无法编码待签名载荷")
	}

	sig, err := s.Sign(ctx, purpose, payload)
	if err != nil {
		return nil, err
	}

	return &confidential.Signed{
		Payload:   payload,
		Signature: sig,
	}, nil
}

// VerifyPayload checks the signature of `signed` against `publicKey` and decodes the payload into `v`.
func VerifyPayload(publicKey *sm2.PublicKey, signed *confidential.Signed, v interface{}) error {
	if signed == nil || !cipherutils.Verify(publicKey, signed.Payload, signed.Signature) {
		return errorcode.ErrorBadSignature
	}

	if err := codec.Unmarshal(signed.Payload, v); err != nil {
		return errors.Wrap(errorcode.ErrorBadRequest, "无法解析已签名载荷: "+err.Error())
	}

	return nil
}
