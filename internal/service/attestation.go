package service

import (
	"github.com/pkg/errors"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/internal/utils/cipherutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// AttestationVerifier checks that a decrypted value is vouched for by enough known co-validators.
type AttestationVerifier struct {
	validators map[string]*sm2.PublicKey
	threshold  int
}

// NewAttestationVerifier creates a verifier requiring `threshold` distinct signatures among `validators`.
// A threshold above the number of validators can never be met.
func NewAttestationVerifier(validators []*sm2.PublicKey, threshold int) *AttestationVerifier {
	v := &AttestationVerifier{
		validators: make(map[string]*sm2.PublicKey, len(validators)),
		threshold:  threshold,
	}
	for _, pk := range validators {
		v.validators[sm2keyutils.AddressOf(pk)] = pk
	}

	return v
}

// Verify checks the attestations of `p` for the decryption of `h` into `value`.
func (v *AttestationVerifier) Verify(h handle.EncryptedHandle, value uint64, attestations []confidential.Attestation) error {
	if v == nil || v.threshold <= 0 {
		return nil
	}

	digest := cipherutils.AttestationDigest(h, value)
	seen := make(map[string]struct{}, len(attestations))
	for _, a := range attestations {
		if _, ok := seen[a.Validator]; ok {
			continue
		}

		pk, ok := v.validators[a.Validator]
		if !ok || !cipherutils.Verify(pk, digest, a.Signature) {
			continue
		}

		seen[a.Validator] = struct{}{}
	}

	if len(seen) < v.threshold {
		return errors.Wrapf(errorcode.ErrorAttestationInvalid, "句柄 %v 的解密结果仅有 %v 个有效证明，需要 %v 个", h.Short(), len(seen), v.threshold)
	}

	return nil
}
