package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/cipherutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/idutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// DecryptionService 实现了 `DecryptionServiceInterface` 接口，通过机密计算网络解密句柄
type DecryptionService struct {
	ConfidentialBCAO bcao.IConfidentialBCAO
	Verifier         *AttestationVerifier // 为 nil 时不检查协同验证者证明
	Retry            RetryPolicy
	Clock            timingutils.Clock
}

// NewDecryptionService creates a DecryptionService with the default retry policy and the real clock.
func NewDecryptionService(confidentialBCAO bcao.IConfidentialBCAO, verifier *AttestationVerifier) *DecryptionService {
	return &DecryptionService{
		ConfidentialBCAO: confidentialBCAO,
		Verifier:         verifier,
		Retry:            DefaultRetryPolicy(),
		Clock:            timingutils.RealClock{},
	}
}

// 用所有者的签名者解密一个句柄。
//
// 参数：
//   句柄
//   所有者凭证
//
// 返回：
//   明文
func (s *DecryptionService) DecryptOwner(ctx context.Context, h handle.EncryptedHandle, cred *OwnerCredential) (uint64, error) {
	if h.IsZero() {
		return 0, nil
	}

	if cred == nil || cred.Signer == nil {
		return 0, errorcode.ErrorSignerUnavailable
	}

	defer timingutils.GetDeferrableTimingLogger(fmt.Sprintf("所有者解密 %v", h.Short()))()

	requestID, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return 0, err
	}

	req := confidential.OwnerDecryptRequest{
		RequestID:      requestID,
		Owner:          cred.Signer.Address(),
		OwnerPublicKey: sm2keyutils.SerializePublicKey(cred.Signer.PublicKey()),
		Handles:        []handle.EncryptedHandle{h},
		IssuedAt:       s.Clock.Now().Unix(),
	}

	// 只请求一次签名，重试时复用
	signed, err := signer.SignPayload(ctx, cred.Signer, fmt.Sprintf("解密句柄 %v", h.Short()), &req)
	if err != nil {
		return 0, err
	}

	var value uint64
	err = s.Retry.Do(ctx, s.Clock, "所有者解密", func(attempt int) error {
		log.Debugf("所有者解密 %v，第 %v 次尝试", h.Short(), attempt)

		results, err := s.ConfidentialBCAO.DecryptWithOwner(ctx, signed)
		if err != nil {
			return err
		}

		if err = checkResultShape(req.Handles, results); err != nil {
			return err
		}

		if err = s.Verifier.Verify(h, results[0].Value, results[0].Attestations); err != nil {
			return err
		}

		value = results[0].Value
		return nil
	})
	if err != nil {
		return 0, err
	}

	return value, nil
}

// 用会话凭证批量解密句柄。零句柄不会被发送到网络。
//
// 参数：
//   句柄列表
//   会话凭证
//
// 返回：
//   与句柄列表等长、同序的明文列表
func (s *DecryptionService) DecryptBatchSession(ctx context.Context, hs []handle.EncryptedHandle, cred *SessionCredential) ([]uint64, error) {
	ret := make([]uint64, len(hs))

	indices := make([]int, 0, len(hs))
	nonZero := make([]handle.EncryptedHandle, 0, len(hs))
	for i, h := range hs {
		if !h.IsZero() {
			indices = append(indices, i)
			nonZero = append(nonZero, h)
		}
	}

	if len(nonZero) == 0 {
		return ret, nil
	}

	if cred == nil || cred.Voucher == nil {
		return nil, errors.Wrap(errorcode.ErrorSessionExpired, "没有可用的会话凭证")
	}

	defer timingutils.GetDeferrableTimingLogger(fmt.Sprintf("会话批量解密 %v 个句柄", len(nonZero)))()

	sessionSigner := cred.sessionSigner()
	err := s.Retry.Do(ctx, s.Clock, "会话批量解密", func(attempt int) error {
		// 每次使用前都重新检查过期时间
		now := s.Clock.Now()
		if !cred.ValidAt(now) {
			return errors.Wrapf(errorcode.ErrorSessionExpired, "会话凭证已于 %v 过期", cred.ExpiresAt)
		}

		log.Debugf("会话批量解密 %v 个句柄，第 %v 次尝试", len(nonZero), attempt)

		requestID, err := idutils.GenerateSnowflakeId()
		if err != nil {
			return err
		}

		req := confidential.SessionDecryptRequest{
			RequestID: requestID,
			VoucherID: cred.Voucher.Request.ID,
			Handles:   nonZero,
			IssuedAt:  now.Unix(),
		}

		signed, err := signer.SignPayload(ctx, sessionSigner, "会话解密", &req)
		if err != nil {
			return err
		}

		results, err := s.ConfidentialBCAO.DecryptWithSession(ctx, &cred.Voucher.Grant, signed)
		if err != nil {
			return err
		}

		if err = checkResultShape(nonZero, results); err != nil {
			return err
		}

		for j, result := range results {
			value, err := cipherutils.OpenValue(cred.PrivateKey, result.Sealed)
			if err != nil {
				return errors.Wrapf(err, "无法打开句柄 %v 的解密结果", result.Handle.Short())
			}

			if err = s.Verifier.Verify(result.Handle, value, result.Attestations); err != nil {
				return err
			}

			ret[indices[j]] = value
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return ret, nil
}

// checkResultShape makes sure the network answered exactly the requested handles in the requested order.
func checkResultShape(requested []handle.EncryptedHandle, results []*confidential.AttestedPlaintext) error {
	if len(results) != len(requested) {
		return fmt.Errorf("网络返回了 %v 个解密结果，请求了 %v 个", len(results), len(requested))
	}

	for i, result := range results {
		if result == nil || result.Handle != requested[i] {
			return fmt.Errorf("第 %v 个解密结果与请求的句柄不一致", i+1)
		}
	}

	return nil
}
