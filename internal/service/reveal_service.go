package service

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/idutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// RevealService 实现了 `RevealServiceInterface` 接口，把业务对象的句柄批量还原为明文。
//
// 所有调用都使用同一条路径：所有者有可用会话时先尝试一次会话批量解密；没有会话或批量解密失败时，
// 若所有者的签名者已连接，则逐个句柄使用所有者签名解密。批量解密因授权尚未同步而耗尽重试次数时不回退，
// 所有者签名同样无法解决该问题。
type RevealService struct {
	Decryption DecryptionServiceInterface
	Sessions   SessionKeyServiceInterface
	Probe      ACLProbeServiceInterface // 可为 nil
	Connection *signer.Connection

	group singleflight.Group
}

type revealFlight struct {
	owner  string
	result *RevealResult
	err    *errorcode.RevealError
}

// 还原一个业务对象的句柄。同一业务对象同一时刻只有一个还原过程；并发调用者等待并共享进行中的结果。
//
// 参数：
//   业务对象 ID
//   句柄列表
//   所有者地址
//
// 返回：
//   与句柄列表等长、同序的结果
//   整体失败（没有任何可用凭证）时的分类错误
func (s *RevealService) Reveal(ctx context.Context, domainObjectID string, hs []handle.EncryptedHandle, owner string) (*RevealResult, error) {
	for {
		v, _, shared := s.group.Do(domainObjectID, func() (interface{}, error) {
			return s.guardedReveal(ctx, domainObjectID, hs, owner), nil
		})

		flight := v.(*revealFlight)
		if shared && (flight.owner != owner || !flight.result.sameHandles(hs)) {
			// 进行中的还原属于另一个所有者或另一组句柄，等它结束后再发起自己的
			log.Debugf("业务对象 %v 的进行中还原不属于本次调用，等待后重新发起", domainObjectID)
			continue
		}

		result := flight.result.clone()
		if flight.err != nil {
			return result, flight.err
		}

		return result, nil
	}
}

// guardedReveal never panics, so the guard of the object is always released.
func (s *RevealService) guardedReveal(ctx context.Context, domainObjectID string, hs []handle.EncryptedHandle, owner string) (flight *revealFlight) {
	opID, err := idutils.GenerateSnowflakeId()
	if err != nil {
		opID = "?"
	}

	logger := log.WithFields(log.Fields{
		"op":     opID,
		"object": domainObjectID,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("还原过程中发生 panic: %v", r)
			revealErr := errorcode.Classify(fmt.Errorf("还原过程中发生 panic: %v", r))
			result := newRevealResult(domainObjectID, hs)
			result.Path = RevealPathNone
			for i := range result.Items {
				if !result.Items[i].Handle.IsZero() {
					result.Items[i].Err = revealErr
				}
			}
			flight = &revealFlight{owner: owner, result: result, err: revealErr}
		}
	}()

	result, revealErr := s.reveal(ctx, logger, domainObjectID, hs, owner)
	return &revealFlight{owner: owner, result: result, err: revealErr}
}

func (s *RevealService) reveal(ctx context.Context, logger *log.Entry, domainObjectID string, hs []handle.EncryptedHandle, owner string) (*RevealResult, *errorcode.RevealError) {
	result := newRevealResult(domainObjectID, hs)

	// 零句柄直接得到 0
	pending := make([]int, 0, len(hs))
	for i, h := range hs {
		if !h.IsZero() {
			pending = append(pending, i)
		}
	}

	logger.Debugf("还原 %v 个句柄，其中 %v 个非零", len(hs), len(pending))
	if len(pending) == 0 {
		return result, nil
	}

	// 会话路径
	var sessionErr error
	if cred, ok := s.Sessions.Current(); ok && cred.Owner() == owner {
		pendingHandles := make([]handle.EncryptedHandle, len(pending))
		for j, i := range pending {
			pendingHandles[j] = hs[i]
		}

		values, err := s.Decryption.DecryptBatchSession(ctx, pendingHandles, cred)
		if err == nil {
			for j, i := range pending {
				result.Items[i].Value = values[j]
			}
			result.Path = RevealPathSession
			logger.Debugln("会话批量解密成功")
			return result, nil
		}

		sessionErr = err
		if errors.Is(err, errorcode.ErrorSessionRevoked) || errors.Is(err, errorcode.ErrorSessionExpired) {
			s.Sessions.Invalidate(cred)
		}

		if errors.Is(err, errorcode.ErrorAccessNotPropagated) {
			revealErr := errorcode.Classify(err)
			for _, i := range pending {
				result.Items[i].Err = revealErr
			}
			result.Path = RevealPathSession
			logger.Warnf("授权尚未同步到协同验证者，不回退到所有者解密: %v", err)
			return result, nil
		}

		logger.Warnf("会话批量解密失败，回退到所有者逐个解密: %v", err)
	}

	// 所有者路径
	ownerSigner, ok := s.Connection.CurrentFor(owner)
	if !ok {
		cause := sessionErr
		if cause == nil {
			cause = errorcode.ErrorSignerUnavailable
		}

		revealErr := errorcode.Classify(cause)
		for _, i := range pending {
			result.Items[i].Err = revealErr
		}
		result.Path = RevealPathNone
		logger.Warnf("没有可用的凭证: %v", revealErr)
		return result, revealErr
	}

	result.Path = RevealPathOwner
	ownerCred := &OwnerCredential{Signer: ownerSigner}
	for _, i := range pending {
		h := hs[i]
		if err := ctx.Err(); err != nil {
			result.Items[i].Err = errorcode.Classify(err)
			continue
		}

		value, err := s.Decryption.DecryptOwner(ctx, h, ownerCred)
		if err != nil {
			revealErr := errorcode.Classify(err)
			if revealErr.Category != errorcode.CategoryUserRejected && revealErr.Category != errorcode.CategoryInvalidHandle && !s.probe(ctx, logger, h, owner) {
				revealErr = revealErr.WithRecovery(errorcode.RecoveryAcquireAccess, errorcode.RecoveryAcquireAccess.Guidance())
			}

			logger.Warnf("句柄 %v 解密失败: %v", h.Short(), revealErr)
			result.Items[i].Err = revealErr
			continue
		}

		result.Items[i].Value = value
	}

	return result, nil
}

// probe returns false only when the ledger positively says `owner` cannot decrypt `h`.
func (s *RevealService) probe(ctx context.Context, logger *log.Entry, h handle.EncryptedHandle, owner string) bool {
	if s.Probe == nil {
		return true
	}

	allowed, err := s.Probe.Check(ctx, h, owner)
	if err != nil {
		logger.Debugf("无法检查句柄 %v 的解密权限: %v", h.Short(), err)
		return true
	}

	return allowed
}
