package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tjfoc/gmsm/sm2"
	"golang.org/x/sync/singleflight"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/idutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// SessionState 表示会话凭证所处的状态
type SessionState string

const (
	SessionAbsent   SessionState = "Absent"
	SessionCreating SessionState = "Creating"
	SessionActive   SessionState = "Active"
	SessionExpired  SessionState = "Expired"
	SessionRevoked  SessionState = "Revoked"
)

// DefaultSessionValidity is how long a session voucher is valid for unless configured otherwise.
const DefaultSessionValidity = time.Hour

// DefaultRevokeTimeout bounds the remote nonce bump issued when the signer disconnects.
const DefaultRevokeTimeout = 15 * time.Second

// SessionKeyService 实现了 `SessionKeyServiceInterface` 接口，管理委托给临时会话密钥的解密凭证
type SessionKeyService struct {
	confidentialBCAO bcao.IConfidentialBCAO
	conn             *signer.Connection
	verifier         string
	validity         time.Duration
	clock            timingutils.Clock
	retry            RetryPolicy
	revokeTimeout    time.Duration

	group singleflight.Group

	mu         sync.RWMutex
	cred       *SessionCredential
	creating   bool
	revoked    bool
	generation uint64

	bg          sync.WaitGroup
	unsubscribe func()
}

// NewSessionKeyService creates a SessionKeyService that revokes its credential whenever the signer of `conn` disconnects.
// `verifier` is the scope the vouchers are issued for.
func NewSessionKeyService(confidentialBCAO bcao.IConfidentialBCAO, conn *signer.Connection, verifier string, validity time.Duration, clock timingutils.Clock, retry RetryPolicy) *SessionKeyService {
	if validity <= 0 {
		validity = DefaultSessionValidity
	}
	if clock == nil {
		clock = timingutils.RealClock{}
	}

	s := &SessionKeyService{
		confidentialBCAO: confidentialBCAO,
		conn:             conn,
		verifier:         verifier,
		validity:         validity,
		clock:            clock,
		retry:            retry,
		revokeTimeout:    DefaultRevokeTimeout,
	}
	s.unsubscribe = conn.OnDisconnect(s.onSignerDisconnected)

	return s
}

// SetRevokeTimeout changes the bound of the revocation sent when the signer disconnects.
func (s *SessionKeyService) SetRevokeTimeout(d time.Duration) {
	if d <= 0 {
		return
	}

	s.mu.Lock()
	s.revokeTimeout = d
	s.mu.Unlock()
}

// 创建会话凭证。只请求所有者签名一次。并发调用共享同一次创建过程。
//
// 返回：
//   分类后的错误（*errorcode.RevealError）
func (s *SessionKeyService) Create(ctx context.Context) error {
	_, err, shared := s.group.Do("create", func() (interface{}, error) {
		return nil, s.create(ctx)
	})
	if shared {
		log.Debugln("会话创建请求已合并到进行中的创建过程")
	}

	if err != nil {
		return errorcode.Classify(err)
	}

	return nil
}

func (s *SessionKeyService) create(ctx context.Context) error {
	defer timingutils.GetDeferrableTimingLogger("创建会话")()

	owner, ok := s.conn.Current()
	if !ok {
		return errors.Wrap(errorcode.ErrorSignerUnavailable, "无法创建会话")
	}

	s.mu.Lock()
	s.creating = true
	s.revoked = false
	generation := s.generation
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.creating = false
		s.mu.Unlock()
	}()

	sessionKey, err := sm2.GenerateKey(rand.Reader)
	if err != nil {
		return errors.Wrap(err, "无法生成会话密钥")
	}

	voucherID, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return err
	}

	now := s.clock.Now()
	req := confidential.VoucherRequest{
		ID:               voucherID,
		Owner:            owner.Address(),
		OwnerPublicKey:   sm2keyutils.SerializePublicKey(owner.PublicKey()),
		SessionPublicKey: sm2keyutils.SerializePublicKey(&sessionKey.PublicKey),
		Verifier:         s.verifier,
		IssuedAt:         now.Unix(),
		ExpiresAt:        now.Add(s.validity).Unix(),
	}

	signed, err := signer.SignPayload(ctx, owner, fmt.Sprintf("授权会话密钥解密，有效期至 %v", req.ExpiresAtTime().Format(time.RFC3339)), &req)
	if err != nil {
		return err
	}

	var voucher *confidential.Voucher
	err = s.retry.Do(ctx, s.clock, "申请会话凭证", func(int) error {
		var err error
		voucher, err = s.confidentialBCAO.GrantSessionVoucher(ctx, signed)
		return err
	})
	if err != nil {
		return err
	}

	if voucher.Request.ID != req.ID || !bytes.Equal(voucher.Request.SessionPublicKey, req.SessionPublicKey) {
		return fmt.Errorf("网络签发的会话凭证与请求不一致")
	}

	cred := &SessionCredential{
		PrivateKey: sessionKey,
		Voucher:    voucher,
		ExpiresAt:  req.ExpiresAtTime(),
	}

	s.mu.Lock()
	current, stillConnected := s.conn.CurrentFor(owner.Address())
	if generation == s.generation && stillConnected && current == owner {
		s.cred = cred
		s.mu.Unlock()
		log.Infof("会话 %v 已创建，有效期至 %v", voucher.Request.ID, cred.ExpiresAt)
		return nil
	}
	s.mu.Unlock()

	// 创建过程中会话被吊销或签名者已断开，新凭证不能生效。网络已签发该凭证，因此同样需要递增 nonce。
	log.Warnf("会话 %v 在创建过程中被吊销或签名者已断开，丢弃该凭证", voucher.Request.ID)
	if err := s.bumpNonce(ctx, cred); err != nil {
		log.Errorf("无法吊销被丢弃的会话 %v: %v", voucher.Request.ID, err)
	}

	if !stillConnected || current != owner {
		return errors.Wrap(errorcode.ErrorSignerUnavailable, "签名者在会话创建过程中断开")
	}
	return errors.Wrap(errorcode.ErrorSessionRevoked, "会话在创建过程中被吊销")
}

// 检查当前是否有可用的会话凭证。
func (s *SessionKeyService) IsValid() bool {
	_, ok := s.Current()
	return ok
}

// 获取此刻可用的会话凭证。
func (s *SessionKeyService) Current() (*SessionCredential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cred == nil || !s.cred.ValidAt(s.clock.Now()) {
		return nil, false
	}

	return s.cred, true
}

// 获取会话凭证的状态。
func (s *SessionKeyService) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case s.creating:
		return SessionCreating
	case s.cred != nil && s.cred.ValidAt(s.clock.Now()):
		return SessionActive
	case s.cred != nil:
		return SessionExpired
	case s.revoked:
		return SessionRevoked
	default:
		return SessionAbsent
	}
}

// 吊销会话凭证。本地凭证立即清除，随后请求网络递增所有者的会话 nonce，使凭证无法被重放。没有凭证时什么都不做。
func (s *SessionKeyService) Revoke(ctx context.Context) error {
	cred := s.revokeLocal()
	if cred == nil {
		return nil
	}

	if err := s.bumpNonce(ctx, cred); err != nil {
		log.Errorf("会话 %v 已在本地吊销，但无法递增网络中的会话 nonce: %v", cred.Voucher.Request.ID, err)
		return errorcode.Classify(err)
	}

	return nil
}

// revokeLocal clears the credential and invalidates any creation in flight. It returns the cleared credential.
func (s *SessionKeyService) revokeLocal() *SessionCredential {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred := s.cred
	s.cred = nil
	s.generation++
	if cred != nil {
		s.revoked = true
		log.Infof("会话 %v 已吊销", cred.Voucher.Request.ID)
	}

	return cred
}

// 丢弃网络已拒绝的会话凭证。只有 `cred` 仍是当前凭证时才生效，之后创建的新凭证不受影响。
// 网络已认定该凭证无效，因此不再递增 nonce。
func (s *SessionKeyService) Invalidate(cred *SessionCredential) {
	if cred == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// 本地已过期的凭证保持 Expired 状态
	if s.cred != cred || !cred.ValidAt(s.clock.Now()) {
		return
	}

	s.cred = nil
	s.revoked = true
	s.generation++
	log.Warnf("会话 %v 已被网络拒绝，本地凭证已丢弃", cred.Voucher.Request.ID)
}

func (s *SessionKeyService) bumpNonce(ctx context.Context, cred *SessionCredential) error {
	return s.retry.Do(ctx, s.clock, "递增会话 nonce", func(int) error {
		req := confidential.NonceBumpRequest{
			VoucherID: cred.Voucher.Request.ID,
			Owner:     cred.Owner(),
			IssuedAt:  s.clock.Now().Unix(),
		}

		signed, err := signer.SignPayload(ctx, cred.sessionSigner(), "吊销会话", &req)
		if err != nil {
			return err
		}

		receipt, err := s.confidentialBCAO.BumpSessionNonce(ctx, &cred.Voucher.Grant, signed)
		if err != nil {
			return err
		}

		log.Debugf("所有者 %v 的会话 nonce 已递增至 %v", receipt.Owner, receipt.Nonce)
		return nil
	})
}

func (s *SessionKeyService) onSignerDisconnected(old signer.Signer) {
	s.mu.RLock()
	owned := s.cred != nil && s.cred.Owner() == old.Address()
	creating := s.creating
	timeout := s.revokeTimeout
	s.mu.RUnlock()

	if !owned && !creating {
		return
	}

	cred := s.revokeLocal()
	if cred == nil {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := s.bumpNonce(ctx, cred); err != nil {
			log.Errorf("签名者断开后无法递增会话 nonce: %v", err)
		}
	}()
}

// Close revokes the credential and stops listening to the signer connection.
func (s *SessionKeyService) Close(ctx context.Context) error {
	s.unsubscribe()
	err := s.Revoke(ctx)
	s.bg.Wait()

	return err
}
