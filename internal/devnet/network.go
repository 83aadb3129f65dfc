// Package devnet simulates the confidential-compute network and the ledger it watches, for local development
// and integration tests. Ciphertexts are sealed to a master key held by the network; decryption results are
// vouched for by a set of co-validator keys; ACL grants become visible to the co-validators only after a
// configurable propagation delay.
package devnet

import (
	"bytes"
	"context"
	"crypto/rand"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tjfoc/gmsm/sm2"
	"github.com/zeebo/blake3"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/cipherutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/idutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/codec"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// Config 为开发网络的配置
type Config struct {
	Verifier         string            // 网络接受的会话凭证作用域
	PropagationDelay time.Duration     // 授权写入后被协同验证者观察到所需的时间
	RequestFreshness time.Duration     // 已签名请求的签发时间与当前时间允许的最大偏差，为 0 时不检查
	MasterKey        *sm2.PrivateKey   // 密文加密所用的主密钥，为 nil 时随机生成
	Validators       []*sm2.PrivateKey // 协同验证者私钥
}

// Network is the development confidential network. It serves both the confidential API and the ledger API.
type Network struct {
	cfg   Config
	store Store
	clock timingutils.Clock
}

var _ bcao.IConfidentialBCAO = (*Network)(nil)
var _ bcao.ILedgerAdminBCAO = (*Network)(nil)

// NewNetwork creates a network over `store`. A nil clock means the real clock.
func NewNetwork(cfg Config, store Store, clock timingutils.Clock) (*Network, error) {
	if cfg.MasterKey == nil {
		masterKey, err := sm2.GenerateKey(rand.Reader)
		if err != nil {
			return nil, errors.Wrap(err, "无法生成网络主密钥")
		}
		cfg.MasterKey = masterKey
	}

	if clock == nil {
		clock = timingutils.RealClock{}
	}

	return &Network{cfg: cfg, store: store, clock: clock}, nil
}

// ValidatorPublicKeys returns the public keys of the co-validators, for clients to verify attestations.
func (n *Network) ValidatorPublicKeys() []*sm2.PublicKey {
	ret := make([]*sm2.PublicKey, 0, len(n.cfg.Validators))
	for _, v := range n.cfg.Validators {
		ret = append(ret, &v.PublicKey)
	}
	return ret
}

// Verifier returns the voucher scope the network accepts.
func (n *Network) Verifier() string {
	return n.cfg.Verifier
}

func (n *Network) Encrypt(ctx context.Context, req *confidential.EncryptRequest) (handle.EncryptedHandle, error) {
	if req == nil || req.Owner == "" {
		return handle.ZeroHandle, errors.Wrap(errorcode.ErrorBadRequest, "所有者不能为空")
	}

	id, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return handle.ZeroHandle, err
	}

	salt := make([]byte, 16)
	if _, err = rand.Read(salt); err != nil {
		return handle.ZeroHandle, errors.Wrap(err, "无法生成随机数")
	}

	hasher := blake3.New()
	for _, part := range [][]byte{[]byte(req.Owner), []byte(req.Scope), []byte(id), salt} {
		_, _ = hasher.Write(part)
	}
	var h handle.EncryptedHandle
	copy(h[:], hasher.Sum(nil))

	sealed, err := cipherutils.SealValue(&n.cfg.MasterKey.PublicKey, req.Value)
	if err != nil {
		return handle.ZeroHandle, err
	}

	err = n.store.PutCiphertext(ctx, &sqlmodel.Ciphertext{
		Handle:    h.String(),
		Owner:     req.Owner,
		Scope:     req.Scope,
		Sealed:    sealed,
		CreatedAt: n.clock.Now(),
	})
	if err != nil {
		return handle.ZeroHandle, err
	}

	log.Debugf("已创建密文 %v，所有者 %v", h.Short(), req.Owner)
	return h, nil
}

// GetCiphertextInfo returns the metadata of the ciphertext behind `h`.
func (n *Network) GetCiphertextInfo(ctx context.Context, h handle.EncryptedHandle) (*confidential.CiphertextInfo, error) {
	ciphertext, err := n.getCiphertext(ctx, h)
	if err != nil {
		return nil, err
	}

	return ciphertext.ToModel()
}

func (n *Network) DecryptWithOwner(ctx context.Context, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error) {
	var decoded confidential.OwnerDecryptRequest
	if err := n.verifyOwnerSigned(req, &decoded, func() ([]byte, string) { return decoded.OwnerPublicKey, decoded.Owner }); err != nil {
		return nil, err
	}
	if err := n.checkFreshness(decoded.IssuedAt); err != nil {
		return nil, err
	}
	if len(decoded.Handles) == 0 {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "未指定要解密的句柄")
	}

	values, err := n.decryptFor(ctx, decoded.Handles, decoded.Owner)
	if err != nil {
		return nil, err
	}

	ret := make([]*confidential.AttestedPlaintext, 0, len(values))
	for i, h := range decoded.Handles {
		attestations, err := n.attest(h, values[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, &confidential.AttestedPlaintext{Handle: h, Value: values[i], Attestations: attestations})
	}

	log.Debugf("已为所有者 %v 解密 %v 个句柄", decoded.Owner, len(ret))
	return ret, nil
}

func (n *Network) DecryptWithSession(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error) {
	voucherReq, err := n.checkGrant(ctx, grant, false)
	if err != nil {
		return nil, err
	}

	sessionKey, err := sm2keyutils.DeserializePublicKey(voucherReq.SessionPublicKey)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, err.Error())
	}

	var decoded confidential.SessionDecryptRequest
	if err = signer.VerifyPayload(sessionKey, req, &decoded); err != nil {
		return nil, err
	}
	if decoded.VoucherID != voucherReq.ID {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "请求与会话凭证不匹配")
	}
	if err = n.checkFreshness(decoded.IssuedAt); err != nil {
		return nil, err
	}
	if len(decoded.Handles) == 0 {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "未指定要解密的句柄")
	}

	values, err := n.decryptFor(ctx, decoded.Handles, voucherReq.Owner)
	if err != nil {
		return nil, err
	}

	ret := make([]*confidential.AttestedPlaintext, 0, len(values))
	for i, h := range decoded.Handles {
		sealed, err := cipherutils.SealValue(sessionKey, values[i])
		if err != nil {
			return nil, err
		}
		attestations, err := n.attest(h, values[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, &confidential.AttestedPlaintext{Handle: h, Sealed: sealed, Attestations: attestations})
	}

	log.Debugf("已通过会话 %v 解密 %v 个句柄", voucherReq.ID, len(ret))
	return ret, nil
}

func (n *Network) GrantSessionVoucher(ctx context.Context, req *confidential.Signed) (*confidential.Voucher, error) {
	var decoded confidential.VoucherRequest
	if err := n.verifyOwnerSigned(req, &decoded, func() ([]byte, string) { return decoded.OwnerPublicKey, decoded.Owner }); err != nil {
		return nil, err
	}
	if err := n.checkFreshness(decoded.IssuedAt); err != nil {
		return nil, err
	}
	if decoded.Verifier != n.cfg.Verifier {
		return nil, errors.Wrapf(errorcode.ErrorForbidden, "会话凭证作用域 '%v' 不被接受", decoded.Verifier)
	}

	now := n.clock.Now()
	if !now.Before(decoded.ExpiresAtTime()) {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "会话凭证的过期时间已过")
	}
	if _, err := sm2keyutils.DeserializePublicKey(decoded.SessionPublicKey); err != nil {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, err.Error())
	}

	nonce, err := n.store.GetSessionNonce(ctx, decoded.Owner)
	if err != nil {
		return nil, err
	}

	voucher := &confidential.Voucher{
		Request:   decoded,
		Nonce:     nonce,
		GrantedAt: now.Unix(),
		Grant:     *req,
	}
	voucherDB, err := sqlmodel.NewVoucherFromModel(voucher)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, err.Error())
	}
	if err = n.store.PutVoucher(ctx, voucherDB); err != nil {
		return nil, err
	}

	log.Debugf("已为所有者 %v 签发会话凭证 %v（nonce %v）", decoded.Owner, decoded.ID, nonce)
	return voucher, nil
}

func (n *Network) BumpSessionNonce(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) (*confidential.NonceReceipt, error) {
	// An expired voucher can still revoke its owner's sessions.
	voucherReq, err := n.checkGrant(ctx, grant, true)
	if err != nil {
		return nil, err
	}

	sessionKey, err := sm2keyutils.DeserializePublicKey(voucherReq.SessionPublicKey)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, err.Error())
	}

	var decoded confidential.NonceBumpRequest
	if err = signer.VerifyPayload(sessionKey, req, &decoded); err != nil {
		return nil, err
	}
	if decoded.VoucherID != voucherReq.ID || decoded.Owner != voucherReq.Owner {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "请求与会话凭证不匹配")
	}
	if err = n.checkFreshness(decoded.IssuedAt); err != nil {
		return nil, err
	}

	nonce, err := n.store.BumpSessionNonce(ctx, decoded.Owner)
	if err != nil {
		return nil, err
	}

	log.Infof("所有者 %v 的会话已全部吊销，当前 nonce 为 %v", decoded.Owner, nonce)
	return &confidential.NonceReceipt{
		Owner:    decoded.Owner,
		Nonce:    nonce,
		BumpedAt: n.clock.Now().Unix(),
	}, nil
}

func (n *Network) GetHandle(ctx context.Context, slot string) (handle.EncryptedHandle, error) {
	slotDB, err := n.store.GetSlot(ctx, slot)
	if errors.Is(err, errorcode.ErrorNotFound) {
		return handle.ZeroHandle, nil
	} else if err != nil {
		return handle.ZeroHandle, err
	}

	return handle.Parse(slotDB.Handle)
}

// CheckDecryptAccess reads the ACL as written on the ledger. A grant counts as soon as it is written, whether or
// not the co-validators have observed it yet.
func (n *Network) CheckDecryptAccess(ctx context.Context, h handle.EncryptedHandle, address string) (bool, error) {
	ciphertext, err := n.getCiphertext(ctx, h)
	if err != nil {
		return false, err
	}
	if ciphertext.Owner == address {
		return true, nil
	}

	_, err = n.store.GetAccessGrant(ctx, ciphertext.Handle, address)
	if errors.Is(err, errorcode.ErrorNotFound) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return true, nil
}

func (n *Network) PutHandle(ctx context.Context, slot string, h handle.EncryptedHandle) (*bcao.TransactionCreationInfo, error) {
	if slot == "" {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "状态槽名称不能为空")
	}
	if !h.IsZero() {
		if _, err := n.getCiphertext(ctx, h); err != nil {
			return nil, err
		}
	}

	if err := n.store.PutSlot(ctx, &sqlmodel.Slot{Name: slot, Handle: h.String()}); err != nil {
		return nil, err
	}

	return n.newTransaction()
}

func (n *Network) GrantAccess(ctx context.Context, h handle.EncryptedHandle, grantee string) (*bcao.TransactionCreationInfo, error) {
	if grantee == "" {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "被授权者不能为空")
	}
	if _, err := n.getCiphertext(ctx, h); err != nil {
		return nil, err
	}

	now := n.clock.Now()
	err := n.store.PutAccessGrant(ctx, &sqlmodel.AccessGrant{
		Handle:    h.String(),
		Grantee:   grantee,
		VisibleAt: now.Add(n.cfg.PropagationDelay),
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("已授权 %v 解密 %v，%v 后对协同验证者可见", grantee, h.Short(), n.cfg.PropagationDelay)
	return n.newTransaction()
}

func (n *Network) newTransaction() (*bcao.TransactionCreationInfo, error) {
	txID, err := idutils.GenerateSnowflakeId()
	if err != nil {
		return nil, err
	}

	return &bcao.TransactionCreationInfo{TransactionID: txID}, nil
}

func (n *Network) getCiphertext(ctx context.Context, h handle.EncryptedHandle) (*sqlmodel.Ciphertext, error) {
	if h.IsZero() {
		return nil, errors.Wrap(errorcode.ErrorInvalidHandle, "零句柄没有对应的密文")
	}

	ciphertext, err := n.store.GetCiphertext(ctx, h.String())
	if errors.Is(err, errorcode.ErrorNotFound) {
		return nil, errors.Wrapf(errorcode.ErrorInvalidHandle, "句柄 %v 不存在", h.Short())
	}

	return ciphertext, err
}

// checkAccess is the ACL as seen by the co-validators: a grant younger than the propagation delay is not there yet.
func (n *Network) checkAccess(ctx context.Context, ciphertext *sqlmodel.Ciphertext, address string) error {
	if ciphertext.Owner == address {
		return nil
	}

	grant, err := n.store.GetAccessGrant(ctx, ciphertext.Handle, address)
	if errors.Is(err, errorcode.ErrorNotFound) {
		return errors.Wrapf(errorcode.ErrorForbidden, "%v 无权解密 %v", address, ciphertext.Handle)
	} else if err != nil {
		return err
	}

	if n.clock.Now().Before(grant.VisibleAt) {
		return errors.Wrapf(errorcode.ErrorAccessNotPropagated, "%v 对 %v 的授权尚未同步", address, ciphertext.Handle)
	}

	return nil
}

func (n *Network) decryptFor(ctx context.Context, hs []handle.EncryptedHandle, address string) ([]uint64, error) {
	ret := make([]uint64, 0, len(hs))
	for _, h := range hs {
		ciphertext, err := n.getCiphertext(ctx, h)
		if err != nil {
			return nil, err
		}
		if err = n.checkAccess(ctx, ciphertext, address); err != nil {
			return nil, err
		}

		value, err := cipherutils.OpenValue(n.cfg.MasterKey, ciphertext.Sealed)
		if err != nil {
			return nil, err
		}
		ret = append(ret, value)
	}

	return ret, nil
}

func (n *Network) attest(h handle.EncryptedHandle, value uint64) ([]confidential.Attestation, error) {
	digest := cipherutils.AttestationDigest(h, value)
	ret := make([]confidential.Attestation, 0, len(n.cfg.Validators))
	for _, v := range n.cfg.Validators {
		sig, err := cipherutils.Sign(v, digest)
		if err != nil {
			return nil, err
		}
		ret = append(ret, confidential.Attestation{
			Validator: sm2keyutils.AddressOf(&v.PublicKey),
			Signature: sig,
		})
	}

	return ret, nil
}

// verifyOwnerSigned decodes a payload signed by the key it carries and checks that the key belongs to the
// claimed owner. `identity` is read after decoding.
func (n *Network) verifyOwnerSigned(req *confidential.Signed, v interface{}, identity func() ([]byte, string)) error {
	if req == nil {
		return errors.Wrap(errorcode.ErrorBadRequest, "缺少已签名请求")
	}
	if err := codec.Unmarshal(req.Payload, v); err != nil {
		return errors.Wrap(errorcode.ErrorBadRequest, "无法解析已签名载荷: "+err.Error())
	}

	publicKeyBytes, owner := identity()
	publicKey, err := sm2keyutils.DeserializePublicKey(publicKeyBytes)
	if err != nil {
		return errors.Wrap(errorcode.ErrorBadRequest, err.Error())
	}
	if sm2keyutils.AddressOf(publicKey) != owner {
		return errors.Wrap(errorcode.ErrorBadSignature, "公钥与所有者地址不匹配")
	}

	return signer.VerifyPayload(publicKey, req, v)
}

// checkGrant validates a voucher grant presented with a session request and returns the voucher it carries.
func (n *Network) checkGrant(ctx context.Context, grant *confidential.Signed, allowExpired bool) (*confidential.VoucherRequest, error) {
	var voucherReq confidential.VoucherRequest
	if err := n.verifyOwnerSigned(grant, &voucherReq, func() ([]byte, string) { return voucherReq.OwnerPublicKey, voucherReq.Owner }); err != nil {
		return nil, err
	}

	id, err := sqlmodel.ParseVoucherID(voucherReq.ID)
	if err != nil {
		return nil, errors.Wrap(errorcode.ErrorBadRequest, "会话凭证 ID 无效")
	}
	voucherDB, err := n.store.GetVoucher(ctx, id)
	if errors.Is(err, errorcode.ErrorNotFound) {
		return nil, errors.Wrapf(errorcode.ErrorForbidden, "会话凭证 %v 未由网络签发", voucherReq.ID)
	} else if err != nil {
		return nil, err
	}
	if !bytes.Equal(voucherDB.SessionPublicKey, voucherReq.SessionPublicKey) || voucherDB.Owner != voucherReq.Owner {
		return nil, errors.Wrap(errorcode.ErrorBadSignature, "会话凭证与签发记录不一致")
	}

	nonce, err := n.store.GetSessionNonce(ctx, voucherReq.Owner)
	if err != nil {
		return nil, err
	}
	if nonce != voucherDB.Nonce {
		return nil, errors.Wrapf(errorcode.ErrorSessionRevoked, "会话凭证 %v 已被吊销", voucherReq.ID)
	}
	if !allowExpired && !n.clock.Now().Before(voucherDB.ExpiresAt) {
		return nil, errors.Wrapf(errorcode.ErrorSessionExpired, "会话凭证 %v 已于 %v 过期", voucherReq.ID, voucherDB.ExpiresAt)
	}
	if voucherReq.Verifier != n.cfg.Verifier {
		return nil, errors.Wrapf(errorcode.ErrorForbidden, "会话凭证作用域 '%v' 不被接受", voucherReq.Verifier)
	}

	return &voucherReq, nil
}

func (n *Network) checkFreshness(issuedAt int64) error {
	if n.cfg.RequestFreshness <= 0 {
		return nil
	}

	skew := n.clock.Now().Sub(time.Unix(issuedAt, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > n.cfg.RequestFreshness {
		return errors.Wrapf(errorcode.ErrorBadRequest, "请求签发时间与当前时间相差 %v，超出允许范围", skew)
	}

	return nil
}
