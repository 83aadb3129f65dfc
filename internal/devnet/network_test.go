package devnet

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/cipherutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/idutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

const testVerifier = "devnet-test"

type networkEnv struct {
	network   *Network
	clock     *timingutils.FakeClock
	owner     *signer.SM2Signer
	validator *sm2.PrivateKey
}

func newNetworkEnv(t *testing.T) *networkEnv {
	validator, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)
	ownerKey, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)

	clock := timingutils.NewFakeClock(time.Unix(1700000000, 0))
	network, err := NewNetwork(Config{
		Verifier:         testVerifier,
		PropagationDelay: 2 * time.Second,
		RequestFreshness: time.Minute,
		Validators:       []*sm2.PrivateKey{validator},
	}, NewMemStore(), clock)
	require.NoError(t, err)

	return &networkEnv{
		network:   network,
		clock:     clock,
		owner:     signer.NewSM2Signer(ownerKey),
		validator: validator,
	}
}

func (e *networkEnv) encrypt(t *testing.T, value uint64) handle.EncryptedHandle {
	h, err := e.network.Encrypt(context.Background(), &confidential.EncryptRequest{Value: value, Owner: e.owner.Address(), Scope: "test"})
	require.NoError(t, err)
	return h
}

func (e *networkEnv) ownerRequest(t *testing.T, s signer.Signer, hs ...handle.EncryptedHandle) *confidential.Signed {
	signed, err := signer.SignPayload(context.Background(), s, "decrypt", &confidential.OwnerDecryptRequest{
		RequestID:      "1",
		Owner:          s.Address(),
		OwnerPublicKey: sm2keyutils.SerializePublicKey(s.PublicKey()),
		Handles:        hs,
		IssuedAt:       e.clock.Now().Unix(),
	})
	require.NoError(t, err)
	return signed
}

// grantVoucher has the owner delegate to a fresh session key and returns the key with the voucher.
func (e *networkEnv) grantVoucher(t *testing.T, validity time.Duration) (*sm2.PrivateKey, *confidential.Voucher) {
	sessionKey, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)
	id, err := idutils.GenerateSnowflakeId()
	require.NoError(t, err)

	now := e.clock.Now()
	signed, err := signer.SignPayload(context.Background(), e.owner, "voucher", &confidential.VoucherRequest{
		ID:               id,
		Owner:            e.owner.Address(),
		OwnerPublicKey:   sm2keyutils.SerializePublicKey(e.owner.PublicKey()),
		SessionPublicKey: sm2keyutils.SerializePublicKey(&sessionKey.PublicKey),
		Verifier:         testVerifier,
		IssuedAt:         now.Unix(),
		ExpiresAt:        now.Add(validity).Unix(),
	})
	require.NoError(t, err)

	voucher, err := e.network.GrantSessionVoucher(context.Background(), signed)
	require.NoError(t, err)
	return sessionKey, voucher
}

func (e *networkEnv) sessionRequest(t *testing.T, sessionKey *sm2.PrivateKey, voucher *confidential.Voucher, hs ...handle.EncryptedHandle) *confidential.Signed {
	signed, err := signer.SignPayload(context.Background(), signer.NewSM2Signer(sessionKey), "session decrypt", &confidential.SessionDecryptRequest{
		RequestID: "2",
		VoucherID: voucher.Request.ID,
		Handles:   hs,
		IssuedAt:  e.clock.Now().Unix(),
	})
	require.NoError(t, err)
	return signed
}

func TestOwnerDecrypt(t *testing.T) {
	env := newNetworkEnv(t)
	h1, h2 := env.encrypt(t, 42), env.encrypt(t, 7)
	assert.NotEqual(t, h1, h2)
	assert.False(t, h1.IsZero())

	results, err := env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, env.owner, h1, h2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, uint64(42), results[0].Value)
	assert.Equal(t, uint64(7), results[1].Value)

	require.Len(t, results[0].Attestations, 1)
	att := results[0].Attestations[0]
	assert.Equal(t, sm2keyutils.AddressOf(&env.validator.PublicKey), att.Validator)
	assert.True(t, cipherutils.Verify(&env.validator.PublicKey, cipherutils.AttestationDigest(h1, 42), att.Signature))
}

func TestOwnerDecryptRejectsTamperedRequests(t *testing.T) {
	env := newNetworkEnv(t)
	h := env.encrypt(t, 1)

	signed := env.ownerRequest(t, env.owner, h)
	signed.Signature[len(signed.Signature)-1] ^= 0xff
	_, err := env.network.DecryptWithOwner(context.Background(), signed)
	assert.True(t, errors.Is(err, errorcode.ErrorBadSignature))

	_, err = env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, env.owner))
	assert.True(t, errors.Is(err, errorcode.ErrorBadRequest))

	stale := env.ownerRequest(t, env.owner, h)
	env.clock.Advance(2 * time.Minute)
	_, err = env.network.DecryptWithOwner(context.Background(), stale)
	assert.True(t, errors.Is(err, errorcode.ErrorBadRequest))
}

func TestDecryptAccessPropagation(t *testing.T) {
	env := newNetworkEnv(t)
	h := env.encrypt(t, 99)

	otherKey, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)
	other := signer.NewSM2Signer(otherKey)

	_, err = env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, other, h))
	assert.True(t, errors.Is(err, errorcode.ErrorForbidden))

	allowed, err := env.network.CheckDecryptAccess(context.Background(), h, other.Address())
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = env.network.GrantAccess(context.Background(), h, other.Address())
	require.NoError(t, err)

	// The ledger knows at once; the co-validators only after the propagation delay.
	allowed, err = env.network.CheckDecryptAccess(context.Background(), h, other.Address())
	require.NoError(t, err)
	assert.True(t, allowed)

	_, err = env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, other, h))
	assert.True(t, errors.Is(err, errorcode.ErrorAccessNotPropagated))
	assert.True(t, errorcode.IsRetryable(err))

	env.clock.Advance(2 * time.Second)
	results, err := env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, other, h))
	require.NoError(t, err)
	assert.Equal(t, uint64(99), results[0].Value)
}

func TestDecryptInvalidHandles(t *testing.T) {
	env := newNetworkEnv(t)

	var unknown handle.EncryptedHandle
	unknown[0] = 1
	_, err := env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, env.owner, unknown))
	assert.True(t, errors.Is(err, errorcode.ErrorInvalidHandle))

	_, err = env.network.DecryptWithOwner(context.Background(), env.ownerRequest(t, env.owner, handle.ZeroHandle))
	assert.True(t, errors.Is(err, errorcode.ErrorInvalidHandle))

	_, err = env.network.GrantAccess(context.Background(), unknown, "0xabc")
	assert.True(t, errors.Is(err, errorcode.ErrorInvalidHandle))
}

func TestSessionDecrypt(t *testing.T) {
	env := newNetworkEnv(t)
	h1, h2 := env.encrypt(t, 5), env.encrypt(t, 6)

	sessionKey, voucher := env.grantVoucher(t, time.Hour)
	assert.Equal(t, uint64(0), voucher.Nonce)

	results, err := env.network.DecryptWithSession(context.Background(), &voucher.Grant, env.sessionRequest(t, sessionKey, voucher, h1, h2))
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Zero(t, results[0].Value)

	value, err := cipherutils.OpenValue(sessionKey, results[1].Sealed)
	require.NoError(t, err)
	assert.Equal(t, uint64(6), value)
}

func TestSessionDecryptRejectsForeignSessionKey(t *testing.T) {
	env := newNetworkEnv(t)
	h := env.encrypt(t, 5)

	_, voucher := env.grantVoucher(t, time.Hour)
	otherKey, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)

	_, err = env.network.DecryptWithSession(context.Background(), &voucher.Grant, env.sessionRequest(t, otherKey, voucher, h))
	assert.True(t, errors.Is(err, errorcode.ErrorBadSignature))
}

func TestSessionExpiry(t *testing.T) {
	env := newNetworkEnv(t)
	h := env.encrypt(t, 5)

	sessionKey, voucher := env.grantVoucher(t, 10*time.Second)
	env.clock.Advance(10 * time.Second)

	_, err := env.network.DecryptWithSession(context.Background(), &voucher.Grant, env.sessionRequest(t, sessionKey, voucher, h))
	assert.True(t, errors.Is(err, errorcode.ErrorSessionExpired))
}

func TestNonceBumpRevokesEveryVoucher(t *testing.T) {
	env := newNetworkEnv(t)
	h := env.encrypt(t, 5)

	firstKey, first := env.grantVoucher(t, time.Hour)
	secondKey, second := env.grantVoucher(t, time.Hour)

	bump, err := signer.SignPayload(context.Background(), signer.NewSM2Signer(firstKey), "revoke", &confidential.NonceBumpRequest{
		VoucherID: first.Request.ID,
		Owner:     env.owner.Address(),
		IssuedAt:  env.clock.Now().Unix(),
	})
	require.NoError(t, err)

	receipt, err := env.network.BumpSessionNonce(context.Background(), &first.Grant, bump)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), receipt.Nonce)
	assert.Equal(t, env.owner.Address(), receipt.Owner)

	_, err = env.network.DecryptWithSession(context.Background(), &first.Grant, env.sessionRequest(t, firstKey, first, h))
	assert.True(t, errors.Is(err, errorcode.ErrorSessionRevoked))
	_, err = env.network.DecryptWithSession(context.Background(), &second.Grant, env.sessionRequest(t, secondKey, second, h))
	assert.True(t, errors.Is(err, errorcode.ErrorSessionRevoked))

	// A voucher granted after the bump carries the new nonce.
	thirdKey, third := env.grantVoucher(t, time.Hour)
	assert.Equal(t, uint64(1), third.Nonce)
	_, err = env.network.DecryptWithSession(context.Background(), &third.Grant, env.sessionRequest(t, thirdKey, third, h))
	assert.NoError(t, err)
}

func TestGrantSessionVoucherRejectsWrongVerifier(t *testing.T) {
	env := newNetworkEnv(t)
	sessionKey, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)

	now := env.clock.Now()
	signed, err := signer.SignPayload(context.Background(), env.owner, "voucher", &confidential.VoucherRequest{
		ID:               "1",
		Owner:            env.owner.Address(),
		OwnerPublicKey:   sm2keyutils.SerializePublicKey(env.owner.PublicKey()),
		SessionPublicKey: sm2keyutils.SerializePublicKey(&sessionKey.PublicKey),
		Verifier:         "someone-else",
		IssuedAt:         now.Unix(),
		ExpiresAt:        now.Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	_, err = env.network.GrantSessionVoucher(context.Background(), signed)
	assert.True(t, errors.Is(err, errorcode.ErrorForbidden))
}

func TestSlots(t *testing.T) {
	env := newNetworkEnv(t)

	h, err := env.network.GetHandle(context.Background(), "balance")
	require.NoError(t, err)
	assert.True(t, h.IsZero())

	stored := env.encrypt(t, 3)
	tx, err := env.network.PutHandle(context.Background(), "balance", stored)
	require.NoError(t, err)
	assert.NotEmpty(t, tx.TransactionID)

	h, err = env.network.GetHandle(context.Background(), "balance")
	require.NoError(t, err)
	assert.Equal(t, stored, h)

	var unknown handle.EncryptedHandle
	unknown[31] = 9
	_, err = env.network.PutHandle(context.Background(), "balance", unknown)
	assert.True(t, errors.Is(err, errorcode.ErrorInvalidHandle))

	info, err := env.network.GetCiphertextInfo(context.Background(), stored)
	require.NoError(t, err)
	assert.Equal(t, env.owner.Address(), info.Owner)
	assert.Equal(t, "test", info.Scope)
}
