package service

import (
	"context"
	"crypto/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tjfoc/gmsm/sm2"

	"gitee.com/czyczk/attested-reveal/internal/signer"
	"gitee.com/czyczk/attested-reveal/internal/utils/cipherutils"
	"gitee.com/czyczk/attested-reveal/internal/utils/timingutils"
	"gitee.com/czyczk/attested-reveal/pkg/codec"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
	"gitee.com/czyczk/attested-reveal/pkg/sm2keyutils"
)

// fakeConfidentialBCAO is an in-memory confidential network that counts its calls.
type fakeConfidentialBCAO struct {
	mu sync.Mutex

	values       map[handle.EncryptedHandle]uint64
	ownerErrs    map[handle.EncryptedHandle]error // permanent per-handle failures on the owner path
	sessionErr   error                            // permanent failure on the session path
	transient    int                              // number of upcoming decrypt calls failing with AccessNotPropagated
	validators   []*sm2.PrivateKey
	panicOnOwner bool

	ownerCalls     int
	sessionCalls   int
	sessionBatches [][]handle.EncryptedHandle
	grantCalls     int
	bumpCalls      int

	// entered receives a value when a session call starts; release must be closed to let it finish
	entered chan struct{}
	release chan struct{}
}

func newFakeConfidentialBCAO() *fakeConfidentialBCAO {
	return &fakeConfidentialBCAO{
		values:    make(map[handle.EncryptedHandle]uint64),
		ownerErrs: make(map[handle.EncryptedHandle]error),
	}
}

func (f *fakeConfidentialBCAO) put(value uint64) handle.EncryptedHandle {
	f.mu.Lock()
	defer f.mu.Unlock()

	var h handle.EncryptedHandle
	_, _ = rand.Read(h[:])
	f.values[h] = value
	return h
}

func (f *fakeConfidentialBCAO) counts() (owner, session, grant, bump int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ownerCalls, f.sessionCalls, f.grantCalls, f.bumpCalls
}

func (f *fakeConfidentialBCAO) attest(h handle.EncryptedHandle, value uint64) []confidential.Attestation {
	ret := make([]confidential.Attestation, 0, len(f.validators))
	for _, v := range f.validators {
		sig, _ := cipherutils.Sign(v, cipherutils.AttestationDigest(h, value))
		ret = append(ret, confidential.Attestation{
			Validator: sm2keyutils.AddressOf(&v.PublicKey),
			Signature: sig,
		})
	}
	return ret
}

func (f *fakeConfidentialBCAO) takeTransient() bool {
	if f.transient > 0 {
		f.transient--
		return true
	}
	return false
}

func (f *fakeConfidentialBCAO) Encrypt(ctx context.Context, req *confidential.EncryptRequest) (handle.EncryptedHandle, error) {
	return f.put(req.Value), nil
}

func (f *fakeConfidentialBCAO) DecryptWithOwner(ctx context.Context, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error) {
	var decoded confidential.OwnerDecryptRequest
	if err := codec.Unmarshal(req.Payload, &decoded); err != nil {
		return nil, err
	}
	ownerKey, err := sm2keyutils.DeserializePublicKey(decoded.OwnerPublicKey)
	if err != nil || !ownerKey.Verify(req.Payload, req.Signature) {
		return nil, errorcode.ErrorBadSignature
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownerCalls++

	if f.panicOnOwner {
		panic("fake network exploded")
	}
	if f.takeTransient() {
		return nil, errorcode.ErrorAccessNotPropagated
	}

	ret := make([]*confidential.AttestedPlaintext, 0, len(decoded.Handles))
	for _, h := range decoded.Handles {
		if err := f.ownerErrs[h]; err != nil {
			return nil, err
		}
		value, ok := f.values[h]
		if !ok {
			return nil, errorcode.ErrorInvalidHandle
		}
		ret = append(ret, &confidential.AttestedPlaintext{Handle: h, Value: value, Attestations: f.attest(h, value)})
	}

	return ret, nil
}

func (f *fakeConfidentialBCAO) DecryptWithSession(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error) {
	var voucher confidential.VoucherRequest
	if err := codec.Unmarshal(grant.Payload, &voucher); err != nil {
		return nil, err
	}
	sessionKey, err := sm2keyutils.DeserializePublicKey(voucher.SessionPublicKey)
	if err != nil || !sessionKey.Verify(req.Payload, req.Signature) {
		return nil, errorcode.ErrorBadSignature
	}

	var decoded confidential.SessionDecryptRequest
	if err := codec.Unmarshal(req.Payload, &decoded); err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.sessionCalls++
	f.sessionBatches = append(f.sessionBatches, decoded.Handles)
	entered, release := f.entered, f.release
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
		<-release
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	if f.takeTransient() {
		return nil, errorcode.ErrorAccessNotPropagated
	}

	ret := make([]*confidential.AttestedPlaintext, 0, len(decoded.Handles))
	for _, h := range decoded.Handles {
		value, ok := f.values[h]
		if !ok {
			return nil, errorcode.ErrorInvalidHandle
		}
		sealed, err := cipherutils.SealValue(sessionKey, value)
		if err != nil {
			return nil, err
		}
		ret = append(ret, &confidential.AttestedPlaintext{Handle: h, Sealed: sealed, Attestations: f.attest(h, value)})
	}

	return ret, nil
}

func (f *fakeConfidentialBCAO) GrantSessionVoucher(ctx context.Context, req *confidential.Signed) (*confidential.Voucher, error) {
	var decoded confidential.VoucherRequest
	if err := codec.Unmarshal(req.Payload, &decoded); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.grantCalls++

	return &confidential.Voucher{
		Request:   decoded,
		GrantedAt: decoded.IssuedAt,
		Grant:     *req,
	}, nil
}

func (f *fakeConfidentialBCAO) BumpSessionNonce(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) (*confidential.NonceReceipt, error) {
	var decoded confidential.NonceBumpRequest
	if err := codec.Unmarshal(req.Payload, &decoded); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.bumpCalls++

	return &confidential.NonceReceipt{Owner: decoded.Owner, Nonce: uint64(f.bumpCalls)}, nil
}

// countingSigner counts the signatures it hands out and can be told to refuse.
type countingSigner struct {
	*signer.SM2Signer

	mu     sync.Mutex
	signs  int
	refuse bool
	block  chan struct{}
}

func newCountingSigner(t *testing.T) *countingSigner {
	privKey, err := sm2.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return &countingSigner{SM2Signer: signer.NewSM2Signer(privKey)}
}

func (s *countingSigner) Sign(ctx context.Context, purpose string, payload []byte) ([]byte, error) {
	s.mu.Lock()
	s.signs++
	refuse, block := s.refuse, s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if refuse {
		return nil, errorcode.ErrorUserRejected
	}

	return s.SM2Signer.Sign(ctx, purpose, payload)
}

func (s *countingSigner) signCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.signs
}

// testEnv wires the services the way the reveal context does.
type testEnv struct {
	network  *fakeConfidentialBCAO
	owner    *countingSigner
	conn     *signer.Connection
	clock    *timingutils.FakeClock
	sessions *SessionKeyService
	decrypt  *DecryptionService
	reveal   *RevealService
}

func newTestEnv(t *testing.T) *testEnv {
	network := newFakeConfidentialBCAO()
	owner := newCountingSigner(t)
	conn := signer.NewConnection()
	conn.Connect(owner)

	clock := timingutils.NewFakeClock(time.Unix(1700000000, 0))
	decrypt := &DecryptionService{
		ConfidentialBCAO: network,
		Retry:            DefaultRetryPolicy(),
		Clock:            clock,
	}
	sessions := NewSessionKeyService(network, conn, "test-verifier", time.Hour, clock, DefaultRetryPolicy())
	t.Cleanup(func() { _ = sessions.Close(context.Background()) })

	return &testEnv{
		network:  network,
		owner:    owner,
		conn:     conn,
		clock:    clock,
		sessions: sessions,
		decrypt:  decrypt,
		reveal: &RevealService{
			Decryption: decrypt,
			Sessions:   sessions,
			Connection: conn,
		},
	}
}
