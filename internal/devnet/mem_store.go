package devnet

import (
	"context"
	"sync"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
)

type grantKey struct {
	handle  string
	grantee string
}

// MemStore keeps the network state in memory. It is lost when the process exits.
type MemStore struct {
	mu          sync.RWMutex
	ciphertexts map[string]sqlmodel.Ciphertext
	grants      map[grantKey]sqlmodel.AccessGrant
	nonces      map[string]uint64
	vouchers    map[int64]sqlmodel.Voucher
	slots       map[string]sqlmodel.Slot
}

func NewMemStore() *MemStore {
	return &MemStore{
		ciphertexts: make(map[string]sqlmodel.Ciphertext),
		grants:      make(map[grantKey]sqlmodel.AccessGrant),
		nonces:      make(map[string]uint64),
		vouchers:    make(map[int64]sqlmodel.Voucher),
		slots:       make(map[string]sqlmodel.Slot),
	}
}

func (s *MemStore) PutCiphertext(ctx context.Context, ciphertext *sqlmodel.Ciphertext) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ciphertexts[ciphertext.Handle] = *ciphertext
	return nil
}

func (s *MemStore) GetCiphertext(ctx context.Context, handle string) (*sqlmodel.Ciphertext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ciphertext, ok := s.ciphertexts[handle]
	if !ok {
		return nil, errorcode.ErrorNotFound
	}
	return &ciphertext, nil
}

func (s *MemStore) PutAccessGrant(ctx context.Context, grant *sqlmodel.AccessGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := grantKey{grant.Handle, grant.Grantee}
	if _, ok := s.grants[key]; !ok {
		s.grants[key] = *grant
	}
	return nil
}

func (s *MemStore) GetAccessGrant(ctx context.Context, handle string, grantee string) (*sqlmodel.AccessGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	grant, ok := s.grants[grantKey{handle, grantee}]
	if !ok {
		return nil, errorcode.ErrorNotFound
	}
	return &grant, nil
}

func (s *MemStore) GetSessionNonce(ctx context.Context, owner string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nonces[owner], nil
}

func (s *MemStore) BumpSessionNonce(ctx context.Context, owner string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nonces[owner]++
	return s.nonces[owner], nil
}

func (s *MemStore) PutVoucher(ctx context.Context, voucher *sqlmodel.Voucher) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vouchers[voucher.ID] = *voucher
	return nil
}

func (s *MemStore) GetVoucher(ctx context.Context, id int64) (*sqlmodel.Voucher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	voucher, ok := s.vouchers[id]
	if !ok {
		return nil, errorcode.ErrorNotFound
	}
	return &voucher, nil
}

func (s *MemStore) PutSlot(ctx context.Context, slot *sqlmodel.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[slot.Name] = *slot
	return nil
}

func (s *MemStore) GetSlot(ctx context.Context, name string) (*sqlmodel.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	slot, ok := s.slots[name]
	if !ok {
		return nil, errorcode.ErrorNotFound
	}
	return &slot, nil
}
