package devnet

import (
	"context"

	"gorm.io/gorm"

	"gitee.com/czyczk/attested-reveal/internal/db"
	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
)

// GormStore keeps the network state in a relational database through gorm.
type GormStore struct {
	conn *gorm.DB
}

// NewGormStore wraps an open database. The schema is expected to be migrated already (see `db.OpenMySQL`).
func NewGormStore(conn *gorm.DB) *GormStore {
	return &GormStore{conn: conn}
}

func (s *GormStore) PutCiphertext(ctx context.Context, ciphertext *sqlmodel.Ciphertext) error {
	return db.SaveCiphertextToDB(ciphertext, s.conn.WithContext(ctx))
}

func (s *GormStore) GetCiphertext(ctx context.Context, handle string) (*sqlmodel.Ciphertext, error) {
	return db.GetCiphertextFromDB(handle, s.conn.WithContext(ctx))
}

func (s *GormStore) PutAccessGrant(ctx context.Context, grant *sqlmodel.AccessGrant) error {
	return db.SaveAccessGrantToDB(grant, s.conn.WithContext(ctx))
}

func (s *GormStore) GetAccessGrant(ctx context.Context, handle string, grantee string) (*sqlmodel.AccessGrant, error) {
	return db.GetAccessGrantFromDB(handle, grantee, s.conn.WithContext(ctx))
}

func (s *GormStore) GetSessionNonce(ctx context.Context, owner string) (uint64, error) {
	return db.GetSessionNonceFromDB(owner, s.conn.WithContext(ctx))
}

func (s *GormStore) BumpSessionNonce(ctx context.Context, owner string) (uint64, error) {
	return db.BumpSessionNonceInDB(owner, s.conn.WithContext(ctx))
}

func (s *GormStore) PutVoucher(ctx context.Context, voucher *sqlmodel.Voucher) error {
	return db.SaveVoucherToDB(voucher, s.conn.WithContext(ctx))
}

func (s *GormStore) GetVoucher(ctx context.Context, id int64) (*sqlmodel.Voucher, error) {
	return db.GetVoucherFromDB(id, s.conn.WithContext(ctx))
}

func (s *GormStore) PutSlot(ctx context.Context, slot *sqlmodel.Slot) error {
	return db.SaveSlotToDB(slot, s.conn.WithContext(ctx))
}

func (s *GormStore) GetSlot(ctx context.Context, name string) (*sqlmodel.Slot, error) {
	return db.GetSlotFromDB(name, s.conn.WithContext(ctx))
}
