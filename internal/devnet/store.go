package devnet

import (
	"context"

	"gitee.com/czyczk/attested-reveal/internal/models/sqlmodel"
)

// Store persists the state of the development network. Lookups of missing records return
// `errorcode.ErrorNotFound`, except the session nonce which defaults to 0.
type Store interface {
	PutCiphertext(ctx context.Context, ciphertext *sqlmodel.Ciphertext) error
	GetCiphertext(ctx context.Context, handle string) (*sqlmodel.Ciphertext, error)

	// PutAccessGrant records a grant. An existing grant for the same pair is kept as is.
	PutAccessGrant(ctx context.Context, grant *sqlmodel.AccessGrant) error
	GetAccessGrant(ctx context.Context, handle string, grantee string) (*sqlmodel.AccessGrant, error)

	GetSessionNonce(ctx context.Context, owner string) (uint64, error)
	BumpSessionNonce(ctx context.Context, owner string) (uint64, error)
	PutVoucher(ctx context.Context, voucher *sqlmodel.Voucher) error
	GetVoucher(ctx context.Context, id int64) (*sqlmodel.Voucher, error)

	PutSlot(ctx context.Context, slot *sqlmodel.Slot) error
	GetSlot(ctx context.Context, name string) (*sqlmodel.Slot, error)
}
