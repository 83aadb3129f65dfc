package bcao

import (
	"context"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// ILedgerBCAO reads the on-chain state the reveal client depends on.
type ILedgerBCAO interface {
	// GetHandle returns the handle stored in a named state slot. An unset slot yields the zero handle.
	GetHandle(ctx context.Context, slot string) (handle.EncryptedHandle, error)
	// CheckDecryptAccess reports whether the ACL currently allows `address` to decrypt `h`.
	CheckDecryptAccess(ctx context.Context, h handle.EncryptedHandle, address string) (bool, error)
}

// ILedgerAdminBCAO writes that state. The reveal client never needs it; tools and tests do.
type ILedgerAdminBCAO interface {
	ILedgerBCAO
	PutHandle(ctx context.Context, slot string, h handle.EncryptedHandle) (*TransactionCreationInfo, error)
	GrantAccess(ctx context.Context, h handle.EncryptedHandle, grantee string) (*TransactionCreationInfo, error)
}
