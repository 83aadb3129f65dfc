package bcao

import (
	"context"

	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// IConfidentialBCAO is the client side of the confidential-compute network. Implementations classify network
// failures into the sentinels of `pkg/errorcode`.
type IConfidentialBCAO interface {
	// Encrypt stores `req.Value` as a new ciphertext owned by `req.Owner` and returns its handle.
	Encrypt(ctx context.Context, req *confidential.EncryptRequest) (handle.EncryptedHandle, error)
	// DecryptWithOwner submits an `OwnerDecryptRequest` signed by the owner. Values come back in the clear.
	DecryptWithOwner(ctx context.Context, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error)
	// DecryptWithSession presents the owner's voucher grant together with a `SessionDecryptRequest` signed by
	// the session key. Values come back sealed to the session public key.
	DecryptWithSession(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error)
	// GrantSessionVoucher submits a `VoucherRequest` signed by the owner.
	GrantSessionVoucher(ctx context.Context, req *confidential.Signed) (*confidential.Voucher, error)
	// BumpSessionNonce invalidates every voucher issued to the owner so far. `req` is a `NonceBumpRequest`
	// signed by the session key of the voucher in `grant`.
	BumpSessionNonce(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) (*confidential.NonceReceipt, error)
}
