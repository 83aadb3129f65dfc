package gatewaybcao

import (
	"context"
	"net/http"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

type ConfidentialBCAOGatewayImpl struct {
	ctx    *chaincodectx.GatewayCtx
	client *http.Client
}

func NewConfidentialBCAOGatewayImpl(ctx *chaincodectx.GatewayCtx) *ConfidentialBCAOGatewayImpl {
	return &ConfidentialBCAOGatewayImpl{
		ctx:    ctx,
		client: newHTTPClient(ctx),
	}
}

func (o *ConfidentialBCAOGatewayImpl) Encrypt(ctx context.Context, req *confidential.EncryptRequest) (handle.EncryptedHandle, error) {
	var info confidential.CiphertextInfo
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/confidential/encrypt", req, &info); err != nil {
		return handle.ZeroHandle, err
	}

	return info.Handle, nil
}

func (o *ConfidentialBCAOGatewayImpl) DecryptWithOwner(ctx context.Context, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error) {
	var ret []*confidential.AttestedPlaintext
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/decrypt/owner", req, &ret); err != nil {
		return nil, err
	}

	return ret, nil
}

func (o *ConfidentialBCAOGatewayImpl) DecryptWithSession(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) ([]*confidential.AttestedPlaintext, error) {
	call := &confidential.SessionDecryptCall{
		Grant:   *grant,
		Request: *req,
	}

	var ret []*confidential.AttestedPlaintext
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/decrypt/session", call, &ret); err != nil {
		return nil, err
	}

	return ret, nil
}

func (o *ConfidentialBCAOGatewayImpl) GrantSessionVoucher(ctx context.Context, req *confidential.Signed) (*confidential.Voucher, error) {
	var voucher confidential.Voucher
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/session/voucher", req, &voucher); err != nil {
		return nil, err
	}

	return &voucher, nil
}

func (o *ConfidentialBCAOGatewayImpl) BumpSessionNonce(ctx context.Context, grant *confidential.Signed, req *confidential.Signed) (*confidential.NonceReceipt, error) {
	call := &confidential.NonceBumpCall{
		Grant:   *grant,
		Request: *req,
	}

	var receipt confidential.NonceReceipt
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/session/nonce/bump", call, &receipt); err != nil {
		return nil, err
	}

	return &receipt, nil
}
