package gatewaybcao

import (
	"context"
	"net/http"
	"net/url"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// LedgerBCAOGatewayImpl reads and writes handle slots and ACLs through the gateway.
type LedgerBCAOGatewayImpl struct {
	ctx    *chaincodectx.GatewayCtx
	client *http.Client
}

func NewLedgerBCAOGatewayImpl(ctx *chaincodectx.GatewayCtx) *LedgerBCAOGatewayImpl {
	return &LedgerBCAOGatewayImpl{
		ctx:    ctx,
		client: newHTTPClient(ctx),
	}
}

type slotBody struct {
	Name   string                 `json:"name"`
	Handle handle.EncryptedHandle `json:"handle"`
}

func (o *LedgerBCAOGatewayImpl) GetHandle(ctx context.Context, slot string) (handle.EncryptedHandle, error) {
	path := "/ledger/slot?name=" + url.QueryEscape(slot)

	var ret slotBody
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodGet, path, nil, &ret); err != nil {
		return handle.ZeroHandle, err
	}

	return ret.Handle, nil
}

func (o *LedgerBCAOGatewayImpl) CheckDecryptAccess(ctx context.Context, h handle.EncryptedHandle, address string) (bool, error) {
	path := "/acl/" + h.String() + "/" + url.PathEscape(address)

	var allowed bool
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodGet, path, nil, &allowed); err != nil {
		return false, err
	}

	return allowed, nil
}

func (o *LedgerBCAOGatewayImpl) PutHandle(ctx context.Context, slot string, h handle.EncryptedHandle) (*bcao.TransactionCreationInfo, error) {
	var ret bcao.TransactionCreationInfo
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/ledger/slot", &slotBody{Name: slot, Handle: h}, &ret); err != nil {
		return nil, err
	}

	return &ret, nil
}

func (o *LedgerBCAOGatewayImpl) GrantAccess(ctx context.Context, h handle.EncryptedHandle, grantee string) (*bcao.TransactionCreationInfo, error) {
	req := &confidential.GrantAccessRequest{
		Handle:  h,
		Grantee: grantee,
	}

	var ret bcao.TransactionCreationInfo
	if err := sendRequest(ctx, o.ctx, o.client, http.MethodPost, "/acl/grant", req, &ret); err != nil {
		return nil, err
	}

	return &ret, nil
}
