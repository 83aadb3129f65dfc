package fabricbcao

import (
	"context"
	"strconv"
	"strings"

	"github.com/hyperledger/fabric-sdk-go/pkg/client/channel"
	"github.com/pkg/errors"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/internal/blockchain/chaincodectx"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// LedgerBCAOFabricImpl reads handle slots and decryption ACLs from the chaincode.
type LedgerBCAOFabricImpl struct {
	ctx *chaincodectx.FabricChaincodeCtx
}

func NewLedgerBCAOFabricImpl(ctx *chaincodectx.FabricChaincodeCtx) *LedgerBCAOFabricImpl {
	return &LedgerBCAOFabricImpl{
		ctx: ctx,
	}
}

func (o *LedgerBCAOFabricImpl) GetHandle(ctx context.Context, slot string) (handle.EncryptedHandle, error) {
	chaincodeFcn := "getEncryptedHandle"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(slot)},
	}

	resp, err := queryChannelRequestWithTimer(ctx, o.ctx.ChannelClient, &channelReq, "获取句柄")
	if err != nil {
		return handle.ZeroHandle, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	// An unset slot has an empty payload
	payload := strings.TrimSpace(string(resp.Payload))
	if payload == "" {
		return handle.ZeroHandle, nil
	}

	h, err := handle.Parse(payload)
	if err != nil {
		return handle.ZeroHandle, errors.Wrapf(err, "无法解析槽位 '%v' 中的句柄", slot)
	}

	return h, nil
}

func (o *LedgerBCAOFabricImpl) CheckDecryptAccess(ctx context.Context, h handle.EncryptedHandle, address string) (bool, error) {
	chaincodeFcn := "isAllowedToDecrypt"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(h.String()), []byte(address)},
	}

	resp, err := queryChannelRequestWithTimer(ctx, o.ctx.ChannelClient, &channelReq, "检查解密权限")
	if err != nil {
		return false, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	allowed, err := strconv.ParseBool(string(resp.Payload))
	if err != nil {
		return false, errors.Wrap(err, "无法解析解密权限检查结果")
	}

	return allowed, nil
}

func (o *LedgerBCAOFabricImpl) PutHandle(ctx context.Context, slot string, h handle.EncryptedHandle) (*bcao.TransactionCreationInfo, error) {
	chaincodeFcn := "putEncryptedHandle"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(slot), []byte(h.String())},
	}

	resp, err := executeChannelRequestWithTimer(ctx, o.ctx.ChannelClient, &channelReq, "写入句柄")
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	return &bcao.TransactionCreationInfo{
		TransactionID: string(resp.TransactionID),
	}, nil
}

func (o *LedgerBCAOFabricImpl) GrantAccess(ctx context.Context, h handle.EncryptedHandle, grantee string) (*bcao.TransactionCreationInfo, error) {
	chaincodeFcn := "allowDecrypt"
	channelReq := channel.Request{
		ChaincodeID: o.ctx.ChaincodeID,
		Fcn:         chaincodeFcn,
		Args:        [][]byte{[]byte(h.String()), []byte(grantee)},
	}

	resp, err := executeChannelRequestWithTimer(ctx, o.ctx.ChannelClient, &channelReq, "授予解密权限")
	if err != nil {
		return nil, bcao.GetClassifiedError(chaincodeFcn, err)
	}

	return &bcao.TransactionCreationInfo{
		TransactionID: string(resp.TransactionID),
	}, nil
}
