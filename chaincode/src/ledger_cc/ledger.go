package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"

	"gitee.com/czyczk/attested-reveal/pkg/errorcode"
	"gitee.com/czyczk/attested-reveal/pkg/models/confidential"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

func (lc *LedgerCC) putEncryptedHandle(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	if len(args) != 2 {
		return shim.Error("参数数量不正确。应为 2 个")
	}

	slot := strings.TrimSpace(args[0])
	if slot == "" {
		return shim.Error(fmt.Sprintf("槽位名不能为空: %v", errorcode.CodeBadRequest))
	}

	h, err := handle.Parse(args[1])
	if err != nil {
		return shim.Error(fmt.Sprintf("无法解析句柄: %v", errorcode.CodeBadRequest))
	}

	if err = stub.PutState(getKeyForSlot(slot), []byte(h.String())); err != nil {
		return shim.Error(fmt.Sprintf("无法写入槽位: %v", err))
	}

	return shim.Success([]byte(stub.GetTxID()))
}

func (lc *LedgerCC) getEncryptedHandle(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	if len(args) != 1 {
		return shim.Error("参数数量不正确。应为 1 个")
	}

	// 未设置的槽位返回空负载
	handleBytes, err := stub.GetState(getKeyForSlot(args[0]))
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取槽位: %v", err))
	}

	return shim.Success(handleBytes)
}

func (lc *LedgerCC) allowDecrypt(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	if len(args) != 2 {
		return shim.Error("参数数量不正确。应为 2 个")
	}

	h, err := handle.Parse(args[0])
	if err != nil || h.IsZero() {
		return shim.Error(fmt.Sprintf("句柄无效: %v", errorcode.CodeBadRequest))
	}

	grantee := strings.TrimSpace(args[1])
	if grantee == "" {
		return shim.Error(fmt.Sprintf("被授权地址不能为空: %v", errorcode.CodeBadRequest))
	}

	if err = stub.PutState(getKeyForACL(h.String(), grantee), []byte("true")); err != nil {
		return shim.Error(fmt.Sprintf("无法写入解密授权: %v", err))
	}

	if err = stub.SetEvent(confidential.GrantEventName, []byte(confidential.GrantEventPayload(h, grantee))); err != nil {
		return shim.Error(fmt.Sprintf("无法发布事件: %v", err))
	}

	return shim.Success([]byte(stub.GetTxID()))
}

func (lc *LedgerCC) isAllowedToDecrypt(stub shim.ChaincodeStubInterface, args []string) peer.Response {
	// 检查参数数量
	if len(args) != 2 {
		return shim.Error("参数数量不正确。应为 2 个")
	}

	h, err := handle.Parse(args[0])
	if err != nil || h.IsZero() {
		return shim.Error(fmt.Sprintf("句柄无效: %v", errorcode.CodeInvalidHandle))
	}

	allowedBytes, err := stub.GetState(getKeyForACL(h.String(), args[1]))
	if err != nil {
		return shim.Error(fmt.Sprintf("无法读取解密授权: %v", err))
	}

	return shim.Success([]byte(strconv.FormatBool(len(allowedBytes) != 0)))
}
