package main

import (
	"fmt"

	"github.com/hyperledger/fabric-chaincode-go/shim"
	"github.com/hyperledger/fabric-protos-go/peer"
)

// LedgerCC 实现 Chaincode 接口。它保存业务对象引用的加密句柄与句柄的解密授权。
type LedgerCC struct{}

// Init 用于初始化链码。
func (lc *LedgerCC) Init(stub shim.ChaincodeStubInterface) peer.Response {
	args := stub.GetArgs()
	if len(args) != 0 {
		return shim.Error("初始化不接收参数")
	}

	return shim.Success(nil)
}

// Invoke 用于分流链码调用。
func (lc *LedgerCC) Invoke(stub shim.ChaincodeStubInterface) peer.Response {
	// 解出具体函数名与参数
	funcName, args := stub.GetFunctionAndParameters()

	switch funcName {
	case "putEncryptedHandle":
		return lc.putEncryptedHandle(stub, args)
	case "getEncryptedHandle":
		return lc.getEncryptedHandle(stub, args)
	case "allowDecrypt":
		return lc.allowDecrypt(stub, args)
	case "isAllowedToDecrypt":
		return lc.isAllowedToDecrypt(stub, args)
	}

	return shim.Error("未知的链码函数调用")
}

func main() {
	err := shim.Start(new(LedgerCC))
	if err != nil {
		fmt.Printf("无法启动 LedgerCC: %s", err)
	}
}
