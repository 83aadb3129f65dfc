package service

import (
	"context"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// DecryptionServiceInterface 定义了有关于句柄解密的服务的接口
type DecryptionServiceInterface interface {
	// 用所有者的签名者解密一个句柄。每次调用需要一次交互式签名。
	//
	// 参数：
	//   句柄
	//   所有者凭证
	//
	// 返回：
	//   明文
	DecryptOwner(ctx context.Context, h handle.EncryptedHandle, cred *OwnerCredential) (uint64, error)

	// 用会话凭证批量解密句柄，一次网络往返，不需要交互式签名。
	//
	// 参数：
	//   句柄列表
	//   会话凭证
	//
	// 返回：
	//   与句柄列表等长、同序的明文列表
	DecryptBatchSession(ctx context.Context, hs []handle.EncryptedHandle, cred *SessionCredential) ([]uint64, error)
}
