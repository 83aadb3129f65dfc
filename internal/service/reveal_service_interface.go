package service

import (
	"context"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// RevealServiceInterface 定义了把业务对象的句柄还原为明文的服务的接口
type RevealServiceInterface interface {
	// 还原一个业务对象的句柄。
	//
	// 参数：
	//   业务对象 ID
	//   句柄列表
	//   所有者地址
	//
	// 返回：
	//   与句柄列表等长、同序的结果
	Reveal(ctx context.Context, domainObjectID string, hs []handle.EncryptedHandle, owner string) (*RevealResult, error)
}
