package service

import (
	"context"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// ACLProbeServiceInterface 定义了预先检查解密权限的服务的接口
type ACLProbeServiceInterface interface {
	// 检查地址当前是否持有句柄的解密权限。
	//
	// 参数：
	//   句柄
	//   地址
	//
	// 返回：
	//   是否有权解密
	Check(ctx context.Context, h handle.EncryptedHandle, owner string) (bool, error)
}
