package service

import "context"

// SessionKeyServiceInterface 定义了有关于会话凭证的服务的接口
type SessionKeyServiceInterface interface {
	// 创建会话凭证。只请求所有者签名一次。
	Create(ctx context.Context) error

	// 检查当前是否有可用的会话凭证。
	IsValid() bool

	// 获取此刻可用的会话凭证。
	Current() (*SessionCredential, bool)

	// 获取会话凭证的状态。
	State() SessionState

	// 吊销会话凭证。没有凭证时什么都不做。
	Revoke(ctx context.Context) error

	// 丢弃网络已拒绝的会话凭证。`cred` 不再是当前凭证时什么都不做。
	Invalidate(cred *SessionCredential)
}
