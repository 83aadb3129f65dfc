package service

import (
	"context"

	"gitee.com/czyczk/attested-reveal/internal/blockchain/bcao"
	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// ACLProbeService 实现了 `ACLProbeServiceInterface` 接口。其结果仅用于生成更准确的错误提示，不作为授权依据。
type ACLProbeService struct {
	LedgerBCAO bcao.ILedgerBCAO
}

// 检查地址当前是否持有句柄的解密权限。零句柄总是返回 true 且不访问账本。
func (s *ACLProbeService) Check(ctx context.Context, h handle.EncryptedHandle, owner string) (bool, error) {
	if h.IsZero() {
		return true, nil
	}

	return s.LedgerBCAO.CheckDecryptAccess(ctx, h, owner)
}
