package chaincodectx

import (
	"time"

	"gitee.com/czyczk/attested-reveal/internal/blockchain"
)

// GatewayCtx locates the HTTP gateway of the confidential network.
type GatewayCtx struct {
	CallerAddress string        // 调用者地址，仅用于日志
	APIPrefix     string        // 如 "http://127.0.0.1:8081/api/v1"
	Timeout       time.Duration // 单次 HTTP 请求的超时
}

func (ctx *GatewayCtx) GetBCType() blockchain.BCType {
	return blockchain.Gateway
}
