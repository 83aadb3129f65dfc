package errorcode

import (
	"fmt"
	"strings"
)

const (
	// CodeNotFound 表示资源未找到。
	CodeNotFound = "~NOTFOUND~"
	// CodeForbidden 表示请求被理解，但调用者无权进行操作。对解密而言即调用者不持有该句柄的解密权限。
	CodeForbidden = "~FORBIDDEN~"
	// CodeNotImplemented 表示暂时未实现的功能。
	CodeNotImplemented = "~NOTIMPLEMENTED~"
	// CodeBadRequest 表示请求内容不合法。
	CodeBadRequest = "~BADREQUEST~"
	// CodeAccessNotPropagated 表示授权已在链上写入，但尚未被机密计算网络的协同验证者观察到。这是最终一致性窗口，而非永久拒绝。
	CodeAccessNotPropagated = "~ACCESSNOTPROPAGATED~"
	// CodeInvalidHandle 表示句柄格式错误或网络中不存在对应密文。
	CodeInvalidHandle = "~INVALIDHANDLE~"
	// CodeSessionExpired 表示会话凭证已过期。
	CodeSessionExpired = "~SESSIONEXPIRED~"
	// CodeSessionRevoked 表示会话凭证已被吊销（所有者的会话 nonce 已递增）。
	CodeSessionRevoked = "~SESSIONREVOKED~"
	// CodeBadSignature 表示签名无法通过验证。
	CodeBadSignature = "~BADSIGNATURE~"
	// CodeUserRejected 表示用户拒绝了签名请求。
	CodeUserRejected = "~USERREJECTED~"
	// CodeSignerUnavailable 表示当前没有已连接的所有者签名者。
	CodeSignerUnavailable = "~SIGNERUNAVAILABLE~"
	// CodeNetworkUnavailable 表示机密计算网络暂时不可达。
	CodeNetworkUnavailable = "~NETWORKUNAVAILABLE~"
	// CodeAttestationInvalid 表示解密结果未附带足够的协同验证者证明。
	CodeAttestationInvalid = "~ATTESTATIONINVALID~"
)

// ErrorNotFound 为使用了 `CodeNotFound` 的 error 实例
var ErrorNotFound = fmt.Errorf(CodeNotFound)

// ErrorForbidden 为使用了 `CodeForbidden` 的 error 实例
var ErrorForbidden = fmt.Errorf(CodeForbidden)

// ErrorNotImplemented 为使用了 `CodeNotImplemented` 的 error 实例
var ErrorNotImplemented = fmt.Errorf(CodeNotImplemented)

// ErrorBadRequest 为使用了 `CodeBadRequest` 的 error 实例
var ErrorBadRequest = fmt.Errorf(CodeBadRequest)

// ErrorAccessNotPropagated 为使用了 `CodeAccessNotPropagated` 的 error 实例
var ErrorAccessNotPropagated = fmt.Errorf(CodeAccessNotPropagated)

// ErrorInvalidHandle 为使用了 `CodeInvalidHandle` 的 error 实例
var ErrorInvalidHandle = fmt.Errorf(CodeInvalidHandle)

// ErrorSessionExpired 为使用了 `CodeSessionExpired` 的 error 实例
var ErrorSessionExpired = fmt.Errorf(CodeSessionExpired)

// ErrorSessionRevoked 为使用了 `CodeSessionRevoked` 的 error 实例
var ErrorSessionRevoked = fmt.Errorf(CodeSessionRevoked)

// ErrorBadSignature 为使用了 `CodeBadSignature` 的 error 实例
var ErrorBadSignature = fmt.Errorf(CodeBadSignature)

// ErrorUserRejected 为使用了 `CodeUserRejected` 的 error 实例
var ErrorUserRejected = fmt.Errorf(CodeUserRejected)

// ErrorSignerUnavailable 为使用了 `CodeSignerUnavailable` 的 error 实例
var ErrorSignerUnavailable = fmt.Errorf(CodeSignerUnavailable)

// ErrorNetworkUnavailable 为使用了 `CodeNetworkUnavailable` 的 error 实例
var ErrorNetworkUnavailable = fmt.Errorf(CodeNetworkUnavailable)

// ErrorAttestationInvalid 为使用了 `CodeAttestationInvalid` 的 error 实例
var ErrorAttestationInvalid = fmt.Errorf(CodeAttestationInvalid)

// knownErrors lists every coded sentinel. The order matters only for lookups by code.
var knownErrors = []error{
	ErrorNotFound,
	ErrorForbidden,
	ErrorNotImplemented,
	ErrorBadRequest,
	ErrorAccessNotPropagated,
	ErrorInvalidHandle,
	ErrorSessionExpired,
	ErrorSessionRevoked,
	ErrorBadSignature,
	ErrorUserRejected,
	ErrorSignerUnavailable,
	ErrorNetworkUnavailable,
	ErrorAttestationInvalid,
}

// FromCode returns the sentinel whose code is `code`, or nil if the code is unknown.
func FromCode(code string) error {
	for _, e := range knownErrors {
		if e.Error() == code {
			return e
		}
	}

	return nil
}

// FromSuffix returns the sentinel whose code terminates `msg`, or nil if `msg` carries no known code.
// Errors relayed by chaincode or the gateway keep the code at the end of their messages.
func FromSuffix(msg string) error {
	for _, e := range knownErrors {
		if strings.HasSuffix(msg, e.Error()) {
			return e
		}
	}

	return nil
}
