package errorcode

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Category is the user-facing class of a reveal failure.
type Category string

const (
	CategoryUserRejected        Category = "UserRejected"
	CategoryAccessNotYetGranted Category = "AccessNotYetGranted"
	CategorySessionExpired      Category = "SessionExpired"
	CategoryNetworkUnavailable  Category = "NetworkUnavailable"
	CategoryInvalidHandle       Category = "InvalidHandle"
	CategoryUnknown             Category = "Unknown"
)

// Recovery is the action recommended to the user for a failure.
type Recovery string

const (
	RecoveryRetryShortly     Recovery = "RetryShortly"
	RecoveryApproveSignature Recovery = "ApproveSignature"
	RecoveryReconnectSigner  Recovery = "ReconnectSigner"
	RecoveryRecreateSession  Recovery = "RecreateSession"
	RecoveryAcquireAccess    Recovery = "AcquireAccess"
	RecoveryContactSupport   Recovery = "ContactSupport"
)

// Guidance returns a short human-readable hint for the recovery action.
func (r Recovery) Guidance() string {
	switch r {
	case RecoveryRetryShortly:
		return "授权可能尚未同步到机密计算网络，请稍后重试"
	case RecoveryApproveSignature:
		return "请在签名请求中确认后重试"
	case RecoveryReconnectSigner:
		return "请重新连接钱包/签名者"
	case RecoveryRecreateSession:
		return "会话已失效，请重新创建会话"
	case RecoveryAcquireAccess:
		return "当前账户尚未持有该资产的解密权限"
	default:
		return "请联系技术支持"
	}
}

// RevealError 是经过分类的解密失败，附带建议的恢复动作
type RevealError struct {
	Category  Category
	Recovery  Recovery
	Retryable bool   // 条件是否是暂时的
	Message   string // 面向用户的描述
	Cause     error
}

func (e *RevealError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%v: %v", e.Category, e.Message)
	}

	return fmt.Sprintf("%v: %v: %v", e.Category, e.Message, e.Cause)
}

func (e *RevealError) Unwrap() error {
	return e.Cause
}

// WithRecovery returns a copy of the error with a different recovery action and message.
func (e *RevealError) WithRecovery(recovery Recovery, message string) *RevealError {
	ret := *e
	ret.Recovery = recovery
	ret.Message = message
	return &ret
}

// Classify maps any error surfaced by the decryption client, the session manager or the network
// adapters into a RevealError. A nil error yields nil; an error that already is a RevealError is
// returned unchanged.
func Classify(err error) *RevealError {
	if err == nil {
		return nil
	}

	var revealErr *RevealError
	if errors.As(err, &revealErr) {
		return revealErr
	}

	ret := &RevealError{Cause: err}
	switch {
	case errors.Is(err, ErrorUserRejected):
		ret.Category, ret.Recovery = CategoryUserRejected, RecoveryApproveSignature
	case errors.Is(err, ErrorAccessNotPropagated):
		ret.Category, ret.Recovery, ret.Retryable = CategoryAccessNotYetGranted, RecoveryRetryShortly, true
	case errors.Is(err, ErrorForbidden):
		ret.Category, ret.Recovery = CategoryAccessNotYetGranted, RecoveryAcquireAccess
	case errors.Is(err, ErrorSessionExpired), errors.Is(err, ErrorSessionRevoked):
		ret.Category, ret.Recovery = CategorySessionExpired, RecoveryRecreateSession
	case errors.Is(err, ErrorSignerUnavailable):
		ret.Category, ret.Recovery = CategoryNetworkUnavailable, RecoveryReconnectSigner
	case errors.Is(err, ErrorNetworkUnavailable), errors.Is(err, context.DeadlineExceeded):
		ret.Category, ret.Recovery, ret.Retryable = CategoryNetworkUnavailable, RecoveryRetryShortly, true
	case errors.Is(err, ErrorInvalidHandle), errors.Is(err, ErrorNotFound):
		ret.Category, ret.Recovery = CategoryInvalidHandle, RecoveryContactSupport
	default:
		ret.Category, ret.Recovery = CategoryUnknown, RecoveryContactSupport
	}

	ret.Message = ret.Recovery.Guidance()
	return ret
}

// IsRetryable reports whether err is a transient condition worth retrying within a retry budget:
// access that has not propagated to the co-validators yet, or a network hiccup.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrorAccessNotPropagated) || errors.Is(err, ErrorNetworkUnavailable)
}

// CodeOf returns the code of the coded sentinel wrapped in err, or "" if there is none.
func CodeOf(err error) string {
	for _, e := range knownErrors {
		if errors.Is(err, e) {
			return e.Error()
		}
	}

	return ""
}
