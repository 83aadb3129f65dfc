package errorcode

import (
	"context"
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		err       error
		category  Category
		recovery  Recovery
		retryable bool
	}{
		{ErrorUserRejected, CategoryUserRejected, RecoveryApproveSignature, false},
		{ErrorAccessNotPropagated, CategoryAccessNotYetGranted, RecoveryRetryShortly, true},
		{ErrorForbidden, CategoryAccessNotYetGranted, RecoveryAcquireAccess, false},
		{ErrorSessionExpired, CategorySessionExpired, RecoveryRecreateSession, false},
		{ErrorSessionRevoked, CategorySessionExpired, RecoveryRecreateSession, false},
		{ErrorSignerUnavailable, CategoryNetworkUnavailable, RecoveryReconnectSigner, false},
		{ErrorNetworkUnavailable, CategoryNetworkUnavailable, RecoveryRetryShortly, true},
		{context.DeadlineExceeded, CategoryNetworkUnavailable, RecoveryRetryShortly, true},
		{ErrorInvalidHandle, CategoryInvalidHandle, RecoveryContactSupport, false},
		{fmt.Errorf("boom"), CategoryUnknown, RecoveryContactSupport, false},
	}

	for _, c := range cases {
		wrapped := errors.Wrap(c.err, "调用失败")
		classified := Classify(wrapped)
		assert.Equal(t, c.category, classified.Category, c.err.Error())
		assert.Equal(t, c.recovery, classified.Recovery, c.err.Error())
		assert.Equal(t, c.retryable, classified.Retryable, c.err.Error())
		assert.NotEmpty(t, classified.Message)
		assert.True(t, errors.Is(classified, c.err))
	}
}

func TestClassifyNilAndIdempotent(t *testing.T) {
	assert.Nil(t, Classify(nil))

	first := Classify(ErrorForbidden)
	assert.Same(t, first, Classify(first))
	assert.Same(t, first, Classify(errors.Wrap(first, "外层")))
}

func TestWithRecoveryCopies(t *testing.T) {
	orig := Classify(ErrorAccessNotPropagated)
	changed := orig.WithRecovery(RecoveryAcquireAccess, "no asset")

	assert.Equal(t, RecoveryRetryShortly, orig.Recovery)
	assert.Equal(t, RecoveryAcquireAccess, changed.Recovery)
	assert.Equal(t, "no asset", changed.Message)
	assert.Equal(t, orig.Category, changed.Category)
}

func TestCodeRoundTrip(t *testing.T) {
	for _, e := range knownErrors {
		code := CodeOf(errors.Wrap(e, "context"))
		assert.Equal(t, e.Error(), code)
		assert.Equal(t, e, FromCode(code))
	}

	assert.Equal(t, "", CodeOf(fmt.Errorf("plain")))
	assert.Nil(t, FromCode("~WHATEVER~"))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(errors.Wrap(ErrorAccessNotPropagated, "x")))
	assert.True(t, IsRetryable(ErrorNetworkUnavailable))
	assert.False(t, IsRetryable(ErrorForbidden))
	assert.False(t, IsRetryable(ErrorUserRejected))
	assert.False(t, IsRetryable(ErrorInvalidHandle))
}

func TestFromSuffix(t *testing.T) {
	assert.Equal(t, ErrorForbidden, FromSuffix("chaincode error: 无权解密 ~FORBIDDEN~"))
	assert.Equal(t, ErrorAccessNotPropagated, FromSuffix(CodeAccessNotPropagated))
	assert.Nil(t, FromSuffix("~FORBIDDEN~ but not at the end"))
}
